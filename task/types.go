// Package task defines the task records shown on the board and the pure
// derivations the clients render from them.
//
// The server owns every task: ids are assigned on create, and the order of
// the list returned by a fetch is the only ordering the board knows about.
// Lanes are always recomputed from that list with Partition.
package task

import "time"

// Status represents the lane a task belongs to.
type Status string

const (
	// StatusTodo is the default lane for new tasks.
	StatusTodo Status = "todo"

	// StatusInProgress marks a task that is being worked on.
	StatusInProgress Status = "in_progress"

	// StatusDone marks a finished task.
	StatusDone Status = "done"
)

// ValidStatuses returns all valid status values in lane order.
func ValidStatuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Label returns the lane heading for the status, e.g. "IN PROGRESS".
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "TODO"
	case StatusInProgress:
		return "IN PROGRESS"
	case StatusDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// StatusPtr returns a pointer to the provided status.
func StatusPtr(status Status) *Status {
	return &status
}

// Task is a single card on the board.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Draft is the creation buffer behind the task dialog.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// EmptyDraft returns the draft a fresh create dialog starts from.
func EmptyDraft() Draft {
	return Draft{Status: StatusTodo}
}

// Record is the full task body sent on create and update.
// The owner id is required on every mutating call.
type Record struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	UserID      int64  `json:"user_id"`
}

// RecordFromTask builds the full replacement record for an existing task.
func RecordFromTask(item Task, userID int64) Record {
	return Record{
		Title:       item.Title,
		Description: item.Description,
		Status:      item.Status,
		UserID:      userID,
	}
}

// RecordFromDraft builds the create record for a draft.
func RecordFromDraft(draft Draft, userID int64) Record {
	return Record{
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		UserID:      userID,
	}
}

// User is the account record the backend exposes for display.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// MaxTitleLength is the maximum allowed length for a task title.
const MaxTitleLength = 100
