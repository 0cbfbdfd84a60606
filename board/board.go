// Package board implements the task board controller shared by every client:
// fetching, the create/edit dialog, task mutations and drag-and-drop.
//
// The board never patches its task list after a mutation. Every successful
// mutation is followed by a full refetch, and whichever refetch finishes last
// determines the list. Lanes are derived from the list on demand.
package board

import (
	"context"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/amonks/taskboard/internal/logging"
	"github.com/amonks/taskboard/task"
)

// DefaultDisplayName is shown when the username is unknown.
const DefaultDisplayName = "User"

// TaskAPI is the subset of the backend the board talks to.
type TaskAPI interface {
	ListTasks(ctx context.Context, userID int64) ([]task.Task, error)
	User(ctx context.Context, userID int64) (task.User, error)
	CreateTask(ctx context.Context, record task.Record) (task.Task, error)
	UpdateTask(ctx context.Context, id int64, record task.Record) (task.Task, error)
	DeleteTask(ctx context.Context, id, userID int64) error
}

// Options configures a Board.
type Options struct {
	// Logger receives fetch and mutation failures. Defaults to discarding.
	Logger log.FieldLogger
}

// Board holds one user's board state.
type Board struct {
	api    TaskAPI
	userID int64
	logger log.FieldLogger

	mu    sync.Mutex
	tasks []task.Task
	// generation counts replacements of tasks.
	generation uint64
	username   string
	dialog     Dialog
	drag       Drag
}

// New creates a board for userID.
func New(api TaskAPI, userID int64, opts Options) *Board {
	return &Board{
		api:    api,
		userID: userID,
		logger: logging.OrDiscard(opts.Logger).WithField("user_id", userID),
		tasks:  []task.Task{},
		dialog: closedDialog(),
	}
}

// UserID returns the owner id attached to every mutation.
func (b *Board) UserID() int64 {
	return b.userID
}

// Mount runs the initial task and username fetches in parallel and waits for
// both. Failures are absorbed the same way Refetch and FetchUsername absorb them.
func (b *Board) Mount(ctx context.Context) {
	var group errgroup.Group
	group.Go(func() error {
		_ = b.Refetch(ctx)
		return nil
	})
	group.Go(func() error {
		b.FetchUsername(ctx)
		return nil
	})
	_ = group.Wait()
}

// Refetch replaces the task list with the server's. On failure the previous
// list stays in place; the error is logged and returned.
func (b *Board) Refetch(ctx context.Context) error {
	tasks, err := b.api.ListTasks(ctx, b.userID)
	if err != nil {
		b.logger.WithError(err).Error("error fetching tasks")
		return err
	}
	b.mu.Lock()
	b.tasks = slices.Clone(tasks)
	if b.tasks == nil {
		b.tasks = []task.Task{}
	}
	b.generation++
	b.mu.Unlock()
	return nil
}

// FetchUsername loads the display name. On failure the name becomes empty.
func (b *Board) FetchUsername(ctx context.Context) {
	user, err := b.api.User(ctx, b.userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.logger.WithError(err).Debug("error fetching username")
		b.username = ""
		return
	}
	b.username = user.Username
}

// Tasks returns a copy of the task list in server order.
func (b *Board) Tasks() []task.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.tasks)
}

// Lanes partitions the current task list by status.
func (b *Board) Lanes() task.Lanes {
	return task.Partition(b.Tasks())
}

// Username returns the fetched username, which may be empty.
func (b *Board) Username() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.username
}

// DisplayName returns the username, or DefaultDisplayName when it is empty.
func (b *Board) DisplayName() string {
	if name := b.Username(); name != "" {
		return name
	}
	return DefaultDisplayName
}

// Find returns the task with the given id from the current list.
func (b *Board) Find(id int64) (task.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return task.Find(b.tasks, id)
}

// Create posts draft for the board's user and refetches on success.
// The new task appears only after the refetch.
func (b *Board) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	created, err := b.create(ctx, draft)
	if err != nil {
		return task.Task{}, err
	}
	_ = b.Refetch(ctx)
	return created, nil
}

// Update sends item as a full replacement of the stored task and refetches on
// success.
func (b *Board) Update(ctx context.Context, item task.Task) (task.Task, error) {
	updated, err := b.update(ctx, item)
	if err != nil {
		return task.Task{}, err
	}
	_ = b.Refetch(ctx)
	return updated, nil
}

// Delete removes task id without confirmation and refetches on success.
func (b *Board) Delete(ctx context.Context, id int64) error {
	if err := b.api.DeleteTask(ctx, id, b.userID); err != nil {
		b.logger.WithError(err).WithField("task_id", id).Error("error deleting task")
		return err
	}
	_ = b.Refetch(ctx)
	return nil
}

func (b *Board) create(ctx context.Context, draft task.Draft) (task.Task, error) {
	created, err := b.api.CreateTask(ctx, task.RecordFromDraft(draft, b.userID))
	if err != nil {
		b.logger.WithError(err).Error("error creating task")
		return task.Task{}, err
	}
	return created, nil
}

func (b *Board) update(ctx context.Context, item task.Task) (task.Task, error) {
	updated, err := b.api.UpdateTask(ctx, item.ID, task.RecordFromTask(item, b.userID))
	if err != nil {
		b.logger.WithError(err).WithField("task_id", item.ID).Error("error updating task")
		return task.Task{}, err
	}
	return updated, nil
}
