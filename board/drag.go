package board

import (
	"context"
	"slices"

	"github.com/amonks/taskboard/task"
)

// DragState is the state of the drag gesture.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

// Highlight is the visual feedback for the current drag target.
type Highlight int

const (
	// HighlightNone: no drag in progress.
	HighlightNone Highlight = iota
	// HighlightValid: dragging over a lane.
	HighlightValid
	// HighlightInvalid: dragging outside every lane.
	HighlightInvalid
)

func (h Highlight) String() string {
	switch h {
	case HighlightValid:
		return "valid"
	case HighlightInvalid:
		return "invalid"
	default:
		return "none"
	}
}

// Drag is a snapshot of the drag state.
type Drag struct {
	State  DragState
	TaskID int64
	// Hover is the lane under the pointer, nil when outside all lanes.
	Hover *task.Status
}

// Location is a position on the board.
type Location struct {
	Lane  task.Status `json:"lane"`
	Index int         `json:"index"`
}

// DropResult describes a finished drag gesture. A nil Destination means the
// task was dropped outside every lane.
type DropResult struct {
	TaskID      int64     `json:"task_id"`
	Source      Location  `json:"source"`
	Destination *Location `json:"destination"`
}

// DropOutcome reports what DragEnd did.
type DropOutcome int

const (
	// DropIgnored: nothing changed.
	DropIgnored DropOutcome = iota
	// DropReordered: the task moved within its lane locally. The server is
	// not told, so the next refetch restores server order.
	DropReordered
	// DropMoved: the task changed lanes and the new status was sent.
	DropMoved
)

func (o DropOutcome) String() string {
	switch o {
	case DropReordered:
		return "reordered"
	case DropMoved:
		return "moved"
	default:
		return "ignored"
	}
}

// Drag returns a copy of the drag state.
func (b *Board) Drag() Drag {
	b.mu.Lock()
	defer b.mu.Unlock()
	drag := b.drag
	if drag.Hover != nil {
		drag.Hover = task.StatusPtr(*drag.Hover)
	}
	return drag
}

// Highlight reports the feedback to draw for the current drag.
func (b *Board) Highlight() Highlight {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.drag.State != DragDragging:
		return HighlightNone
	case b.drag.Hover == nil:
		return HighlightInvalid
	default:
		return HighlightValid
	}
}

// DragStart begins dragging task id. Hover starts on the task's own lane
// rather than empty, so Highlight reports a valid drop before the first
// DragUpdate; browser clients that only learn the lane from a later update
// see the same result once it arrives.
func (b *Board) DragStart(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drag = Drag{State: DragDragging, TaskID: id}
	if item, ok := task.Find(b.tasks, id); ok && item.Status.IsValid() {
		b.drag.Hover = task.StatusPtr(item.Status)
	}
}

// DragUpdate records the lane under the pointer; nil means outside all lanes.
func (b *Board) DragUpdate(lane *task.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drag.State != DragDragging {
		return
	}
	if lane == nil || !lane.IsValid() {
		b.drag.Hover = nil
		return
	}
	b.drag.Hover = task.StatusPtr(*lane)
}

// DragEnd finishes the gesture.
//
// Dropping into another lane changes the task's status locally, sends the
// full record with the new status and refetches; if the update fails the
// list is put back. Dropping elsewhere in the same lane only reorders the
// local list.
func (b *Board) DragEnd(ctx context.Context, result DropResult) (DropOutcome, error) {
	b.mu.Lock()
	b.drag = Drag{State: DragIdle}

	destination := result.Destination
	if destination == nil {
		b.mu.Unlock()
		return DropIgnored, nil
	}
	if destination.Lane == result.Source.Lane && destination.Index == result.Source.Index {
		b.mu.Unlock()
		return DropIgnored, nil
	}
	index := slices.IndexFunc(b.tasks, func(item task.Task) bool { return item.ID == result.TaskID })
	if index < 0 || !destination.Lane.IsValid() {
		b.mu.Unlock()
		return DropIgnored, nil
	}
	item := b.tasks[index]

	if item.Status == destination.Lane {
		outcome := DropIgnored
		if reorderLane(b.tasks, item.ID, destination.Lane, destination.Index) {
			outcome = DropReordered
		}
		b.mu.Unlock()
		return outcome, nil
	}

	previous := slices.Clone(b.tasks)
	b.tasks[index].Status = destination.Lane
	b.generation++
	generation := b.generation
	b.mu.Unlock()

	moved := item
	moved.Status = destination.Lane
	if _, err := b.update(ctx, moved); err != nil {
		b.mu.Lock()
		if b.generation == generation {
			b.tasks = previous
			b.generation++
		}
		b.mu.Unlock()
		return DropIgnored, err
	}
	_ = b.Refetch(ctx)
	return DropMoved, nil
}

// reorderLane moves task id to position to among the tasks in lane, leaving
// every other lane's tasks where they are. It reports whether the order changed.
func reorderLane(tasks []task.Task, id int64, lane task.Status, to int) bool {
	var positions []int
	var laneTasks []task.Task
	from := -1
	for i, item := range tasks {
		if item.Status != lane {
			continue
		}
		if item.ID == id {
			from = len(laneTasks)
		}
		positions = append(positions, i)
		laneTasks = append(laneTasks, item)
	}
	if from < 0 {
		return false
	}
	to = max(0, min(to, len(laneTasks)-1))
	if from == to {
		return false
	}

	moving := laneTasks[from]
	laneTasks = slices.Delete(laneTasks, from, from+1)
	laneTasks = slices.Insert(laneTasks, to, moving)
	for i, position := range positions {
		tasks[position] = laneTasks[i]
	}
	return true
}
