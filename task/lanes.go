package task

// Lanes is the per-status grouping of a task list.
// It is derived, never stored: build it with Partition each time the list changes.
type Lanes struct {
	Todo       []Task
	InProgress []Task
	Done       []Task
}

// Partition groups tasks by status, keeping the input order within each lane.
// Tasks with a status outside the three lanes are not placed in any lane.
func Partition(tasks []Task) Lanes {
	var lanes Lanes
	for _, item := range tasks {
		switch item.Status {
		case StatusTodo:
			lanes.Todo = append(lanes.Todo, item)
		case StatusInProgress:
			lanes.InProgress = append(lanes.InProgress, item)
		case StatusDone:
			lanes.Done = append(lanes.Done, item)
		}
	}
	return lanes
}

// Lane returns the tasks in the lane for status.
func (l Lanes) Lane(status Status) []Task {
	switch status {
	case StatusTodo:
		return l.Todo
	case StatusInProgress:
		return l.InProgress
	case StatusDone:
		return l.Done
	default:
		return nil
	}
}

// Counts returns the number of tasks per lane.
func (l Lanes) Counts() map[Status]int {
	return map[Status]int{
		StatusTodo:       len(l.Todo),
		StatusInProgress: len(l.InProgress),
		StatusDone:       len(l.Done),
	}
}

// Total returns the number of tasks across all lanes.
func (l Lanes) Total() int {
	return len(l.Todo) + len(l.InProgress) + len(l.Done)
}

// Find returns the task with the given id.
func Find(tasks []Task, id int64) (Task, bool) {
	for _, item := range tasks {
		if item.ID == id {
			return item, true
		}
	}
	return Task{}, false
}
