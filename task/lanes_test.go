package task

import "testing"

func TestPartitionKeepsServerOrderPerLane(t *testing.T) {
	tasks := []Task{
		{ID: 1, Title: "a", Status: StatusDone},
		{ID: 2, Title: "b", Status: StatusTodo},
		{ID: 3, Title: "c", Status: StatusInProgress},
		{ID: 4, Title: "d", Status: StatusTodo},
		{ID: 5, Title: "e", Status: StatusDone},
	}

	lanes := Partition(tasks)

	assertIDs(t, lanes.Todo, 2, 4)
	assertIDs(t, lanes.InProgress, 3)
	assertIDs(t, lanes.Done, 1, 5)
	if lanes.Total() != len(tasks) {
		t.Fatalf("expected %d tasks across lanes, got %d", len(tasks), lanes.Total())
	}
}

func TestPartitionIsAnExactCover(t *testing.T) {
	lists := [][]Task{
		nil,
		{{ID: 1, Status: StatusTodo}},
		{{ID: 1, Status: StatusDone}, {ID: 2, Status: StatusDone}, {ID: 3, Status: StatusDone}},
		{{ID: 1, Status: StatusTodo}, {ID: 2, Status: StatusInProgress}, {ID: 3, Status: StatusDone}, {ID: 4, Status: StatusInProgress}},
	}

	for _, tasks := range lists {
		lanes := Partition(tasks)
		counts := lanes.Counts()
		sum := 0
		for _, status := range ValidStatuses() {
			sum += counts[status]
			for _, item := range lanes.Lane(status) {
				if item.Status != status {
					t.Fatalf("task %d with status %q placed in lane %q", item.ID, item.Status, status)
				}
			}
		}
		if sum != len(tasks) {
			t.Fatalf("lane counts sum to %d, want %d", sum, len(tasks))
		}

		seen := make(map[int64]bool)
		for _, status := range ValidStatuses() {
			for _, item := range lanes.Lane(status) {
				if seen[item.ID] {
					t.Fatalf("task %d appears in more than one lane", item.ID)
				}
				seen[item.ID] = true
			}
		}
		for _, item := range tasks {
			if !seen[item.ID] {
				t.Fatalf("task %d missing from lanes", item.ID)
			}
		}
	}
}

func TestPartitionSkipsUnknownStatus(t *testing.T) {
	lanes := Partition([]Task{{ID: 1, Status: "archived"}, {ID: 2, Status: StatusTodo}})
	if lanes.Total() != 1 {
		t.Fatalf("expected unknown status to be skipped, got %d", lanes.Total())
	}
	if lanes.Lane("archived") != nil {
		t.Fatalf("expected no lane for unknown status")
	}
}

func TestFind(t *testing.T) {
	tasks := []Task{{ID: 1, Title: "a"}, {ID: 42, Title: "b"}}
	found, ok := Find(tasks, 42)
	if !ok || found.Title != "b" {
		t.Fatalf("expected to find task 42, got %+v %v", found, ok)
	}
	if _, ok := Find(tasks, 7); ok {
		t.Fatalf("expected task 7 to be missing")
	}
}

func assertIDs(t *testing.T, tasks []Task, ids ...int64) {
	t.Helper()
	if len(tasks) != len(ids) {
		t.Fatalf("expected %d tasks, got %d", len(ids), len(tasks))
	}
	for i, id := range ids {
		if tasks[i].ID != id {
			t.Fatalf("expected task %d at index %d, got %d", id, i, tasks[i].ID)
		}
	}
}
