package board

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/amonks/taskboard/task"
)

var errInjected = errors.New("injected failure")

type updateCall struct {
	id     int64
	record task.Record
}

type deleteCall struct {
	id     int64
	userID int64
}

// fakeAPI is an in-memory backend keyed by owner.
type fakeAPI struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64][]task.Task
	users  map[int64]task.User

	failList   bool
	failUser   bool
	failCreate bool
	failUpdate bool
	failDelete bool

	listCalls int
	creates   []task.Record
	updates   []updateCall
	deletes   []deleteCall
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID: 1,
		tasks:  make(map[int64][]task.Task),
		users:  make(map[int64]task.User),
	}
}

func (f *fakeAPI) seed(userID int64, items ...task.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		if item.ID == 0 {
			item.ID = f.nextID
		}
		if item.ID >= f.nextID {
			f.nextID = item.ID + 1
		}
		f.tasks[userID] = append(f.tasks[userID], item)
	}
}

func (f *fakeAPI) ListTasks(_ context.Context, userID int64) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failList {
		return nil, errInjected
	}
	return slices.Clone(f.tasks[userID]), nil
}

func (f *fakeAPI) User(_ context.Context, userID int64) (task.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if f.failUser || !ok {
		return task.User{}, errInjected
	}
	return user, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, record task.Record) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, record)
	if f.failCreate {
		return task.Task{}, errInjected
	}
	created := task.Task{ID: f.nextID, Title: record.Title, Description: record.Description, Status: record.Status}
	f.nextID++
	f.tasks[record.UserID] = append(f.tasks[record.UserID], created)
	return created, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id int64, record task.Record) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{id: id, record: record})
	if f.failUpdate {
		return task.Task{}, errInjected
	}
	for i, item := range f.tasks[record.UserID] {
		if item.ID == id {
			item.Title = record.Title
			item.Description = record.Description
			item.Status = record.Status
			f.tasks[record.UserID][i] = item
			return item, nil
		}
	}
	return task.Task{}, errInjected
}

func (f *fakeAPI) DeleteTask(_ context.Context, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, deleteCall{id: id, userID: userID})
	if f.failDelete {
		return errInjected
	}
	f.tasks[userID] = slices.DeleteFunc(f.tasks[userID], func(item task.Task) bool { return item.ID == id })
	return nil
}

func ids(tasks []task.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, item := range tasks {
		out = append(out, item.ID)
	}
	return out
}
