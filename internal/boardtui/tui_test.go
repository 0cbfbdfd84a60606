package boardtui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/amonks/taskboard/board"
	"github.com/amonks/taskboard/task"
)

const testUserID = 7

type stubAPI struct {
	mu      sync.Mutex
	nextID  int64
	tasks   []task.Task
	creates []task.Record
	updates []task.Record
	deletes []int64

	deleteErr error
}

func (s *stubAPI) ListTasks(context.Context, int64) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks), nil
}

func (s *stubAPI) User(_ context.Context, userID int64) (task.User, error) {
	return task.User{ID: userID, Username: "alice"}, nil
}

func (s *stubAPI) CreateTask(_ context.Context, record task.Record) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.Title == "" {
		return task.Task{}, errors.New("title is required")
	}
	s.nextID++
	created := task.Task{ID: s.nextID, Title: record.Title, Description: record.Description, Status: record.Status}
	s.creates = append(s.creates, record)
	s.tasks = append(s.tasks, created)
	return created, nil
}

func (s *stubAPI) UpdateTask(_ context.Context, id int64, record task.Record) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, record)
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Title = record.Title
			s.tasks[i].Description = record.Description
			s.tasks[i].Status = record.Status
			return s.tasks[i], nil
		}
	}
	return task.Task{}, errors.New("Task not found")
}

func (s *stubAPI) DeleteTask(_ context.Context, id, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.tasks = slices.DeleteFunc(s.tasks, func(item task.Task) bool { return item.ID == id })
	return nil
}

func newTestModel(t *testing.T, items ...task.Task) (model, *stubAPI) {
	t.Helper()
	useASCIIRenderer(t)

	api := &stubAPI{nextID: 100, tasks: items}
	b := board.New(api, testUserID, board.Options{})
	m := newModel(context.Background(), b)
	m = update(t, m, tea.WindowSizeMsg{Width: 96, Height: 24})
	m = run(t, m, m.Init())
	return m, api
}

func seedTasks() []task.Task {
	return []task.Task{
		{ID: 1, Title: "Write docs", Description: "for the board", Status: task.StatusTodo},
		{ID: 2, Title: "Fix login", Status: task.StatusTodo},
		{ID: 3, Title: "Ship it", Status: task.StatusInProgress},
	}
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(model)
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	return update(t, m, cmd())
}

func press(t *testing.T, m model, key string) (model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(keyMsg(key))
	return updated.(model), cmd
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func useASCIIRenderer(t *testing.T) {
	originalProfile := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(originalProfile)
	})
}

func TestViewShowsLanesAfterMount(t *testing.T) {
	m, _ := newTestModel(t, seedTasks()...)

	view := m.View()
	for _, want := range []string{"TODO (2)", "IN PROGRESS (1)", "DONE (0)", "alice", "> Write docs", "for the board"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q, got\n%s", want, view)
		}
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := newModel(context.Background(), board.New(&stubAPI{}, testUserID, board.Options{}))
	if got := m.View(); got != "Loading board..." {
		t.Fatalf("expected loading view, got %q", got)
	}
}

func TestGrabAndDropMovesTaskAcrossLanes(t *testing.T) {
	m, api := newTestModel(t, seedTasks()...)

	m, _ = press(t, m, "enter")
	if m.board.Drag().State != board.DragDragging {
		t.Fatalf("expected dragging after grab")
	}
	if m.board.Highlight() != board.HighlightValid {
		t.Fatalf("expected valid highlight over own lane, got %s", m.board.Highlight())
	}
	m, _ = press(t, m, "right")
	if hover := m.board.Drag().Hover; hover == nil || *hover != task.StatusInProgress {
		t.Fatalf("expected hover over in progress, got %v", hover)
	}

	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	if len(api.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(api.updates))
	}
	sent := api.updates[0]
	if sent.Status != task.StatusInProgress || sent.Title != "Write docs" || sent.Description != "for the board" || sent.UserID != testUserID {
		t.Fatalf("expected full record with new status, got %+v", sent)
	}
	if got := m.board.Lanes().Counts()[task.StatusInProgress]; got != 2 {
		t.Fatalf("expected 2 tasks in progress, got %d", got)
	}
	if !strings.Contains(m.View(), "Moved to IN PROGRESS") {
		t.Fatalf("expected move status, got\n%s", m.View())
	}
}

func TestDropOutsideLanesIsIgnored(t *testing.T) {
	m, api := newTestModel(t, seedTasks()...)

	m, _ = press(t, m, "enter")
	m, _ = press(t, m, "o")
	if m.board.Highlight() != board.HighlightInvalid {
		t.Fatalf("expected invalid highlight, got %s", m.board.Highlight())
	}
	if !strings.Contains(m.View(), "Outside all lanes") {
		t.Fatalf("expected invalid drop hint, got\n%s", m.View())
	}

	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	if len(api.updates) != 0 {
		t.Fatalf("expected no updates, got %d", len(api.updates))
	}
	if m.board.Drag().State != board.DragIdle {
		t.Fatalf("expected drag to end")
	}
	if m.board.Highlight() != board.HighlightNone {
		t.Fatalf("expected no highlight, got %s", m.board.Highlight())
	}
}

func TestEscCancelsDrag(t *testing.T) {
	m, api := newTestModel(t, seedTasks()...)

	m, _ = press(t, m, "enter")
	m, _ = press(t, m, "right")
	m, cmd := press(t, m, "esc")
	m = run(t, m, cmd)

	if len(api.updates) != 0 {
		t.Fatalf("expected no updates, got %d", len(api.updates))
	}
	if got := m.board.Lanes().Counts()[task.StatusTodo]; got != 2 {
		t.Fatalf("expected 2 todo tasks, got %d", got)
	}
}

func TestSameLaneDropReordersLocally(t *testing.T) {
	m, api := newTestModel(t, seedTasks()...)

	m, _ = press(t, m, "enter")
	m, _ = press(t, m, "down")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	if len(api.updates) != 0 {
		t.Fatalf("expected no updates for a reorder, got %d", len(api.updates))
	}
	todo := m.board.Lanes().Lane(task.StatusTodo)
	if len(todo) != 2 || todo[0].ID != 2 || todo[1].ID != 1 {
		t.Fatalf("expected local order [2 1], got %+v", todo)
	}
	if m.row != 1 {
		t.Fatalf("expected cursor to follow the card, got row %d", m.row)
	}

	m = run(t, m, m.refetchCmd())
	todo = m.board.Lanes().Lane(task.StatusTodo)
	if todo[0].ID != 1 {
		t.Fatalf("expected server order after refresh, got %+v", todo)
	}
}

func TestCreateDialogSubmits(t *testing.T) {
	m, api := newTestModel(t)

	m, _ = press(t, m, "n")
	if m.board.Dialog().Mode != board.DialogCreate {
		t.Fatalf("expected create dialog, got %s", m.board.Dialog().Mode)
	}
	m, _ = press(t, m, "Plan sprint")
	if got := m.board.Dialog().Draft.Title; got != "Plan sprint" {
		t.Fatalf("expected draft title to follow input, got %q", got)
	}
	if !strings.Contains(m.View(), "Create New Task") {
		t.Fatalf("expected dialog heading, got\n%s", m.View())
	}

	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	if len(api.creates) != 1 {
		t.Fatalf("expected 1 create, got %d", len(api.creates))
	}
	want := task.Record{Title: "Plan sprint", Status: task.StatusTodo, UserID: testUserID}
	if api.creates[0] != want {
		t.Fatalf("expected %+v, got %+v", want, api.creates[0])
	}
	if m.board.Dialog().Open() {
		t.Fatalf("expected dialog closed after submit")
	}
	if !strings.Contains(m.View(), "Plan sprint") {
		t.Fatalf("expected new task on the board, got\n%s", m.View())
	}
}

func TestCreateFailureKeepsDialogOpen(t *testing.T) {
	m, api := newTestModel(t)

	m, _ = press(t, m, "n")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	if len(api.creates) != 0 {
		t.Fatalf("expected no creates, got %d", len(api.creates))
	}
	if m.board.Dialog().Mode != board.DialogCreate {
		t.Fatalf("expected dialog to stay open")
	}
	if strings.Contains(m.View(), "title is required") {
		t.Fatalf("expected no error text, got\n%s", m.View())
	}
}

func TestEditDialogChangesStatus(t *testing.T) {
	m, api := newTestModel(t, seedTasks()...)

	m, _ = press(t, m, "e")
	dialog := m.board.Dialog()
	if dialog.Mode != board.DialogEdit || dialog.Current == nil || dialog.Current.ID != 1 {
		t.Fatalf("expected edit dialog on task 1, got %+v", dialog)
	}
	if got := m.dialog.title.Value(); got != "Write docs" {
		t.Fatalf("expected title prefilled, got %q", got)
	}

	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "right")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	if len(api.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(api.updates))
	}
	want := task.Record{Title: "Write docs", Description: "for the board", Status: task.StatusInProgress, UserID: testUserID}
	if api.updates[0] != want {
		t.Fatalf("expected %+v, got %+v", want, api.updates[0])
	}
	if m.board.Dialog().Open() {
		t.Fatalf("expected dialog closed after save")
	}
}

func TestEscClosesDialog(t *testing.T) {
	m, _ := newTestModel(t, seedTasks()...)

	m, _ = press(t, m, "n")
	m, _ = press(t, m, "Draft")
	m, _ = press(t, m, "esc")

	dialog := m.board.Dialog()
	if dialog.Open() || dialog.Draft != task.EmptyDraft() {
		t.Fatalf("expected closed dialog with empty draft, got %+v", dialog)
	}
}

func TestDeleteSelectedTask(t *testing.T) {
	m, api := newTestModel(t, seedTasks()...)

	m, _ = press(t, m, "down")
	m, cmd := press(t, m, "d")
	m = run(t, m, cmd)

	if len(api.deletes) != 1 || api.deletes[0] != 2 {
		t.Fatalf("expected delete of task 2, got %v", api.deletes)
	}
	if got := m.board.Lanes().Counts()[task.StatusTodo]; got != 1 {
		t.Fatalf("expected 1 todo task, got %d", got)
	}
	if m.row != 0 {
		t.Fatalf("expected cursor clamped to 0, got %d", m.row)
	}
}

func TestDeleteFailureShowsNoError(t *testing.T) {
	m, api := newTestModel(t, seedTasks()...)
	api.deleteErr = errors.New("Task not found")

	m, cmd := press(t, m, "d")
	m = run(t, m, cmd)

	if len(api.deletes) != 1 {
		t.Fatalf("expected 1 delete attempt, got %v", api.deletes)
	}
	if got := m.board.Lanes().Counts()[task.StatusTodo]; got != 2 {
		t.Fatalf("expected todo lane unchanged, got %d", got)
	}
	view := m.View()
	for _, text := range []string{"Task not found", "failed", "Deleted task"} {
		if strings.Contains(view, text) {
			t.Fatalf("expected no %q in view, got\n%s", text, view)
		}
	}
	if m.status != "" {
		t.Fatalf("expected neutral status, got %q", m.status)
	}
}

func TestWrapDescriptionLimitsLines(t *testing.T) {
	lines := wrapDescription("one two three four five six seven eight nine ten", 9)
	if len(lines) != maxDescriptionLines {
		t.Fatalf("expected %d lines, got %d: %q", maxDescriptionLines, len(lines), lines)
	}
	for _, line := range lines {
		if len(line) > 9 {
			t.Fatalf("expected lines within width, got %q", line)
		}
	}
}
