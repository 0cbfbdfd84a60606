// Package boardtui is the terminal rendition of the task board: three lanes,
// a keyboard driven drag gesture and the create/edit dialog.
package boardtui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/amonks/taskboard/board"
	internalstrings "github.com/amonks/taskboard/internal/strings"
	"github.com/amonks/taskboard/task"
)

type statusLevel int

const (
	statusNone statusLevel = iota
	statusInfo
)

const maxDescriptionLines = 3

type boardLoadedMsg struct{}

type refreshedMsg struct{ err error }

type submittedMsg struct{ err error }

type deletedMsg struct {
	id  int64
	err error
}

type droppedMsg struct {
	lane    *task.Status
	outcome board.DropOutcome
	err     error
}

type model struct {
	ctx         context.Context
	board       *board.Board
	width       int
	height      int
	loaded      bool
	lane        int
	row         int
	dialog      dialogModel
	source      board.Location
	dropIndex   int
	status      string
	statusLevel statusLevel
}

// Run shows b until the user quits. The board is mounted on start.
func Run(ctx context.Context, b *board.Board) error {
	if b == nil {
		return fmt.Errorf("board is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	program := tea.NewProgram(newModel(ctx, b), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func newModel(ctx context.Context, b *board.Board) model {
	return model{
		ctx:    ctx,
		board:  b,
		dialog: newDialogModel(),
	}
}

func (m model) Init() tea.Cmd {
	return m.mountCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.dialog.setWidth(msg.Width)
		return m, nil
	case boardLoadedMsg:
		m.loaded = true
		m.clampCursor()
		return m, nil
	case refreshedMsg:
		// Failures are logged by the board; the status line stays neutral.
		if msg.err != nil {
			m.setStatus("", statusNone)
		} else {
			m.setStatus("Refreshed", statusInfo)
		}
		m.clampCursor()
		return m, nil
	case submittedMsg:
		if msg.err != nil {
			m.setStatus("", statusNone)
			return m, nil
		}
		m.setStatus("Task saved", statusInfo)
		m.clampCursor()
		return m, nil
	case deletedMsg:
		if msg.err != nil {
			m.setStatus("", statusNone)
		} else {
			m.setStatus(fmt.Sprintf("Deleted task %d", msg.id), statusInfo)
		}
		m.clampCursor()
		return m, nil
	case droppedMsg:
		m.handleDropped(msg)
		return m, nil
	case tea.KeyMsg:
		if m.board.Dialog().Open() {
			return m.updateDialog(msg)
		}
		if m.board.Drag().State == board.DragDragging {
			return m.handleDragKey(msg)
		}
		return m.handleKey(msg)
	}

	if m.board.Dialog().Open() {
		return m.updateDialog(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "h":
		m.moveLane(-1)
	case "right", "l":
		m.moveLane(1)
	case "up", "k":
		m.row--
		m.clampCursor()
	case "down", "j":
		m.row++
		m.clampCursor()
	case "r":
		return m, m.refetchCmd()
	case "n", "a":
		m.board.OpenCreate()
		m.dialog.load(m.board.Dialog())
	case "e":
		item, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		if m.board.OpenEdit(item.ID) {
			m.dialog.load(m.board.Dialog())
		}
	case "d", "x":
		item, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.deleteCmd(item.ID)
	case " ", "enter":
		return m.grab()
	}
	return m, nil
}

// grab starts dragging the selected card from its own lane.
func (m model) grab() (tea.Model, tea.Cmd) {
	item, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	m.source = board.Location{Lane: item.Status, Index: m.row}
	m.dropIndex = m.row
	m.board.DragStart(item.ID)
	m.setStatus(fmt.Sprintf("Moving %q", item.Title), statusInfo)
	return m, nil
}

func (m model) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	drag := m.board.Drag()
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		m.moveHover(drag, -1)
	case "right", "l":
		m.moveHover(drag, 1)
	case "up", "k":
		if m.dropIndex > 0 {
			m.dropIndex--
		}
	case "down", "j":
		if drag.Hover != nil && m.dropIndex < m.maxDropIndex(*drag.Hover) {
			m.dropIndex++
		}
	case "o":
		// Pointer leaves every lane.
		m.board.DragUpdate(nil)
	case "esc":
		return m, m.dropCmd(board.DropResult{TaskID: drag.TaskID, Source: m.source})
	case " ", "enter":
		result := board.DropResult{TaskID: drag.TaskID, Source: m.source}
		if drag.Hover != nil {
			result.Destination = &board.Location{Lane: *drag.Hover, Index: m.dropIndex}
		}
		return m, m.dropCmd(result)
	}
	return m, nil
}

func (m *model) moveHover(drag board.Drag, step int) {
	statuses := task.ValidStatuses()
	index := m.lane
	if drag.Hover != nil {
		index = laneIndex(*drag.Hover)
	}
	index = max(0, min(index+step, len(statuses)-1))
	lane := statuses[index]
	m.board.DragUpdate(task.StatusPtr(lane))
	if lane == m.source.Lane {
		m.dropIndex = m.source.Index
	} else {
		m.dropIndex = m.maxDropIndex(lane)
	}
}

// maxDropIndex is the last position a drop into lane can target.
func (m model) maxDropIndex(lane task.Status) int {
	count := len(m.board.Lanes().Lane(lane))
	if lane == m.source.Lane {
		return max(0, count-1)
	}
	return count
}

func (m *model) handleDropped(msg droppedMsg) {
	switch {
	case msg.err != nil:
		m.setStatus("", statusNone)
	case msg.outcome == board.DropMoved && msg.lane != nil:
		m.setStatus(fmt.Sprintf("Moved to %s", msg.lane.Label()), statusInfo)
		m.lane = laneIndex(*msg.lane)
	case msg.outcome == board.DropReordered:
		m.setStatus("Reordered until the next refresh", statusInfo)
		m.row = m.dropIndex
	default:
		m.setStatus("", statusNone)
	}
	m.clampCursor()
}

func (m model) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd, submit, cancel := m.dialog.update(msg)
	switch {
	case cancel:
		m.board.Close()
		return m, nil
	case submit:
		m.dialog.push(m.board)
		return m, m.submitCmd()
	}
	m.dialog.push(m.board)
	return m, cmd
}

func (m *model) moveLane(step int) {
	m.lane = max(0, min(m.lane+step, len(task.ValidStatuses())-1))
	m.clampCursor()
}

func (m *model) clampCursor() {
	count := len(m.currentLane())
	m.row = max(0, min(m.row, count-1))
}

func (m model) currentLane() []task.Task {
	return m.board.Lanes().Lane(task.ValidStatuses()[m.lane])
}

func (m model) selectedTask() (task.Task, bool) {
	tasks := m.currentLane()
	if m.row < 0 || m.row >= len(tasks) {
		return task.Task{}, false
	}
	return tasks[m.row], true
}

func (m *model) setStatus(text string, level statusLevel) {
	m.status = text
	m.statusLevel = level
}

func laneIndex(status task.Status) int {
	for i, candidate := range task.ValidStatuses() {
		if candidate == status {
			return i
		}
	}
	return 0
}

func (m model) mountCmd() tea.Cmd {
	return func() tea.Msg {
		m.board.Mount(m.ctx)
		return boardLoadedMsg{}
	}
}

func (m model) refetchCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.board.Refetch(m.ctx)}
	}
}

func (m model) submitCmd() tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{err: m.board.Submit(m.ctx)}
	}
}

func (m model) deleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: id, err: m.board.Delete(m.ctx, id)}
	}
}

func (m model) dropCmd(result board.DropResult) tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.board.DragEnd(m.ctx, result)
		msg := droppedMsg{outcome: outcome, err: err}
		if result.Destination != nil {
			msg.lane = task.StatusPtr(result.Destination.Lane)
		}
		return msg
	}
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading board..."
	}
	header := m.renderHeader()
	help := helpBarStyle.Width(m.width).Render(truncateText(m.helpSummary(), m.width))
	contentHeight := max(1, m.height-3)

	var content string
	if m.board.Dialog().Open() {
		content = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, m.dialog.view())
	} else {
		content = m.renderLanes(contentHeight)
	}
	return strings.Join([]string{header, help, content, m.renderStatusLine()}, "\n")
}

func (m model) renderHeader() string {
	title := headerStyle.Render("Task Board")
	user := userStyle.Render(m.board.DisplayName())
	spacer := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(user))
	return title + helpBarStyle.Render(strings.Repeat(" ", spacer)) + user
}

func (m model) renderLanes(height int) string {
	lanes := m.board.Lanes()
	drag := m.board.Drag()
	highlight := m.board.Highlight()
	statuses := task.ValidStatuses()

	width := m.width / len(statuses)
	panes := make([]string, 0, len(statuses))
	for i, status := range statuses {
		style := laneStyle
		switch {
		case highlight == board.HighlightInvalid:
			style = laneInvalidStyle
		case highlight == board.HighlightValid && drag.Hover != nil && *drag.Hover == status:
			style = laneValidStyle
		}
		inner := max(1, width-4)
		body := m.renderLane(status, lanes.Lane(status), i, inner, drag)
		panes = append(panes, style.Width(max(0, width-2)).Height(max(0, height-2)).Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panes...)
}

func (m model) renderLane(status task.Status, tasks []task.Task, index, width int, drag board.Drag) string {
	lines := []string{laneTitleStyle.Render(fmt.Sprintf("%s (%d)", status.Label(), len(tasks))), ""}
	dropHere := drag.State == board.DragDragging && drag.Hover != nil && *drag.Hover == status
	marker := dropMarkerStyle.Render(strings.Repeat("=", width))

	for row, item := range tasks {
		if dropHere && row == m.dropIndex && item.ID != drag.TaskID {
			lines = append(lines, marker)
		}
		prefix := "  "
		titleStyle := cardTitleStyle
		switch {
		case drag.State == board.DragDragging && item.ID == drag.TaskID:
			prefix = "* "
			titleStyle = cardSelectedStyle
		case drag.State != board.DragDragging && index == m.lane && row == m.row:
			prefix = "> "
			titleStyle = cardSelectedStyle
		}
		lines = append(lines, titleStyle.Render(prefix+truncateText(item.Title, width-2)))
		if !internalstrings.IsBlank(item.Description) {
			for _, line := range wrapDescription(item.Description, width-2) {
				lines = append(lines, "  "+valueMuted.Render(line))
			}
		}
	}
	if dropHere && m.dropIndex >= len(tasks) {
		lines = append(lines, marker)
	}
	if len(tasks) == 0 && !dropHere {
		lines = append(lines, valueMuted.Render("No tasks"))
	}
	return strings.Join(lines, "\n")
}

func wrapDescription(description string, width int) []string {
	if width < 1 {
		return nil
	}
	wrapped := strings.Split(wordwrap.String(internalstrings.NormalizeWhitespace(description), width), "\n")
	if len(wrapped) > maxDescriptionLines {
		wrapped = wrapped[:maxDescriptionLines]
		wrapped[maxDescriptionLines-1] = truncateText(wrapped[maxDescriptionLines-1]+" ...", width)
	}
	for i, line := range wrapped {
		wrapped[i] = truncateText(line, width)
	}
	return wrapped
}

func (m model) renderStatusLine() string {
	if m.board.Highlight() == board.HighlightInvalid {
		return statusErrorStyle.Render("Outside all lanes: dropping here cancels the move")
	}
	if internalstrings.IsBlank(m.status) {
		return ""
	}
	style := valueMuted
	if m.statusLevel == statusInfo {
		style = statusSuccessStyle
	}
	return style.Render(m.status)
}

func (m model) helpSummary() string {
	if m.board.Dialog().Open() {
		return "Keys: tab next field | enter save | esc cancel"
	}
	if m.board.Drag().State == board.DragDragging {
		return "Keys: left/right lane | up/down position | o outside | enter drop | esc cancel"
	}
	return "Keys: arrows move | enter grab | n new | e edit | d delete | r refresh | q quit"
}

func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "...")
}
