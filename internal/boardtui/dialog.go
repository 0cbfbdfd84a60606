package boardtui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amonks/taskboard/board"
	"github.com/amonks/taskboard/task"
)

type dialogField int

const (
	fieldTitle dialogField = iota
	fieldDescription
	fieldStatus
	fieldCount
)

// dialogModel edits the board's dialog buffer. Values are pushed back to the
// board after every keystroke so the board stays the source of truth.
type dialogModel struct {
	mode        board.DialogMode
	title       textinput.Model
	description textarea.Model
	status      task.Status
	focus       dialogField
	width       int
}

func newDialogModel() dialogModel {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = task.MaxTitleLength
	title.Prompt = ""

	description := textarea.New()
	description.Placeholder = "Description"
	description.ShowLineNumbers = false
	description.SetHeight(4)

	return dialogModel{
		title:       title,
		description: description,
		status:      task.StatusTodo,
		width:       50,
	}
}

// load copies the board dialog into the inputs.
func (d *dialogModel) load(dialog board.Dialog) {
	d.mode = dialog.Mode
	switch {
	case dialog.Mode == board.DialogEdit && dialog.Current != nil:
		d.title.SetValue(dialog.Current.Title)
		d.description.SetValue(dialog.Current.Description)
		d.status = dialog.Current.Status
	default:
		d.title.SetValue(dialog.Draft.Title)
		d.description.SetValue(dialog.Draft.Description)
		d.status = dialog.Draft.Status
	}
	if !d.status.IsValid() {
		d.status = task.StatusTodo
	}
	d.setFocus(fieldTitle)
}

func (d *dialogModel) setWidth(width int) {
	inner := width - 10
	if inner > 60 {
		inner = 60
	}
	if inner < 20 {
		inner = 20
	}
	d.width = inner
	d.title.Width = inner
	d.description.SetWidth(inner)
}

func (d *dialogModel) setFocus(field dialogField) {
	d.focus = field
	d.title.Blur()
	d.description.Blur()
	switch field {
	case fieldTitle:
		d.title.Focus()
	case fieldDescription:
		d.description.Focus()
	}
}

func (d *dialogModel) cycleStatus(step int) {
	statuses := task.ValidStatuses()
	index := 0
	for i, status := range statuses {
		if status == d.status {
			index = i
		}
	}
	index = (index + step + len(statuses)) % len(statuses)
	d.status = statuses[index]
}

// update handles a key inside the dialog. It reports whether the user asked
// to submit or to close.
func (d *dialogModel) update(msg tea.Msg) (cmd tea.Cmd, submit, cancel bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return d.forward(msg), false, false
	}
	switch key.String() {
	case "esc":
		return nil, false, true
	case "ctrl+s":
		return nil, true, false
	case "tab":
		d.setFocus((d.focus + 1) % fieldCount)
		return nil, false, false
	case "shift+tab", "backtab":
		d.setFocus((d.focus + fieldCount - 1) % fieldCount)
		return nil, false, false
	case "enter":
		if d.focus != fieldDescription {
			return nil, true, false
		}
	}
	if d.focus == fieldStatus {
		switch key.String() {
		case "left", "h", "up", "k":
			d.cycleStatus(-1)
		case "right", "l", "down", "j", " ":
			d.cycleStatus(1)
		}
		return nil, false, false
	}
	return d.forward(msg), false, false
}

func (d *dialogModel) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch d.focus {
	case fieldTitle:
		d.title, cmd = d.title.Update(msg)
	case fieldDescription:
		d.description, cmd = d.description.Update(msg)
	}
	return cmd
}

// push writes the inputs back into the board's dialog.
func (d dialogModel) push(b *board.Board) {
	title := strings.TrimSpace(d.title.Value())
	switch d.mode {
	case board.DialogCreate:
		b.SetDraft(task.Draft{Title: title, Description: d.description.Value(), Status: d.status})
	case board.DialogEdit:
		b.SetCurrent(task.Task{Title: title, Description: d.description.Value(), Status: d.status})
	}
}

func (d dialogModel) heading() string {
	if d.mode == board.DialogEdit {
		return "Edit Task"
	}
	return "Create New Task"
}

func (d dialogModel) view() string {
	label := func(field dialogField, text string) string {
		if d.focus == field {
			return labelActiveStyle.Render(text)
		}
		return labelStyle.Render(text)
	}

	statuses := make([]string, 0, len(task.ValidStatuses()))
	for _, status := range task.ValidStatuses() {
		if status == d.status {
			statuses = append(statuses, fmt.Sprintf("[%s]", status.Label()))
		} else {
			statuses = append(statuses, fmt.Sprintf(" %s ", status.Label()))
		}
	}

	lines := []string{
		labelStyle.Render(d.heading()),
		"",
		label(fieldTitle, "Title"),
		d.title.View(),
		"",
		label(fieldDescription, "Description"),
		d.description.View(),
		"",
		label(fieldStatus, "Status"),
		strings.Join(statuses, " "),
		"",
		valueMuted.Render("tab next field | enter/ctrl+s save | esc cancel"),
	}
	return dialogStyle.Width(d.width + 6).Render(strings.Join(lines, "\n"))
}
