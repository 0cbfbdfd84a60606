package board

import (
	"context"
	"errors"

	"github.com/amonks/taskboard/task"
)

// ErrDialogClosed is returned when submitting a closed dialog.
var ErrDialogClosed = errors.New("dialog is not open")

// DialogMode is the state of the create/edit dialog.
type DialogMode int

const (
	DialogClosed DialogMode = iota
	DialogCreate
	DialogEdit
)

func (m DialogMode) String() string {
	switch m {
	case DialogCreate:
		return "create"
	case DialogEdit:
		return "edit"
	default:
		return "closed"
	}
}

// Dialog is a snapshot of the dialog state.
type Dialog struct {
	Mode DialogMode
	// Editing is set exactly when Mode is DialogEdit.
	Editing bool
	// Current is the task being edited: a copy, never an element of the list.
	Current *task.Task
	// Draft is the creation buffer.
	Draft task.Draft
}

// Open reports whether the dialog is showing.
func (d Dialog) Open() bool {
	return d.Mode != DialogClosed
}

func closedDialog() Dialog {
	return Dialog{Mode: DialogClosed, Draft: task.EmptyDraft()}
}

func (d Dialog) clone() Dialog {
	if d.Current != nil {
		current := *d.Current
		d.Current = &current
	}
	return d
}

// Dialog returns a copy of the dialog state.
func (b *Board) Dialog() Dialog {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dialog.clone()
}

// OpenCreate opens the dialog in create mode with an empty draft.
func (b *Board) OpenCreate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialog = Dialog{Mode: DialogCreate, Draft: task.EmptyDraft()}
}

// OpenEdit opens the dialog in edit mode on a copy of task id. It reports
// false, leaving the dialog alone, when the task is not in the list.
func (b *Board) OpenEdit(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := task.Find(b.tasks, id)
	if !ok {
		return false
	}
	b.dialog = Dialog{Mode: DialogEdit, Editing: true, Current: &item, Draft: b.dialog.Draft}
	return true
}

// SetDraft replaces the creation buffer.
func (b *Board) SetDraft(draft task.Draft) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialog.Draft = draft
}

// SetCurrent replaces the task being edited. It does nothing unless the
// dialog is in edit mode.
func (b *Board) SetCurrent(item task.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dialog.Mode != DialogEdit || b.dialog.Current == nil {
		return
	}
	item.ID = b.dialog.Current.ID
	b.dialog.Current = &item
}

// Close closes the dialog, whatever its mode, clearing the edit flag, the
// current task and the creation buffer.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialog = closedDialog()
}

// Submit sends the dialog: a create in create mode, a full update in edit
// mode. On success the dialog closes and the list is refetched. On failure
// the dialog stays open and unchanged.
func (b *Board) Submit(ctx context.Context) error {
	dialog := b.Dialog()
	var err error
	switch dialog.Mode {
	case DialogCreate:
		_, err = b.create(ctx, dialog.Draft)
	case DialogEdit:
		if dialog.Current == nil {
			return ErrDialogClosed
		}
		_, err = b.update(ctx, *dialog.Current)
	default:
		return ErrDialogClosed
	}
	if err != nil {
		return err
	}
	b.Close()
	_ = b.Refetch(ctx)
	return nil
}
