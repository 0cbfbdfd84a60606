package ui

import (
	"os"

	"golang.org/x/term"

	"github.com/amonks/taskboard/task"
)

const (
	ansiBold   = "\x1b[1m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiGreen  = "\x1b[32m"
	ansiReset  = "\x1b[0m"
)

// StatusLabel returns the lane label for status, colored when stdout is a
// terminal that accepts color.
func StatusLabel(status task.Status) string {
	label := status.Label()
	if !ansiEnabled() {
		return label
	}
	return colorize(status, label)
}

func colorize(status task.Status, label string) string {
	switch status {
	case task.StatusTodo:
		return ansiBold + ansiYellow + label + ansiReset
	case task.StatusInProgress:
		return ansiBold + ansiBlue + label + ansiReset
	case task.StatusDone:
		return ansiBold + ansiGreen + label + ansiReset
	default:
		return label
	}
}

func ansiEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
