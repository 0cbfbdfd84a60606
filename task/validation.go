package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amonks/taskboard/internal/validation"
)

var (
	// ErrEmptyTitle is returned when a task title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrTitleTooLong is returned when a task title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("title exceeds maximum length")

	// ErrInvalidStatus is returned when a status outside the three lanes is provided.
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidateTitle checks if the title is valid.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w: %d > %d", ErrTitleTooLong, len(title), MaxTitleLength)
	}
	return nil
}

// ValidateStatus checks that the status names one of the lanes.
func ValidateStatus(status Status) error {
	if !status.IsValid() {
		return validation.FormatInvalidValueError(ErrInvalidStatus, status, ValidStatuses())
	}
	return nil
}

// ParseStatus normalizes user input into a Status.
// Accepts "in-progress" and "in progress" as spellings of in_progress.
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "in-progress", "in progress", "inprogress":
		normalized = string(StatusInProgress)
	}
	status := Status(normalized)
	if err := ValidateStatus(status); err != nil {
		return "", err
	}
	return status, nil
}

// Validate checks the fields the server requires on create and update.
func (r Record) Validate() error {
	if err := ValidateTitle(r.Title); err != nil {
		return err
	}
	return ValidateStatus(r.Status)
}
