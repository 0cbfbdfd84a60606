package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is an error reported by the backend in an HTTP response.
type Error struct {
	StatusCode int
	// Status is the HTTP status line, e.g. "404 Not Found".
	Status string
	// Detail is the server's message. Empty when the response carried none.
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend error: %s", e.Message())
}

// Message returns Detail, falling back to the HTTP status.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the HTTP status of a backend error, or 0 when err did not
// come from a backend response.
func StatusCode(err error) int {
	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func readErrorResponse(resp *http.Response) error {
	detail := ""
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		detail = detailFromPayload(payload)
	}
	return &Error{StatusCode: resp.StatusCode, Status: resp.Status, Detail: detail}
}

func detailFromPayload(payload map[string]json.RawMessage) string {
	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		// Validation failures carry a list of {"msg": ...} entries.
		var entries []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &entries); err == nil {
			messages := make([]string, 0, len(entries))
			for _, entry := range entries {
				if entry.Msg != "" {
					messages = append(messages, entry.Msg)
				}
			}
			if len(messages) > 0 {
				return strings.Join(messages, "; ")
			}
		}
	}
	return ""
}
