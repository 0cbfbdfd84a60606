package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Identity is the logged-in user as returned by the login endpoint.
//
// Raw holds the payload exactly as received; it is what gets persisted.
// ID, Username and Email are parsed from it for convenience.
type Identity struct {
	Raw      json.RawMessage
	ID       int64
	Username string
	Email    string
}

type identityFields struct {
	ID       *json.Number `json:"id"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
}

// ParseIdentity parses a login payload. It fails with ErrInvalidResponse when
// the payload carries no usable id.
func ParseIdentity(raw json.RawMessage) (Identity, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Identity{}, ErrInvalidResponse
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var fields identityFields
	if err := decoder.Decode(&fields); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if fields.ID == nil {
		return Identity{}, ErrInvalidResponse
	}
	id, err := fields.ID.Int64()
	if err != nil || id == 0 {
		return Identity{}, ErrInvalidResponse
	}
	return Identity{
		Raw:      append(json.RawMessage(nil), trimmed...),
		ID:       id,
		Username: fields.Username,
		Email:    fields.Email,
	}, nil
}

// MarshalJSON writes the verbatim payload.
func (i Identity) MarshalJSON() ([]byte, error) {
	if len(i.Raw) == 0 {
		return []byte("null"), nil
	}
	return i.Raw, nil
}
