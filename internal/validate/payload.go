// Package validate decides whether board and user payloads are structurally
// plausible and whether applying one would wipe existing data.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/boardsync/internal/domain"
)

var (
	// ErrInvalidBoard indicates a payload without the tasks/columns/columnOrder triple.
	ErrInvalidBoard = errors.New("invalid board payload")

	// ErrInvalidUsers indicates a payload without a users map.
	ErrInvalidUsers = errors.New("invalid user payload")
)

// IsValidBoard reports whether b carries all three board containers.
// Empty containers are valid: a freshly initialised board is empty.
func IsValidBoard(b *domain.Board) bool {
	return b != nil && b.Tasks != nil && b.Columns != nil && b.ColumnOrder != nil
}

// IsValidRoster reports whether r carries a users map.
func IsValidRoster(r *domain.Roster) bool {
	return r != nil && r.Users != nil
}

// WouldLoseData reports whether replacing current with incoming must be
// blocked. Only two cases block: an incoming payload that is missing or
// malformed, and a full wipe (no tasks and no columns) of a board that has
// at least one task and one column. Emptying only the tasks is allowed.
func WouldLoseData(current domain.Board, incoming *domain.Board) bool {
	if !IsValidBoard(incoming) {
		return true
	}
	currentHasContent := len(current.Tasks) > 0 && len(current.Columns) > 0
	return currentHasContent && incoming.IsEmpty()
}

type containerKind byte

const (
	kindObject containerKind = '{'
	kindArray  containerKind = '['
)

var (
	boardShape = map[string]containerKind{
		"tasks":       kindObject,
		"columns":     kindObject,
		"columnOrder": kindArray,
	}
	rosterShape = map[string]containerKind{
		"users": kindObject,
	}
)

// CheckBoardJSON verifies that raw is a JSON object holding tasks and
// columns objects and a columnOrder array.
func CheckBoardJSON(raw []byte) error {
	if err := checkShape(raw, boardShape); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	return nil
}

// CheckRosterJSON verifies that raw is a JSON object holding a users object.
func CheckRosterJSON(raw []byte) error {
	if err := checkShape(raw, rosterShape); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUsers, err)
	}
	return nil
}

// DecodeBoard checks the raw shape and decodes it.
func DecodeBoard(raw []byte) (*domain.Board, error) {
	if err := CheckBoardJSON(raw); err != nil {
		return nil, err
	}
	var b domain.Board
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	return &b, nil
}

// DecodeRoster checks the raw shape and decodes it.
func DecodeRoster(raw []byte) (*domain.Roster, error) {
	if err := CheckRosterJSON(raw); err != nil {
		return nil, err
	}
	var r domain.Roster
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUsers, err)
	}
	return &r, nil
}

func checkShape(raw []byte, shape map[string]containerKind) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || containerKind(trimmed[0]) != kindObject {
		return errors.New("not a JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}
	for key, want := range shape {
		val, ok := fields[key]
		if !ok {
			return fmt.Errorf("missing %q", key)
		}
		v := bytes.TrimSpace(val)
		if len(v) == 0 || containerKind(v[0]) != want {
			return fmt.Errorf("%q has the wrong type", key)
		}
	}
	return nil
}
