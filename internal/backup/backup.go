// Package backup exports and restores full board snapshots, either as a
// single downloadable file or as a set of files on a remote drive.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/state"
	"github.com/alexanderramin/boardsync/internal/validate"
)

// ErrInvalidBackup rejects a backup file as a whole.
var ErrInvalidBackup = errors.New("invalid backup file")

// TimestampLayout is the UTC layout of BackupFile.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Stores are the states captured by a backup.
type Stores struct {
	Board *state.BoardStore
	Users *state.UserStore
	Prefs *state.Preferences
}

// Export snapshots every store.
func Export(s Stores, now time.Time) domain.BackupFile {
	return domain.BackupFile{
		Version:   domain.BackupVersion,
		Timestamp: now.UTC().Format(TimestampLayout),
		Board:     s.Board.Snapshot(),
		Users:     s.Users.Snapshot(),
		Settings:  s.Prefs.Settings(),
	}
}

// FileName is the suggested name of a backup downloaded at now.
func FileName(now time.Time) string {
	return "boardsync-backup-" + now.UTC().Format("2006-01-02") + ".json"
}

// Write encodes f as indented JSON.
func Write(w io.Writer, f domain.BackupFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

// Read decodes and validates a backup file. Board and users must both be
// present and well-formed; settings are optional.
func Read(r io.Reader) (domain.BackupFile, error) {
	var raw struct {
		Version   string           `json:"version"`
		Timestamp string           `json:"timestamp"`
		Board     json.RawMessage  `json:"board"`
		Users     json.RawMessage  `json:"users"`
		Settings  *domain.Settings `json:"settings"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return domain.BackupFile{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if len(raw.Board) == 0 || len(raw.Users) == 0 {
		return domain.BackupFile{}, fmt.Errorf("%w: board and users are required", ErrInvalidBackup)
	}
	b, err := validate.DecodeBoard(raw.Board)
	if err != nil {
		return domain.BackupFile{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	u, err := validate.DecodeRoster(raw.Users)
	if err != nil {
		return domain.BackupFile{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	f := domain.BackupFile{
		Version:   raw.Version,
		Timestamp: raw.Timestamp,
		Board:     *b,
		Users:     *u,
	}
	if raw.Settings != nil {
		f.Settings = *raw.Settings
	}
	return f, nil
}

// Restore reads a backup and, only when all of it is valid, replaces the
// board, users and settings with its contents.
func Restore(s Stores, r io.Reader) error {
	f, err := Read(r)
	if err != nil {
		return err
	}
	Apply(s, f)
	return nil
}

// Apply replaces the stores' contents with f.
func Apply(s Stores, f domain.BackupFile) {
	b := f.Board.Clone()
	validate.MigrateBoard(&b)
	s.Board.SetBoardState(b)
	s.Users.SetRoster(f.Users)
	s.Prefs.ApplySettings(f.Settings)
}
