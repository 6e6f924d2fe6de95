package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/alexanderramin/boardsync/internal/storage"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrFileNotFound     = errors.New("backup file not found")
)

// Drive is a remote file store behind an explicit sign-in step.
type Drive interface {
	Init(ctx context.Context) error
	RequestAccess(ctx context.Context) error
	IsAuthenticated() bool
	Upload(ctx context.Context, name string, data []byte) error
	// Download returns ErrFileNotFound for a missing file.
	Download(ctx context.Context, name string) ([]byte, error)
	SignOut()
}

// HTTPDrive keeps files on a boardsync document server.
type HTTPDrive struct {
	store *storage.HTTPDocStore

	mu     sync.Mutex
	authed bool
}

func NewHTTPDrive(store *storage.HTTPDocStore) *HTTPDrive {
	return &HTTPDrive{store: store}
}

// Init checks that the server answers.
func (d *HTTPDrive) Init(ctx context.Context) error {
	resp, err := d.store.Do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return fmt.Errorf("reaching drive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reaching drive: %s", resp.Status)
	}
	return nil
}

// RequestAccess signs in with the configured shared secret.
func (d *HTTPDrive) RequestAccess(ctx context.Context) error {
	if _, err := d.store.Token(ctx); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	d.mu.Lock()
	d.authed = true
	d.mu.Unlock()
	return nil
}

func (d *HTTPDrive) IsAuthenticated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authed
}

func (d *HTTPDrive) SignOut() {
	d.mu.Lock()
	d.authed = false
	d.mu.Unlock()
}

func filePath(name string) string {
	return "/api/files/" + url.PathEscape(name)
}

func (d *HTTPDrive) Upload(ctx context.Context, name string, data []byte) error {
	if !d.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	resp, err := d.store.Do(ctx, http.MethodPut, filePath(name), data)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("uploading %s: %s", name, resp.Status)
	}
	return nil
}

func (d *HTTPDrive) Download(ctx context.Context, name string) ([]byte, error) {
	if !d.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	resp, err := d.store.Do(ctx, http.MethodGet, filePath(name), nil)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", name, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
	default:
		return nil, fmt.Errorf("downloading %s: %s", name, resp.Status)
	}
}
