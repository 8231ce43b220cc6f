package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/schemas"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

// listConcurrency bounds how many session files List reads at once.
const listConcurrency = 8

// File persists one JSON document per session under a directory. Writes go
// through a temp file and rename so a crash never leaves a partial record,
// and records are validated against the session schema on load.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates a file store rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

// Load retrieves a session by identifier.
func (f *File) Load(_ context.Context, id string) (*types.Session, error) {
	path, err := f.path(id)
	if err != nil {
		return nil, err
	}
	return readSessionFile(path, id)
}

// Save persists the session under an optimistic version check. The check and
// the write are serialized per store, and the write itself is atomic.
func (f *File) Save(_ context.Context, session *types.Session, expectedVersion int64) error {
	path, err := f.path(session.ID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	current := int64(0)
	if existing, err := readSessionFile(path, session.ID); err == nil {
		current = existing.Version
	} else if _, notFound := err.(*NotFoundError); !notFound {
		return err
	}
	if current != expectedVersion {
		return &StaleWriteError{ID: session.ID, Expected: expectedVersion, Actual: current}
	}

	session.Version = expectedVersion + 1
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		session.Version = expectedVersion
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+session.ID+"-*.tmp")
	if err != nil {
		session.Version = expectedVersion
		return fmt.Errorf("failed to create temp file for session %s: %w", session.ID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		session.Version = expectedVersion
		return fmt.Errorf("failed to write session %s: %w", session.ID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		session.Version = expectedVersion
		return fmt.Errorf("failed to close temp file for session %s: %w", session.ID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		session.Version = expectedVersion
		return fmt.Errorf("failed to persist session %s: %w", session.ID, err)
	}
	return nil
}

// List reads every session file in the directory concurrently and returns
// the sessions ordered by identifier.
func (f *File) List(ctx context.Context) ([]*types.Session, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory %s: %w", f.dir, err)
	}

	var (
		mu       sync.Mutex
		sessions []*types.Session
	)
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		g.Go(func() error {
			session, err := readSessionFile(filepath.Join(f.dir, name), id)
			if err != nil {
				return err
			}
			mu.Lock()
			sessions = append(sessions, session)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

func (f *File) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(f.dir, id+".json"), nil
}

func readSessionFile(path, id string) (*types.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	if err := schemas.ValidateSessionRecord(data); err != nil {
		return nil, fmt.Errorf("session record %s is invalid: %w", id, err)
	}

	var session types.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	return &session, nil
}
