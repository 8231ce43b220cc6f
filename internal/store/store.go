// Package store provides session persistence behind a single interface so the
// storage technology (memory, file, Postgres) is swappable without touching
// the engine. Saves carry an expected version; a mismatch fails with a stale
// write error instead of silently losing an update.
package store

import (
	"context"
	"fmt"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

// NotFoundError indicates no session exists for the identifier.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// StaleWriteError indicates a concurrent update won: the stored version no
// longer matches the version the caller loaded. The caller must reload and
// retry the turn.
type StaleWriteError struct {
	ID       string
	Expected int64
	Actual   int64
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("stale write for session %s: expected version %d, stored version %d", e.ID, e.Expected, e.Actual)
}

// Store persists sessions. Implementations must make Save atomic per session
// identifier: the expected-version check and the write happen as one step.
type Store interface {
	// Load retrieves a session by identifier; *NotFoundError if absent.
	Load(ctx context.Context, id string) (*types.Session, error)
	// Save persists the session if the stored version still equals
	// expectedVersion (0 for a new session), then sets session.Version to
	// expectedVersion+1. *StaleWriteError on a version mismatch.
	Save(ctx context.Context, session *types.Session, expectedVersion int64) error
	// List returns all sessions ordered by identifier.
	List(ctx context.Context) ([]*types.Session, error)
}
