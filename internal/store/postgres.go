package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

// Postgres persists sessions as JSONB documents with a version column
// enforcing the optimistic concurrency check in SQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool to the database and ensures
// the sessions table exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS discovery_sessions (
		   id         TEXT PRIMARY KEY,
		   document   JSONB NOT NULL,
		   version    BIGINT NOT NULL,
		   updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`,
	)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

// Load retrieves a session by identifier.
func (p *Postgres) Load(ctx context.Context, id string) (*types.Session, error) {
	var document []byte
	err := p.pool.QueryRow(ctx,
		`SELECT document FROM discovery_sessions WHERE id = $1`,
		id,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var session types.Session
	if err := json.Unmarshal(document, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	return &session, nil
}

// Save persists the session. The version predicate in the statement makes the
// check-and-write atomic; zero rows affected means a concurrent writer won.
func (p *Postgres) Save(ctx context.Context, session *types.Session, expectedVersion int64) error {
	session.Version = expectedVersion + 1
	document, err := json.Marshal(session)
	if err != nil {
		session.Version = expectedVersion
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}

	if expectedVersion == 0 {
		tag, err := p.pool.Exec(ctx,
			`INSERT INTO discovery_sessions (id, document, version)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO NOTHING`,
			session.ID, document, session.Version,
		)
		if err != nil {
			session.Version = expectedVersion
			return fmt.Errorf("failed to insert session %s: %w", session.ID, err)
		}
		if tag.RowsAffected() == 0 {
			session.Version = expectedVersion
			return p.staleError(ctx, session.ID, expectedVersion)
		}
		return nil
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE discovery_sessions
		 SET document = $2, version = $3, updated_at = NOW()
		 WHERE id = $1 AND version = $4`,
		session.ID, document, session.Version, expectedVersion,
	)
	if err != nil {
		session.Version = expectedVersion
		return fmt.Errorf("failed to update session %s: %w", session.ID, err)
	}
	if tag.RowsAffected() == 0 {
		session.Version = expectedVersion
		return p.staleError(ctx, session.ID, expectedVersion)
	}
	return nil
}

// List returns all sessions ordered by identifier.
func (p *Postgres) List(ctx context.Context) ([]*types.Session, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT document FROM discovery_sessions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*types.Session
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, err
		}
		var session types.Session
		if err := json.Unmarshal(document, &session); err != nil {
			return nil, fmt.Errorf("failed to parse session document: %w", err)
		}
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}

func (p *Postgres) staleError(ctx context.Context, id string, expected int64) error {
	var actual int64
	err := p.pool.QueryRow(ctx,
		`SELECT version FROM discovery_sessions WHERE id = $1`,
		id,
	).Scan(&actual)
	if err != nil {
		actual = -1
	}
	return &StaleWriteError{ID: id, Expected: expected, Actual: actual}
}
