package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/reliability/retry"
)

// ErrDegenerateState refuses an upsert whose users list holds no real
// affiliate. A freshly booted, not-yet-reconciled client must never erase a
// populated remote document with its bootstrap seed.
var ErrDegenerateState = fmt.Errorf("refusing to push degenerate state")

const remoteOpTimeout = 5 * time.Second

// PostgresRemoteStore implements domain.RemoteStore against one row of a
// remote table, keyed by a fixed document id:
//
//	app_documents(id TEXT PRIMARY KEY, payload JSONB, updated_at TIMESTAMPTZ)
//
// Everything here is best-effort. Fetch degrades to nil; Upsert failures are
// logged and reported to the scheduler's breaker, never to users.
type PostgresRemoteStore struct {
	db     *sql.DB
	docID  string
	logger *slog.Logger
}

// NewPostgresRemoteStore connects to the remote table. A failed initial ping
// is not fatal; the portal runs cache-only and the scheduler keeps probing.
func NewPostgresRemoteStore(dsn, docID string, logger *slog.Logger) (*PostgresRemoteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if docID == "" {
		docID = "portal-main"
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote store: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRemoteStore{db: db, docID: docID, logger: logger}, nil
}

// EnsureSchema creates the document table when it does not exist. Called from
// operator tooling and server boot; failure only means Fetch/Upsert degrade.
func (r *PostgresRemoteStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS app_documents (
		id         TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to ensure remote schema: %w", err)
	}
	return nil
}

// Fetch point-reads the document. Any transport error, missing table, missing
// row, or undecodable payload yields nil; the error never crosses this
// boundary. Transient failures are retried with backoff because this runs
// once per boot and decides whether reconciliation has data to work with.
func (r *PostgresRemoteStore) Fetch(ctx context.Context) *domain.AppState {
	st, err := retry.Do(ctx, retry.DefaultConfig(), r.logger, "remote fetch",
		func(ctx context.Context) (*domain.AppState, error) {
			return r.fetchOnce(ctx)
		})
	if err != nil {
		r.logger.Warn("remote fetch failed, running cache-only", slog.String("error", err.Error()))
		return nil
	}
	return st
}

func (r *PostgresRemoteStore) fetchOnce(ctx context.Context) (*domain.AppState, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
	defer cancel()

	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM app_documents WHERE id = $1`, r.docID).Scan(&payload)
	if err == sql.ErrNoRows {
		// No document yet: not an error, just nothing to reconcile.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("point lookup failed: %w", err)
	}

	var st domain.AppState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("remote payload undecodable: %w", err)
	}
	// The remote document never carries a session pointer; enforce it on the
	// way in so a tampered row cannot hijack the local session.
	st.CurrentUserID = ""
	return &st, nil
}

// Upsert writes the document with last-writer-wins semantics. Degenerate
// documents are refused. The returned error is for the scheduler's breaker
// accounting only; callers never retry synchronously.
func (r *PostgresRemoteStore) Upsert(ctx context.Context, state *domain.AppState) error {
	if state.Degenerate() {
		r.logger.Warn("degenerate document reached the remote adapter, refusing upsert")
		return ErrDegenerateState
	}

	payload, err := json.Marshal(state.ForRemote())
	if err != nil {
		r.logger.Error("remote payload marshal failed", slog.String("error", err.Error()))
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
	defer cancel()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO app_documents (id, payload, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		r.docID, payload, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Warn("remote upsert failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// HealthCheck is a lightweight read for operator tooling. It is never part
// of the data path.
func (r *PostgresRemoteStore) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx) == nil
}

// Close releases the connection pool.
func (r *PostgresRemoteStore) Close() error {
	return r.db.Close()
}
