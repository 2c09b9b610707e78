package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/yourorg/affiliateportal/internal/domain"
	redisinfra "github.com/yourorg/affiliateportal/internal/infrastructure/redis"
	"github.com/yourorg/affiliateportal/internal/reliability/retry"
)

// RedisRemoteStore implements domain.RemoteStore on a single Redis key.
// Deployments without a Postgres remote can point two portal instances at a
// shared Redis instead; the semantics are the same unversioned
// last-writer-wins document.
type RedisRemoteStore struct {
	client *redisinfra.Client
	key    string
	logger *slog.Logger
}

// NewRedisRemoteStore keys the document under "portal:document:<docID>".
func NewRedisRemoteStore(client *redisinfra.Client, docID string, logger *slog.Logger) *RedisRemoteStore {
	if logger == nil {
		logger = slog.Default()
	}
	if docID == "" {
		docID = "portal-main"
	}
	return &RedisRemoteStore{
		client: client,
		key:    fmt.Sprintf("portal:document:%s", docID),
		logger: logger,
	}
}

// Fetch reads and decodes the document, degrading to nil on any failure.
func (r *RedisRemoteStore) Fetch(ctx context.Context) *domain.AppState {
	st, err := retry.Do(ctx, retry.DefaultConfig(), r.logger, "remote fetch",
		func(ctx context.Context) (*domain.AppState, error) {
			ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
			defer cancel()

			payload, err := r.client.Get(ctx, r.key)
			if redisinfra.IsMissing(err) {
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("document read failed: %w", err)
			}
			var st domain.AppState
			if err := json.Unmarshal(payload, &st); err != nil {
				return nil, fmt.Errorf("remote payload undecodable: %w", err)
			}
			st.CurrentUserID = ""
			return &st, nil
		})
	if err != nil {
		r.logger.Warn("remote fetch failed, running cache-only", slog.String("error", err.Error()))
		return nil
	}
	return st
}

// Upsert overwrites the document key, refusing degenerate states.
func (r *RedisRemoteStore) Upsert(ctx context.Context, state *domain.AppState) error {
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
	if err := r.client.Set(ctx, r.key, payload); err != nil {
		r.logger.Warn("remote upsert failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// HealthCheck pings the Redis instance.
func (r *RedisRemoteStore) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.client.Ping(ctx) == nil
}
