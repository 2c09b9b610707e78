package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/observability/metrics"
	"github.com/yourorg/affiliateportal/internal/reliability/circuitbreaker"
)

// DefaultPushDebounce is the delay between the last mutation and the remote
// push it schedules. Every newer mutation resets the window, so a burst of
// edits coalesces into one upsert carrying the final state.
const DefaultPushDebounce = 2 * time.Second

// PushScheduler is the debounced background sync to the remote store. Three
// pieces of state drive it: cloudInitialized (set once, after reconciliation,
// even when the fetch came back empty), bootstrap (true only until the very
// first commit of the process), and a single cancellable timer handle.
//
// A push is armed only when the cloud is initialized and the bootstrap commit
// has passed; this keeps a freshly booted, not-yet-reconciled snapshot from
// being pushed over real remote data. Arming always cancels a pending timer,
// so only the newest state is ever pushed.
type PushScheduler struct {
	mu               sync.Mutex
	remote           domain.RemoteStore
	source           func() *domain.AppState
	breaker          *circuitbreaker.Breaker
	logger           *slog.Logger
	delay            time.Duration
	timer            *time.Timer
	cloudInitialized bool
	bootstrap        bool
	stopped          bool
}

// NewPushScheduler builds a scheduler. source must return the latest
// committed state; it is consulted at timer fire time, not at arm time.
// breaker may be nil.
func NewPushScheduler(remote domain.RemoteStore, source func() *domain.AppState, breaker *circuitbreaker.Breaker, logger *slog.Logger, delay time.Duration) *PushScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultPushDebounce
	}
	return &PushScheduler{
		remote:    remote,
		source:    source,
		breaker:   breaker,
		logger:    logger,
		delay:     delay,
		bootstrap: true,
	}
}

// MarkCloudInitialized records that reconciliation has completed. Called
// exactly once per process, whether or not the remote fetch produced data.
func (p *PushScheduler) MarkCloudInitialized() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cloudInitialized = true
}

// StateCommitted is invoked after every committed mutation. It cancels any
// pending timer, arms a new one when syncing is allowed, and clears the
// bootstrap flag regardless of which branch was taken.
func (p *PushScheduler) StateCommitted() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cloudInitialized && !p.bootstrap && !p.stopped {
		p.timer = time.AfterFunc(p.delay, p.flush)
	}
	p.bootstrap = false
}

// Stop cancels any pending push. Further commits will not arm new timers.
func (p *PushScheduler) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Flush pushes the current state immediately, bypassing the debounce window.
// Used on graceful shutdown so a just-committed mutation is not lost with
// the cancelled timer.
func (p *PushScheduler) Flush() {
	p.mu.Lock()
	allowed := p.cloudInitialized && !p.bootstrap
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	if allowed {
		p.flush()
	}
}

func (p *PushScheduler) flush() {
	st := p.source()
	if st.Degenerate() {
		p.logger.Warn("skipping remote push of degenerate state",
			slog.Int("users", len(st.Users)),
		)
		metrics.ObservePushSkip("degenerate")
		return
	}
	if p.breaker != nil && !p.breaker.AllowRequest() {
		p.logger.Warn("skipping remote push, circuit open")
		metrics.ObservePushSkip("circuit_open")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.remote.Upsert(ctx, st.ForRemote()); err != nil {
		if p.breaker != nil {
			p.breaker.RecordFailure()
		}
		p.logger.Warn("remote push failed, will retry on next mutation",
			slog.String("error", err.Error()),
		)
		metrics.ObservePush("error")
		return
	}
	if p.breaker != nil {
		p.breaker.RecordSuccess()
	}
	metrics.ObservePush("success")
	p.logger.Debug("remote push completed", slog.Int("users", len(st.Users)))
}
