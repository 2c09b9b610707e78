package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/observability/metrics"
)

// Event describes one committed mutation. Subscribers (the admin event feed)
// receive events after the snapshot has been persisted.
type Event struct {
	Op    string    `json:"op"`
	At    time.Time `json:"at"`
	Users int       `json:"users"`
}

// Store owns the shared application document. Every mutation in the system
// goes through Update, the single legal write path, which applies the
// mutation to a clone, swaps it in on success, persists the snapshot
// synchronously, and only then arms the push scheduler. Reads get a deep copy
// so callers can never alias live state.
type Store struct {
	mu        sync.Mutex
	state     *domain.AppState
	snapshots domain.SnapshotStore
	scheduler *PushScheduler
	logger    *slog.Logger

	reconciled bool

	subsMu sync.Mutex
	subs   map[chan Event]struct{}
}

// New loads the store from the local snapshot, falling back to the given
// seed document when the snapshot is absent or unreadable. The seed fallback
// is persisted immediately so the next boot reads it back.
func New(snapshots domain.SnapshotStore, seed *domain.AppState, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	st, ok := snapshots.Load()
	if !ok {
		logger.Info("no usable local snapshot, starting from seed state")
		st = seed
		snapshots.Save(st)
	} else {
		logger.Info("local snapshot loaded",
			slog.Int("users", len(st.Users)),
			slog.Int("withdrawals", len(st.Withdrawals)),
		)
	}

	return &Store{
		state:     st,
		snapshots: snapshots,
		logger:    logger,
		subs:      map[chan Event]struct{}{},
	}
}

// AttachScheduler wires the push scheduler. Kept separate from New because
// the scheduler needs the store as its state source.
func (s *Store) AttachScheduler(p *PushScheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler = p
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to a clone of the document and commits the clone if fn
// succeeds. On failure nothing is observed externally: no swap, no snapshot
// write, no scheduler arm. On success the local snapshot is written before
// any network activity is scheduled.
func (s *Store) Update(op string, fn func(*domain.AppState) error) error {
	s.mu.Lock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		metrics.ObserveMutation(op, "rejected")
		return err
	}

	s.state = next
	s.snapshots.Save(next)
	scheduler := s.scheduler
	users := len(next.Users)
	s.mu.Unlock()

	metrics.ObserveMutation(op, "committed")
	if scheduler != nil {
		scheduler.StateCommitted()
	}
	s.publish(Event{Op: op, At: time.Now().UTC(), Users: users})
	return nil
}

// Reconcile merges a freshly fetched remote document into the live state.
// It runs at most once per process lifetime; later calls are no-ops. The
// merged result is committed to the local snapshot only; reconciliation
// never triggers a remote push. Even a nil remote (fetch failed or document
// missing) marks the cloud as initialized so subsequent mutations may sync.
func (s *Store) Reconcile(remote *domain.AppState) {
	s.mu.Lock()
	if s.reconciled {
		s.mu.Unlock()
		return
	}
	s.reconciled = true

	if remote != nil {
		merged := Merge(s.state, remote)
		s.state = merged
		s.snapshots.Save(merged)
		s.logger.Info("remote snapshot reconciled",
			slog.Int("users", len(merged.Users)),
			slog.Int("referrals", len(merged.Referrals)),
		)
		metrics.ObserveReconcile("merged")
	} else {
		s.logger.Warn("reconciliation ran without remote data, staying on local state")
		metrics.ObserveReconcile("local_only")
	}
	scheduler := s.scheduler
	s.mu.Unlock()

	if scheduler != nil {
		scheduler.MarkCloudInitialized()
	}
}

// Subscribe registers a mutation-event listener. The returned cancel func
// must be called to release the channel. Slow subscribers drop events rather
// than blocking the write path.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	cancel := func() {
		s.subsMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subsMu.Unlock()
	}
	return ch, cancel
}

func (s *Store) publish(ev Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
