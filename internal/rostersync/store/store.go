package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/rostersync/internal/common/eventbus"
	"github.com/tansive/rostersync/internal/common/uuid"
)

// Change is published on the event bus after every dispatch.
type Change struct {
	Seq    uint64    // position of the action in dispatch order, starting at 1
	ID     uuid.UUID // time-ordered id of this dispatch
	Action Action    // the dispatched action
	State  State     // state after the action was applied
}

// Recorder receives every dispatched action in order, e.g. to keep an audit log.
type Recorder interface {
	Record(seq uint64, a Action) error
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics reports dispatches to m.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithRecorder appends every dispatched action to r.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithPublishTimeout bounds how long a dispatch waits on a slow subscriber.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Store) { s.publishTimeout = d }
}

// Store is the single writer of State. Dispatch calls are serialized; each one
// replaces the state wholesale, so a State returned by GetState is never modified.
type Store struct {
	mu             sync.Mutex
	state          State
	seq            uint64
	bus            *eventbus.EventBus
	recorder       Recorder
	metrics        *Metrics
	publishTimeout time.Duration
}

// New creates a store holding initial.
func New(initial State, opts ...Option) *Store {
	s := &Store{
		state:          initial,
		bus:            eventbus.New(),
		publishTimeout: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch folds a into the state, then records and publishes the change.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = ReduceState(s.state, a)
	s.seq++
	change := Change{
		Seq:    s.seq,
		ID:     uuid.New(),
		Action: a,
		State:  s.state,
	}

	if s.recorder != nil {
		if err := s.recorder.Record(change.Seq, a); err != nil {
			log.Error().Err(err).Str("action", a.Type()).Msg("unable to record action")
		}
	}
	s.metrics.observe(a, s.state)
	delivered := s.bus.Publish(Topic(a), change, s.publishTimeout)

	log.Debug().
		Uint64("seq", change.Seq).
		Str("action", a.Type()).
		Int("subscribers", delivered).
		Msg("dispatched")
}

// GetState returns the current state snapshot.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentTenantID returns the active tenant.
func (s *Store) CurrentTenantID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TenantData.CurrentTenantID
}

// Subscribe delivers a Change for every dispatched action whose topic matches
// pattern, e.g. "action.skill.*" or "*". Call the returned function to stop.
func (s *Store) Subscribe(pattern string, bufferSize int) (<-chan eventbus.Event, func()) {
	return s.bus.Subscribe(pattern, bufferSize)
}

// Close ends every subscription.
func (s *Store) Close() {
	s.bus.Shutdown()
}
