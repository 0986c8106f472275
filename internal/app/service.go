package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jaminalder/codex-arcade/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound   = errors.New("session not found")
	ErrGameOver   = errors.New("game over")
	ErrLockedCell = errors.New("cell is a clue")
	ErrNoHints    = errors.New("no hints remaining")
)

// ErrNoSnapshot is returned by a Store when no snapshot exists for an ID.
var ErrNoSnapshot = errors.New("snapshot not found")

// Store persists session snapshots keyed by session ID.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// MergeState is the in-memory state tracked per merge session.
type MergeState struct {
	ID      string
	Grid    domain.MergeGrid
	Score   int
	Best    int
	Over    bool
	Created time.Time
	Updated time.Time
}

// PlacementState is the in-memory state tracked per placement session.
// Puzzle is immutable for the session's lifetime; Working is the
// player's mutable grid, seeded from the clues.
type PlacementState struct {
	ID         string
	Puzzle     domain.PuzzleInstance
	Working    domain.ConstraintGrid
	Difficulty domain.Difficulty
	Mistakes   int
	HintsLeft  int
	ElapsedSec int
	Created    time.Time
	Updated    time.Time
}

// PairsState is the in-memory state tracked per memory session.
type PairsState struct {
	ID      string
	Game    *domain.PairsGame
	Created time.Time
	Updated time.Time
}

func (st *PairsState) clone() *PairsState {
	cp := *st
	g := *st.Game
	g.Symbols = append([]int(nil), st.Game.Symbols...)
	g.States = append([]domain.PairsCellState(nil), st.Game.States...)
	g.Open = append([]int(nil), st.Game.Open...)
	cp.Game = &g
	return &cp
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Renderers turn session state into broadcast payloads for subscribers.
// A nil renderer disables broadcasting for that kind.
type Renderers struct {
	Merge     func(MergeState) []byte
	Placement func(PlacementState) []byte
	Pairs     func(PairsState) []byte
}

// Service manages game sessions, their persistence, and subscribers.
type Service struct {
	mu        sync.Mutex
	merge     map[string]*MergeState
	placement map[string]*PlacementState
	pairs     map[string]*PairsState
	subs      map[string]map[*subscriber]struct{}
	render    Renderers
	store     Store
	rng       domain.RandomSource
}

// Option configures a Service.
type Option func(*Service)

// WithStore makes the service persist sessions to the given store.
func WithStore(store Store) Option {
	return func(s *Service) { s.store = store }
}

// WithRandomSource replaces the default time-seeded randomness, making
// the service deterministic under test.
func WithRandomSource(rs domain.RandomSource) Option {
	return func(s *Service) { s.rng = rs }
}

// NewService creates a service. Without options it has no persistence
// and uses time-seeded randomness.
func NewService(opts ...Option) *Service {
	s := &Service{
		merge:     make(map[string]*MergeState),
		placement: make(map[string]*PlacementState),
		pairs:     make(map[string]*PairsState),
		subs:      make(map[string]map[*subscriber]struct{}),
		rng:       domain.NewRand(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRenderers replaces the broadcast renderer functions.
func (s *Service) SetRenderers(r Renderers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render = r
}

// persistLocked saves a snapshot if a store is configured.
func (s *Service) persistLocked(ctx context.Context, snap Snapshot) error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(ctx, snap)
}

// List returns the persisted session snapshots. Empty without a store.
func (s *Service) List(ctx context.Context) ([]Snapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx)
}

// Delete removes a session from memory and from the store.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.merge, id)
	delete(s.placement, id)
	delete(s.pairs, id)
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, id)
}

// Subscribe registers a subscriber for a session's broadcast payloads.
// Returns a channel and an unsubscribe func; the channel closes when the
// context is done or the subscriber falls behind.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub
}

// broadcast fans a payload out to a session's subscribers, dropping any
// that cannot keep up.
func (s *Service) broadcast(id string, payload []byte) {
	if payload == nil {
		return
	}
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subs[id]))
	for sub := range s.subs[id] {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	var toDrop []*subscriber
	for _, sub := range subs {
		select {
		case sub.ch <- payload:
		default:
			// drop slow subscriber
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) > 0 {
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
	}
}
