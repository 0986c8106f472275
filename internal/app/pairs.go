package app

import (
	"context"
	"errors"
	"time"

	"github.com/jaminalder/codex-arcade/internal/domain"
	"github.com/google/uuid"
)

// Deck size bounds for pairs sessions.
const (
	minPairs = 2
	maxPairs = 32
)

// ErrBadPairCount rejects deck sizes outside [minPairs, maxPairs].
var ErrBadPairCount = errors.New("bad pair count")

// NewPairsGame deals a shuffled deck of the given number of pairs.
func (s *Service) NewPairsGame(ctx context.Context, pairs int) (*PairsState, error) {
	if pairs < minPairs || pairs > maxPairs {
		return nil, ErrBadPairCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	st := &PairsState{
		ID:      uuid.NewString(),
		Game:    domain.NewPairsGame(pairs, s.rng),
		Created: now,
		Updated: now,
	}
	s.pairs[st.ID] = st
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		delete(s.pairs, st.ID)
		return nil, err
	}
	return st.clone(), nil
}

// GetPairs returns a copy of the session, restoring it from the store
// if it is not in memory.
func (s *Service) GetPairs(ctx context.Context, id string) (*PairsState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.pairsLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.clone(), nil
}

func (s *Service) pairsLocked(ctx context.Context, id string) (*PairsState, error) {
	if st, ok := s.pairs[id]; ok {
		return st, nil
	}
	if s.store != nil {
		snap, err := s.store.Load(ctx, id)
		if err == nil && snap.Kind == KindPairs && snap.Pairs != nil {
			st := pairsFromSnapshot(snap)
			s.pairs[id] = st
			return st, nil
		}
	}
	return nil, ErrNotFound
}

// PairsOpen reveals one cell. The mismatch delay is presentation-owned:
// a pending mismatched pair stays open until PairsResolve.
func (s *Service) PairsOpen(ctx context.Context, id string, cell int) (*PairsState, error) {
	var cp *PairsState
	var payload []byte

	s.mu.Lock()
	st, err := s.pairsLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := st.Game.OpenCell(cell); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	st.Updated = time.Now()
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	cp = st.clone()
	if s.render.Pairs != nil {
		payload = s.render.Pairs(*cp)
	}
	s.mu.Unlock()

	s.broadcast(id, payload)
	return cp, nil
}

// PairsResolve closes a pending mismatched pair.
func (s *Service) PairsResolve(ctx context.Context, id string) (*PairsState, error) {
	var cp *PairsState
	var payload []byte

	s.mu.Lock()
	st, err := s.pairsLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	st.Game.ResolvePending()
	st.Updated = time.Now()
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	cp = st.clone()
	if s.render.Pairs != nil {
		payload = s.render.Pairs(*cp)
	}
	s.mu.Unlock()

	s.broadcast(id, payload)
	return cp, nil
}
