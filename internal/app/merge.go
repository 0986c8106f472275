package app

import (
	"context"
	"time"

	"github.com/jaminalder/codex-arcade/internal/domain"
	"github.com/google/uuid"
)

// NewMergeGame creates a merge session with two seeded tiles.
func (s *Service) NewMergeGame(ctx context.Context) (*MergeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	st := &MergeState{
		ID:      uuid.NewString(),
		Grid:    domain.NewMergeGrid(s.rng),
		Created: now,
		Updated: now,
	}
	s.merge[st.ID] = st
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		delete(s.merge, st.ID)
		return nil, err
	}
	cp := *st
	return &cp, nil
}

// GetMerge returns a copy of the session, restoring it from the store if
// it is not in memory.
func (s *Service) GetMerge(ctx context.Context, id string) (*MergeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.mergeLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *st
	return &cp, nil
}

func (s *Service) mergeLocked(ctx context.Context, id string) (*MergeState, error) {
	if st, ok := s.merge[id]; ok {
		return st, nil
	}
	if s.store != nil {
		snap, err := s.store.Load(ctx, id)
		if err == nil && snap.Kind == KindMerge && snap.Merge != nil {
			st := mergeFromSnapshot(snap)
			s.merge[id] = st
			return st, nil
		}
	}
	return nil, ErrNotFound
}

// MergeMove applies a move. A move that changes nothing is silently
// ignored: no spawn, no score, no persistence. On an accepted move the
// service spawns a tile, updates score and best, and re-checks for the
// terminal state.
func (s *Service) MergeMove(ctx context.Context, id string, dir domain.Direction) (*MergeState, error) {
	var cp MergeState
	var payload []byte

	s.mu.Lock()
	st, err := s.mergeLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if st.Over {
		s.mu.Unlock()
		return nil, ErrGameOver
	}
	res, err := domain.ApplyMove(st.Grid, dir)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !res.Changed {
		cp = *st
		s.mu.Unlock()
		return &cp, nil
	}
	st.Grid = domain.SpawnRandomTile(res.Grid, s.rng)
	st.Score += res.PointsGained
	if st.Score > st.Best {
		st.Best = st.Score
	}
	st.Over = !domain.HasAnyLegalMove(st.Grid)
	st.Updated = time.Now()
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	cp = *st
	if s.render.Merge != nil {
		payload = s.render.Merge(cp)
	}
	s.mu.Unlock()

	s.broadcast(id, payload)
	return &cp, nil
}

// RestartMerge resets the board and score, keeping the best score.
func (s *Service) RestartMerge(ctx context.Context, id string) (*MergeState, error) {
	var cp MergeState
	var payload []byte

	s.mu.Lock()
	st, err := s.mergeLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	st.Grid = domain.NewMergeGrid(s.rng)
	st.Score = 0
	st.Over = false
	st.Updated = time.Now()
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	cp = *st
	if s.render.Merge != nil {
		payload = s.render.Merge(cp)
	}
	s.mu.Unlock()

	s.broadcast(id, payload)
	return &cp, nil
}
