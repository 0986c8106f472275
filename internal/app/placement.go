package app

import (
	"context"
	"time"

	"github.com/jaminalder/codex-arcade/internal/domain"
	"github.com/google/uuid"
)

// hintBudget is the number of reveal-one-cell hints per session.
const hintBudget = 3

// NewPlacementGame generates a puzzle at the given difficulty and opens
// a session with the working grid seeded from the clues.
func (s *Service) NewPlacementGame(ctx context.Context, d domain.Difficulty) (*PlacementState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	puzzle := domain.NewPuzzle(d, s.rng)
	st := &PlacementState{
		ID:         uuid.NewString(),
		Puzzle:     puzzle,
		Working:    puzzle.Clues,
		Difficulty: d,
		HintsLeft:  hintBudget,
		Created:    now,
		Updated:    now,
	}
	s.placement[st.ID] = st
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		delete(s.placement, st.ID)
		return nil, err
	}
	cp := *st
	return &cp, nil
}

// GetPlacement returns a copy of the session, restoring it from the
// store if it is not in memory.
func (s *Service) GetPlacement(ctx context.Context, id string) (*PlacementState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.placementLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *st
	return &cp, nil
}

func (s *Service) placementLocked(ctx context.Context, id string) (*PlacementState, error) {
	if st, ok := s.placement[id]; ok {
		return st, nil
	}
	if s.store != nil {
		snap, err := s.store.Load(ctx, id)
		if err == nil && snap.Kind == KindPlacement && snap.Placement != nil {
			st := placementFromSnapshot(snap)
			s.placement[id] = st
			return st, nil
		}
	}
	return nil, ErrNotFound
}

// SetPlacementCell writes value v (0 clears) into the working grid.
// Clue cells are locked; writing a nonzero value that disagrees with
// the solution counts a mistake.
func (s *Service) SetPlacementCell(ctx context.Context, id string, row, col int, v uint8) (*PlacementState, error) {
	var cp PlacementState
	var payload []byte

	s.mu.Lock()
	st, err := s.placementLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if row < 0 || row >= domain.GridSize || col < 0 || col >= domain.GridSize {
		s.mu.Unlock()
		return nil, domain.ErrOutOfBounds
	}
	if v > 9 {
		s.mu.Unlock()
		return nil, domain.ErrInvalidGrid
	}
	if st.Puzzle.Locked[row][col] {
		s.mu.Unlock()
		return nil, ErrLockedCell
	}
	st.Working[row][col] = v
	if v != 0 && v != st.Puzzle.Solution[row][col] {
		st.Mistakes++
	}
	st.Updated = time.Now()
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	cp = *st
	if s.render.Placement != nil {
		payload = s.render.Placement(cp)
	}
	s.mu.Unlock()

	s.broadcast(id, payload)
	return &cp, nil
}

// PlacementHint reveals the first incorrect or empty non-clue cell from
// the solution, spending one hint from the budget.
func (s *Service) PlacementHint(ctx context.Context, id string) (*PlacementState, error) {
	var cp PlacementState
	var payload []byte

	s.mu.Lock()
	st, err := s.placementLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if st.HintsLeft <= 0 {
		s.mu.Unlock()
		return nil, ErrNoHints
	}
	row, col, ok := domain.FindHintCell(st.Working, st.Puzzle.Locked, st.Puzzle.Solution)
	if ok {
		st.Working[row][col] = st.Puzzle.Solution[row][col]
		st.HintsLeft--
		st.Updated = time.Now()
		if err := s.persistLocked(ctx, st.snapshot()); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	cp = *st
	if ok && s.render.Placement != nil {
		payload = s.render.Placement(cp)
	}
	s.mu.Unlock()

	s.broadcast(id, payload)
	return &cp, nil
}

// CheckPlacement reports whether the working grid is consistent with
// the solution and whether it is complete.
func (s *Service) CheckPlacement(ctx context.Context, id string) (valid, complete bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.placementLocked(ctx, id)
	if err != nil {
		return false, false, err
	}
	return domain.Validate(st.Working, st.Puzzle.Solution),
		domain.IsComplete(st.Working, st.Puzzle.Solution), nil
}

// SolvePlacement replaces the working grid with a valid completion of
// it. If the player's entries contradict the rules the solve fails and
// the session is left untouched.
func (s *Service) SolvePlacement(ctx context.Context, id string) (*PlacementState, error) {
	var cp PlacementState
	var payload []byte

	s.mu.Lock()
	st, err := s.placementLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	solved, err := domain.Solve(st.Working, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	st.Working = solved
	st.Updated = time.Now()
	if err := s.persistLocked(ctx, st.snapshot()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	cp = *st
	if s.render.Placement != nil {
		payload = s.render.Placement(cp)
	}
	s.mu.Unlock()

	s.broadcast(id, payload)
	return &cp, nil
}

// UpdatePlacementElapsed records the presentation layer's clock so it
// survives a reload.
func (s *Service) UpdatePlacementElapsed(ctx context.Context, id string, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.placementLocked(ctx, id)
	if err != nil {
		return err
	}
	if seconds < st.ElapsedSec {
		return nil
	}
	st.ElapsedSec = seconds
	st.Updated = time.Now()
	return s.persistLocked(ctx, st.snapshot())
}
