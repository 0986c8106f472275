package app

import (
	"time"

	"github.com/jaminalder/codex-arcade/internal/domain"
)

// Session kinds used in snapshots and store listings.
const (
	KindMerge     = "merge"
	KindPlacement = "placement"
	KindPairs     = "pairs"
)

// Snapshot is the persisted form of one game session: grids of integers
// plus a small set of scalars, keyed by session ID. Exactly one of the
// per-kind payloads is set.
type Snapshot struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Updated   time.Time          `json:"updated"`
	Merge     *MergeSnapshot     `json:"merge,omitempty"`
	Placement *PlacementSnapshot `json:"placement,omitempty"`
	Pairs     *PairsSnapshot     `json:"pairs,omitempty"`
}

// MergeSnapshot persists a sliding-merge session.
type MergeSnapshot struct {
	Grid  domain.MergeGrid `json:"grid"`
	Score int              `json:"score"`
	Best  int              `json:"best"`
	Over  bool             `json:"over"`
}

// PlacementSnapshot persists a number-placement session.
type PlacementSnapshot struct {
	Clues      domain.ConstraintGrid `json:"clues"`
	Solution   domain.ConstraintGrid `json:"solution"`
	Working    domain.ConstraintGrid `json:"working"`
	Difficulty string                `json:"difficulty"`
	Mistakes   int                   `json:"mistakes"`
	HintsLeft  int                   `json:"hintsLeft"`
	ElapsedSec int                   `json:"elapsedSec"`
}

// PairsSnapshot persists a memory-game session.
type PairsSnapshot struct {
	Symbols []int   `json:"symbols"`
	States  []uint8 `json:"states"`
	Open    []int   `json:"open,omitempty"`
	Moves   int     `json:"moves"`
	Matches int     `json:"matches"`
}

func (st *MergeState) snapshot() Snapshot {
	return Snapshot{
		ID:      st.ID,
		Kind:    KindMerge,
		Updated: st.Updated,
		Merge: &MergeSnapshot{
			Grid:  st.Grid,
			Score: st.Score,
			Best:  st.Best,
			Over:  st.Over,
		},
	}
}

func mergeFromSnapshot(snap Snapshot) *MergeState {
	m := snap.Merge
	return &MergeState{
		ID:      snap.ID,
		Grid:    m.Grid,
		Score:   m.Score,
		Best:    m.Best,
		Over:    m.Over,
		Created: snap.Updated,
		Updated: snap.Updated,
	}
}

func (st *PlacementState) snapshot() Snapshot {
	p := &PlacementSnapshot{
		Clues:      st.Puzzle.Clues,
		Solution:   st.Puzzle.Solution,
		Working:    st.Working,
		Difficulty: st.Difficulty.String(),
		Mistakes:   st.Mistakes,
		HintsLeft:  st.HintsLeft,
		ElapsedSec: st.ElapsedSec,
	}
	return Snapshot{ID: st.ID, Kind: KindPlacement, Updated: st.Updated, Placement: p}
}

func placementFromSnapshot(snap Snapshot) *PlacementState {
	p := snap.Placement
	st := &PlacementState{
		ID:         snap.ID,
		Working:    p.Working,
		Difficulty: domain.ParseDifficulty(p.Difficulty),
		Mistakes:   p.Mistakes,
		HintsLeft:  p.HintsLeft,
		ElapsedSec: p.ElapsedSec,
		Created:    snap.Updated,
		Updated:    snap.Updated,
	}
	st.Puzzle.Clues = p.Clues
	st.Puzzle.Solution = p.Solution
	for r := 0; r < domain.GridSize; r++ {
		for c := 0; c < domain.GridSize; c++ {
			st.Puzzle.Locked[r][c] = p.Clues[r][c] != 0
		}
	}
	return st
}

func (st *PairsState) snapshot() Snapshot {
	g := st.Game
	p := &PairsSnapshot{
		Symbols: append([]int(nil), g.Symbols...),
		Moves:   g.Moves,
		Matches: g.Matches,
	}
	p.States = make([]uint8, len(g.States))
	for i, s := range g.States {
		p.States[i] = uint8(s)
	}
	if len(g.Open) > 0 {
		p.Open = append([]int(nil), g.Open...)
	}
	return Snapshot{ID: st.ID, Kind: KindPairs, Updated: st.Updated, Pairs: p}
}

func pairsFromSnapshot(snap Snapshot) *PairsState {
	p := snap.Pairs
	g := &domain.PairsGame{
		Symbols: append([]int(nil), p.Symbols...),
		Moves:   p.Moves,
		Matches: p.Matches,
	}
	g.States = make([]domain.PairsCellState, len(p.States))
	for i, s := range p.States {
		g.States[i] = domain.PairsCellState(s)
	}
	if len(p.Open) > 0 {
		g.Open = append([]int(nil), p.Open...)
	}
	return &PairsState{ID: snap.ID, Game: g, Created: snap.Updated, Updated: snap.Updated}
}
