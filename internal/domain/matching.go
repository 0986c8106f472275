package domain

import "errors"

// PairsCellState is the visibility state of one memory-game cell.
type PairsCellState uint8

const (
	CellClosed PairsCellState = iota
	CellOpen
	CellMatched
)

// Errors returned by the pairs machine.
var (
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrCellUnavailable = errors.New("cell unavailable")
	ErrPendingPair     = errors.New("pair awaiting resolution")
)

// PairsGame is the tile-matching memory game: a shuffled deck of paired
// symbols and a small state machine over cell visibility. At most two
// cells are open-but-unresolved at once; a third selection is rejected
// until the pending pair is resolved. Matching is permanent. The delay
// before a mismatched pair closes belongs to the caller: the machine
// just holds the pending pair until ResolvePending.
type PairsGame struct {
	Symbols []int
	States  []PairsCellState
	Open    []int
	Moves   int
	Matches int
}

// NewPairsGame deals a shuffled deck of the given number of symbol pairs.
func NewPairsGame(pairs int, rs RandomSource) *PairsGame {
	n := pairs * 2
	symbols := make([]int, n)
	for i := range symbols {
		symbols[i] = i / 2
	}
	rs.Shuffle(n, func(i, j int) { symbols[i], symbols[j] = symbols[j], symbols[i] })
	return &PairsGame{
		Symbols: symbols,
		States:  make([]PairsCellState, n),
	}
}

// OpenCell reveals the cell at index i. The second cell of a pick either
// matches immediately (both cells become permanently matched) or leaves
// both open pending ResolvePending. Opening a matched or already-open
// cell fails with ErrCellUnavailable; opening while a mismatched pair is
// pending fails with ErrPendingPair.
func (g *PairsGame) OpenCell(i int) error {
	if i < 0 || i >= len(g.Symbols) {
		return ErrOutOfBounds
	}
	if len(g.Open) == 2 {
		return ErrPendingPair
	}
	if g.States[i] != CellClosed {
		return ErrCellUnavailable
	}

	g.States[i] = CellOpen
	g.Open = append(g.Open, i)
	if len(g.Open) < 2 {
		return nil
	}

	g.Moves++
	a, b := g.Open[0], g.Open[1]
	if g.Symbols[a] == g.Symbols[b] {
		g.States[a] = CellMatched
		g.States[b] = CellMatched
		g.Matches++
		g.Open = g.Open[:0]
	}
	return nil
}

// PendingMismatch reports whether a mismatched pair is waiting to be
// closed by ResolvePending.
func (g *PairsGame) PendingMismatch() bool {
	return len(g.Open) == 2
}

// ResolvePending closes a pending mismatched pair. No-op otherwise.
func (g *PairsGame) ResolvePending() {
	if len(g.Open) < 2 {
		return
	}
	for _, i := range g.Open {
		g.States[i] = CellClosed
	}
	g.Open = g.Open[:0]
}

// Completed reports whether every cell has been matched.
func (g *PairsGame) Completed() bool {
	return g.Matches*2 == len(g.Symbols)
}
