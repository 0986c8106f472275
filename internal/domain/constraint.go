package domain

import "errors"

// Board dimensions for the placement puzzle.
const (
	GridSize   = 9
	RegionSize = 3
)

// ConstraintGrid is the 9x9 placement board. Cells are 0 (unfilled)
// or a digit 1-9.
type ConstraintGrid [GridSize][GridSize]uint8

// Difficulty labels the clue-removal target for derived puzzles.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// String returns the lowercase difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	default:
		return "medium"
	}
}

// ParseDifficulty maps a difficulty name to its value, defaulting to Medium.
func ParseDifficulty(s string) Difficulty {
	switch s {
	case "easy":
		return Easy
	case "hard":
		return Hard
	default:
		return Medium
	}
}

// PuzzleInstance is one playable puzzle: the clue grid shown to the
// player, the full solution it was derived from, and the locked mask
// marking clue cells. Locked is derived from Clues, never mutated.
type PuzzleInstance struct {
	Clues    ConstraintGrid
	Solution ConstraintGrid
	Locked   [GridSize][GridSize]bool
}

// ErrUnsolvable reports a grid whose givens admit no completion. A clue
// grid produced by the engine's own generator never triggers it; seeing
// it means the caller handed over a malformed board.
var ErrUnsolvable = errors.New("unsolvable grid")

func (g ConstraintGrid) check() error {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if g[r][c] > 9 {
				return ErrInvalidGrid
			}
		}
	}
	return nil
}

// allowed reports whether v can be placed at (r, c) without duplicating
// a value in the row, column, or 3x3 region.
func allowed(g *ConstraintGrid, r, c int, v uint8) bool {
	for i := 0; i < GridSize; i++ {
		if g[r][i] == v || g[i][c] == v {
			return false
		}
	}
	br, bc := (r/RegionSize)*RegionSize, (c/RegionSize)*RegionSize
	for dr := 0; dr < RegionSize; dr++ {
		for dc := 0; dc < RegionSize; dc++ {
			if g[br+dr][bc+dc] == v {
				return false
			}
		}
	}
	return true
}

// IsPlacementValid reports whether value v may be placed at (row, col):
// v must not already appear in the row, the column, or the 3x3 region
// containing the cell.
func IsPlacementValid(g ConstraintGrid, row, col int, v uint8) bool {
	return allowed(&g, row, col, v)
}

func firstEmpty(g *ConstraintGrid) (int, int, bool) {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if g[r][c] == 0 {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// hasConflict scans rows, columns, and regions for duplicate digits
// among the filled cells.
func hasConflict(g *ConstraintGrid) bool {
	for r := 0; r < GridSize; r++ {
		m := 0
		for c := 0; c < GridSize; c++ {
			if v := g[r][c]; v != 0 {
				bit := 1 << v
				if m&bit != 0 {
					return true
				}
				m |= bit
			}
		}
	}
	for c := 0; c < GridSize; c++ {
		m := 0
		for r := 0; r < GridSize; r++ {
			if v := g[r][c]; v != 0 {
				bit := 1 << v
				if m&bit != 0 {
					return true
				}
				m |= bit
			}
		}
	}
	for br := 0; br < GridSize; br += RegionSize {
		for bc := 0; bc < GridSize; bc += RegionSize {
			m := 0
			for dr := 0; dr < RegionSize; dr++ {
				for dc := 0; dc < RegionSize; dc++ {
					if v := g[br+dr][bc+dc]; v != 0 {
						bit := 1 << v
						if m&bit != 0 {
							return true
						}
						m |= bit
					}
				}
			}
		}
	}
	return false
}

// Solve completes the grid by exhaustive backtracking over the first
// unfilled cell in row-major order. With a nil RandomSource candidates
// are tried in ascending order; otherwise the candidate order is freshly
// shuffled at every cell, which is what varies generated solutions.
// Returns ErrInvalidGrid for out-of-range cells and ErrUnsolvable when
// the givens conflict or the search exhausts without a completion.
func Solve(g ConstraintGrid, rs RandomSource) (ConstraintGrid, error) {
	if err := g.check(); err != nil {
		return ConstraintGrid{}, err
	}
	if hasConflict(&g) {
		return ConstraintGrid{}, ErrUnsolvable
	}
	work := g
	if !fill(&work, rs) {
		return ConstraintGrid{}, ErrUnsolvable
	}
	return work, nil
}

// fill is the recursive search step. It mutates the one shared buffer in
// place and resets the cell to 0 on a failed branch; recursion depth is
// bounded by the unfilled-cell count.
func fill(g *ConstraintGrid, rs RandomSource) bool {
	r, c, ok := firstEmpty(g)
	if !ok {
		return true
	}
	digits := [GridSize]uint8{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if rs != nil {
		rs.Shuffle(GridSize, func(i, j int) { digits[i], digits[j] = digits[j], digits[i] })
	}
	for _, v := range digits {
		if allowed(g, r, c, v) {
			g[r][c] = v
			if fill(g, rs) {
				return true
			}
			g[r][c] = 0
		}
	}
	return false
}

// GenerateSolvedGrid produces a complete valid grid by running the
// randomized-order search from an empty board. An empty board always
// admits a completion, so this cannot fail.
func GenerateSolvedGrid(rs RandomSource) ConstraintGrid {
	var g ConstraintGrid
	fill(&g, rs)
	return g
}

// targetRemovals is the number of clue cells cleared per difficulty.
func targetRemovals(d Difficulty) int {
	switch d {
	case Easy:
		return 41 // 40 givens
	case Hard:
		return 53 // 28 givens
	default:
		return 47 // 34 givens
	}
}

// DeriveClueGrid copies the solution and clears cells at uniformly
// shuffled positions until the difficulty's removal target is reached.
// The result is consistent with the solution but is not checked for a
// unique completion; see DESIGN.md for why that stays as-is.
func DeriveClueGrid(solution ConstraintGrid, d Difficulty, rs RandomSource) ConstraintGrid {
	clues := solution
	positions := make([]int, GridSize*GridSize)
	for i := range positions {
		positions[i] = i
	}
	rs.Shuffle(len(positions), func(i, j int) {
		positions[i], positions[j] = positions[j], positions[i]
	})
	removed := 0
	for _, pos := range positions {
		if removed >= targetRemovals(d) {
			break
		}
		clues[pos/GridSize][pos%GridSize] = 0
		removed++
	}
	return clues
}

// NewPuzzle generates a fresh solved grid, derives a clue grid from it,
// and returns the instance with its locked mask.
func NewPuzzle(d Difficulty, rs RandomSource) PuzzleInstance {
	solution := GenerateSolvedGrid(rs)
	clues := DeriveClueGrid(solution, d, rs)
	p := PuzzleInstance{Clues: clues, Solution: solution}
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			p.Locked[r][c] = clues[r][c] != 0
		}
	}
	return p
}

// Validate reports whether every filled cell in working matches the
// solution. Unfilled cells are ignored.
func Validate(working, solution ConstraintGrid) bool {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if working[r][c] != 0 && working[r][c] != solution[r][c] {
				return false
			}
		}
	}
	return true
}

// IsComplete reports whether working is cell-wise identical to the
// solution, i.e. fully filled and correct.
func IsComplete(working, solution ConstraintGrid) bool {
	return working == solution
}

// FindHintCell returns the first non-locked cell in row-major order
// whose value differs from the solution: the cell a "reveal one cell"
// feature should fill. ok is false when the board is already fully
// correct.
func FindHintCell(working ConstraintGrid, locked [GridSize][GridSize]bool, solution ConstraintGrid) (row, col int, ok bool) {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if !locked[r][c] && working[r][c] != solution[r][c] {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}
