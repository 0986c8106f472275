package domain

import "errors"

// Direction is a merge-board move direction.
type Direction int

const (
	Left Direction = iota
	Up
	Right
	Down
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// MergeSize is the merge board dimension.
const MergeSize = 4

// MergeGrid is the 4x4 sliding-merge board. Cells are 0 (empty) or a
// power of two >= 2.
type MergeGrid [MergeSize][MergeSize]int

// MoveResult is the outcome of applying a move to a merge grid.
// Changed is false iff the grid is cell-wise identical to the input,
// which callers treat as "ignore this input": no spawn, no move counted.
type MoveResult struct {
	Grid         MergeGrid
	PointsGained int
	Changed      bool
}

// Errors returned by the merge engine.
var (
	ErrInvalidGrid      = errors.New("invalid grid")
	ErrInvalidDirection = errors.New("invalid direction")
)

// NewMergeGrid returns a fresh board with two random tiles seeded.
func NewMergeGrid(rs RandomSource) MergeGrid {
	var g MergeGrid
	g = SpawnRandomTile(g, rs)
	g = SpawnRandomTile(g, rs)
	return g
}

func (g MergeGrid) check() error {
	for r := 0; r < MergeSize; r++ {
		for c := 0; c < MergeSize; c++ {
			v := g[r][c]
			if v == 0 {
				continue
			}
			if v < 2 || v&(v-1) != 0 {
				return ErrInvalidGrid
			}
		}
	}
	return nil
}

// Sum returns the total of all cell values.
func (g MergeGrid) Sum() int {
	total := 0
	for r := 0; r < MergeSize; r++ {
		for c := 0; c < MergeSize; c++ {
			total += g[r][c]
		}
	}
	return total
}

// ApplyMove slides and merges the grid in the given direction. It is pure:
// the input grid is never mutated and no new tile is spawned. Spawning is
// the caller's step, performed only when the result reports Changed.
func ApplyMove(g MergeGrid, dir Direction) (MoveResult, error) {
	if dir < Left || dir > Down {
		return MoveResult{}, ErrInvalidDirection
	}
	if err := g.check(); err != nil {
		return MoveResult{}, err
	}

	// Normalize the move to "slide left": 0 rotations for left, 1 for up,
	// 2 for right, 3 for down, one rotation being a 90° counterclockwise turn.
	rot := int(dir)
	work := g
	for i := 0; i < rot; i++ {
		work = rotateCCW(work)
	}

	points := 0
	for r := 0; r < MergeSize; r++ {
		row, p := slideRowLeft(work[r])
		work[r] = row
		points += p
	}

	for i := 0; i < (4-rot)%4; i++ {
		work = rotateCCW(work)
	}
	return MoveResult{Grid: work, PointsGained: points, Changed: work != g}, nil
}

// slideRowLeft compacts zeros out of the row, merges equal neighbors
// left to right (each tile at most once per pass), and pads with zeros.
// Returns the new row and the points gained from merges.
func slideRowLeft(row [MergeSize]int) ([MergeSize]int, int) {
	buf := make([]int, 0, MergeSize)
	for _, v := range row {
		if v != 0 {
			buf = append(buf, v)
		}
	}

	var out [MergeSize]int
	points := 0
	w := 0
	for i := 0; i < len(buf); i++ {
		if i+1 < len(buf) && buf[i] == buf[i+1] {
			out[w] = buf[i] * 2
			points += out[w]
			i++ // partner consumed; a merged tile may not merge again
		} else {
			out[w] = buf[i]
		}
		w++
	}
	return out, points
}

// rotateCCW turns the grid 90° counterclockwise, mapping each column
// (read top to bottom) onto a row (read left to right).
func rotateCCW(g MergeGrid) MergeGrid {
	var out MergeGrid
	for r := 0; r < MergeSize; r++ {
		for c := 0; c < MergeSize; c++ {
			out[r][c] = g[c][MergeSize-1-r]
		}
	}
	return out
}

// HasAnyLegalMove reports whether any move can still change the grid:
// true iff any cell is empty or any two adjacent cells hold equal
// nonzero values. Callers re-check this after a spawn, not before.
func HasAnyLegalMove(g MergeGrid) bool {
	for r := 0; r < MergeSize; r++ {
		for c := 0; c < MergeSize; c++ {
			if g[r][c] == 0 {
				return true
			}
			if c+1 < MergeSize && g[r][c] == g[r][c+1] {
				return true
			}
			if r+1 < MergeSize && g[r][c] == g[r+1][c] {
				return true
			}
		}
	}
	return false
}

// SpawnRandomTile places a 2 (probability 0.9) or a 4 (probability 0.1)
// in a uniformly chosen empty cell and returns the new grid. Returns the
// input unchanged if no cell is empty.
func SpawnRandomTile(g MergeGrid, rs RandomSource) MergeGrid {
	var empty [][2]int
	for r := 0; r < MergeSize; r++ {
		for c := 0; c < MergeSize; c++ {
			if g[r][c] == 0 {
				empty = append(empty, [2]int{r, c})
			}
		}
	}
	if len(empty) == 0 {
		return g
	}
	pos := empty[rs.Intn(len(empty))]
	value := 2
	if rs.Float64() < 0.1 {
		value = 4
	}
	g[pos[0]][pos[1]] = value
	return g
}
