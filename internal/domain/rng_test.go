package domain

// scriptedRand is a RandomSource whose outputs are fixed queues, making
// engine behavior fully deterministic in tests.
type scriptedRand struct {
	ints    []int
	floats  []float64
	reverse bool
}

func (s *scriptedRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.5
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

// Shuffle leaves the slice alone, or reverses it when reverse is set.
func (s *scriptedRand) Shuffle(n int, swap func(i, j int)) {
	if !s.reverse {
		return
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}
