package game

type multiplierSource interface {
	Multiplier() int
}

// Score is the running total of a session.
type Score struct {
	value int
	src   multiplierSource
}

func NewScore(src multiplierSource) *Score {
	return &Score{src: src}
}

// Award adds points times the current multiplier and returns the amount added.
func (s *Score) Award(points int) int {
	if points <= 0 {
		return 0
	}
	m := 1
	if s.src != nil {
		m = s.src.Multiplier()
	}
	gained := points * m
	s.value += gained
	return gained
}

func (s *Score) Value() int { return s.value }

func (s *Score) Reset() { s.value = 0 }
