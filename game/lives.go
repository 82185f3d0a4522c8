package game

// LifePool is a bounded counter of remaining lives.
type LifePool struct {
	lives int
	max   int
	start int
}

func NewLifePool(start, max int) *LifePool {
	if max < 1 {
		max = 1
	}
	if start > max {
		start = max
	}
	if start < 0 {
		start = 0
	}
	return &LifePool{lives: start, max: max, start: start}
}

// Gain adds one life, clamped at the maximum. Reports whether it changed.
func (p *LifePool) Gain() bool {
	if p.lives >= p.max {
		return false
	}
	p.lives++
	return true
}

// Lose removes one life, clamped at zero. It returns true only on the
// transition to zero; calls made at zero are no-ops.
func (p *LifePool) Lose() bool {
	if p.lives == 0 {
		return false
	}
	p.lives--
	return p.lives == 0
}

func (p *LifePool) Lives() int { return p.lives }

func (p *LifePool) Max() int { return p.max }

func (p *LifePool) Reset() {
	p.lives = p.start
}
