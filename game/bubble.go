package game

import (
	"math/rand"
	"time"
)

// BubbleKind is the type assigned to a bubble at spawn.
type BubbleKind string

const (
	BubbleNormal      BubbleKind = "normal"
	BubbleLife        BubbleKind = "life"
	BubbleSlowTime    BubbleKind = "slowtime"
	BubbleDoubleScore BubbleKind = "doublescore"
)

// Powerup maps capture kinds to their effect.
func (k BubbleKind) Powerup() PowerupKind {
	switch k {
	case BubbleSlowTime:
		return PowerupSlowTime
	case BubbleDoubleScore:
		return PowerupDoubleScore
	}
	return PowerupNone
}

// Phase is the lifecycle state of a bubble still on screen. Removal is
// reported by EventBubbleRemoved.
type Phase string

const (
	PhaseGrowing   Phase = "growing"
	PhaseIdle      Phase = "idle"
	PhaseShrinking Phase = "shrinking"
)

var normalColors = []string{
	"red", "blue", "green", "yellow", "purple", "pink", "indigo", "orange",
}

var kindColors = map[BubbleKind]string{
	BubbleSlowTime:    "sky",
	BubbleDoubleScore: "gold",
	BubbleLife:        "rose",
}

// Bubble is a clickable, time-limited target.
type Bubble struct {
	ID          int64
	X           int
	Y           int
	Size        int
	Color       string
	Kind        BubbleKind
	CreatedAt   time.Time
	ShrinkStart time.Time
	Missed      bool

	growth time.Duration
	shrink time.Duration
	scale0 float64
}

// Shrinking reports whether the shrink timestamp has been set.
func (b *Bubble) Shrinking() bool { return !b.ShrinkStart.IsZero() }

func (b *Bubble) startShrink(now time.Time) bool {
	if b.Shrinking() {
		return false
	}
	b.ShrinkStart = now
	return true
}

// Scale is the visual scale at now. It depends only on the creation time,
// the shrink start and now.
func (b *Bubble) Scale(now time.Time) float64 {
	if b.Shrinking() {
		if b.shrink <= 0 {
			return 0
		}
		p := float64(now.Sub(b.ShrinkStart)) / float64(b.shrink)
		return clamp01(1 - p)
	}
	if b.growth <= 0 {
		return 1
	}
	p := clamp01(float64(now.Sub(b.CreatedAt)) / float64(b.growth))
	return b.scale0 + p*(1-b.scale0)
}

func (b *Bubble) Phase(now time.Time) Phase {
	if b.Shrinking() {
		return PhaseShrinking
	}
	if now.Sub(b.CreatedAt) < b.growth {
		return PhaseGrowing
	}
	return PhaseIdle
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Points maps bubble size to score value; smaller bubbles are worth more.
func Points(size int) int {
	switch {
	case size <= 45:
		return 100
	case size <= 50:
		return 75
	case size <= 55:
		return 50
	case size <= 60:
		return 35
	case size <= 65:
		return 25
	case size <= 70:
		return 20
	case size <= 75:
		return 15
	}
	return 10
}

// BubbleSpec fixes the random parts of a spawn. Zero fields are drawn at random.
type BubbleSpec struct {
	Kind BubbleKind
	Size int
	X    int
	Y    int
}

func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func rollKind(rng *rand.Rand, t Tuning) BubbleKind {
	r := rng.Float64()
	switch {
	case r < t.SlowTimeChance:
		return BubbleSlowTime
	case r < t.DoubleScoreChance:
		return BubbleDoubleScore
	case r < t.LifeChance:
		return BubbleLife
	}
	return BubbleNormal
}

func colorFor(rng *rand.Rand, kind BubbleKind) string {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	return normalColors[rng.Intn(len(normalColors))]
}

// place keeps the whole bubble inside the area.
func place(rng *rand.Rand, a Area, size int) (int, int) {
	x := randInt(rng, size, a.Width-size-a.Margin)
	y := randInt(rng, size+a.Top, a.Height-size-a.Margin)
	return x, y
}

func clampPosition(a Area, size, x, y int) (int, int) {
	maxX := a.Width - size - a.Margin
	maxY := a.Height - size - a.Margin
	if x > maxX {
		x = maxX
	}
	if x < size {
		x = size
	}
	if y > maxY {
		y = maxY
	}
	if y < size+a.Top {
		y = size + a.Top
	}
	return x, y
}

func newBubble(id int64, spec BubbleSpec, rng *rand.Rand, t Tuning, now time.Time) *Bubble {
	kind := spec.Kind
	if kind == "" {
		kind = rollKind(rng, t)
	}
	size := spec.Size
	if size <= 0 {
		size = randInt(rng, t.MinSize, t.MaxSize)
	}
	var x, y int
	if spec.X == 0 && spec.Y == 0 {
		x, y = place(rng, t.Area, size)
	} else {
		x, y = clampPosition(t.Area, size, spec.X, spec.Y)
	}
	return &Bubble{
		ID:        id,
		X:         x,
		Y:         y,
		Size:      size,
		Color:     colorFor(rng, kind),
		Kind:      kind,
		CreatedAt: now,
		growth:    t.GrowthWindow,
		shrink:    t.ShrinkWindow,
		scale0:    t.InitialScale,
	}
}
