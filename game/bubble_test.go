package game

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestPointsBands(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{40, 100}, {42, 100}, {45, 100},
		{46, 75}, {50, 75},
		{55, 50},
		{60, 35},
		{65, 25},
		{70, 20},
		{75, 15},
		{76, 10}, {80, 10},
	}
	for _, c := range cases {
		if got := Points(c.size); got != c.want {
			t.Errorf("Points(%d): expected %d got %d", c.size, c.want, got)
		}
	}
}

func TestBubbleScale(t *testing.T) {
	tuning := DefaultTuning()
	b := newBubble(1, BubbleSpec{Kind: BubbleNormal, Size: 50}, rand.New(rand.NewSource(1)), tuning, t0)

	checks := []struct {
		at    time.Duration
		want  float64
		phase Phase
	}{
		{0, 0.15, PhaseGrowing},
		{300 * time.Millisecond, 0.575, PhaseGrowing},
		{600 * time.Millisecond, 1, PhaseIdle},
		{1500 * time.Millisecond, 1, PhaseIdle},
	}
	for _, c := range checks {
		now := t0.Add(c.at)
		if got := b.Scale(now); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("scale at %v: expected %v got %v", c.at, c.want, got)
		}
		if got := b.Phase(now); got != c.phase {
			t.Errorf("phase at %v: expected %q got %q", c.at, c.phase, got)
		}
	}

	shrinkAt := t0.Add(1700 * time.Millisecond)
	if !b.startShrink(shrinkAt) {
		t.Fatalf("expected first shrink start to succeed")
	}
	if b.startShrink(shrinkAt.Add(time.Second)) {
		t.Fatalf("expected shrink start to be set only once")
	}
	if !b.ShrinkStart.Equal(shrinkAt) {
		t.Fatalf("shrink start moved to %v", b.ShrinkStart)
	}

	if got := b.Scale(shrinkAt.Add(150 * time.Millisecond)); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected half scale mid-shrink got %v", got)
	}
	if got := b.Scale(shrinkAt.Add(400 * time.Millisecond)); got != 0 {
		t.Errorf("expected zero scale after shrink got %v", got)
	}
	for _, at := range []time.Duration{0, 400 * time.Millisecond, time.Second} {
		if got := b.Phase(shrinkAt.Add(at)); got != PhaseShrinking {
			t.Errorf("expected shrinking phase %v into the shrink got %q", at, got)
		}
	}

	// Scale is a pure function of its inputs.
	if b.Scale(shrinkAt.Add(100*time.Millisecond)) != b.Scale(shrinkAt.Add(100*time.Millisecond)) {
		t.Errorf("expected repeatable scale")
	}
}

// fixedSource makes rng.Float64 return v.
type fixedSource struct{ v float64 }

func (s fixedSource) Int63() int64 { return int64(s.v * (1 << 63)) }
func (s fixedSource) Seed(int64)   {}

func TestRollKindBands(t *testing.T) {
	tuning := DefaultTuning()
	cases := []struct {
		roll float64
		want BubbleKind
	}{
		{0, BubbleSlowTime},
		{0.0499, BubbleSlowTime},
		{0.05, BubbleDoubleScore},
		{0.0999, BubbleDoubleScore},
		{0.10, BubbleLife},
		{0.1999, BubbleLife},
		{0.20, BubbleNormal},
		{0.99, BubbleNormal},
	}
	for _, c := range cases {
		rng := rand.New(fixedSource{c.roll})
		if got := rollKind(rng, tuning); got != c.want {
			t.Errorf("roll %v: expected %q, got %q", c.roll, c.want, got)
		}
	}
}

func TestRandomSpawnStaysInsideArea(t *testing.T) {
	tuning := DefaultTuning()
	rng := rand.New(rand.NewSource(7))
	a := tuning.Area
	seen := make(map[BubbleKind]int)

	for i := 0; i < 2000; i++ {
		b := newBubble(int64(i+1), BubbleSpec{}, rng, tuning, t0)
		if b.Size < tuning.MinSize || b.Size > tuning.MaxSize {
			t.Fatalf("size %d out of range", b.Size)
		}
		if b.X < b.Size || b.X > a.Width-b.Size-a.Margin {
			t.Fatalf("x %d out of area for size %d", b.X, b.Size)
		}
		if b.Y < b.Size+a.Top || b.Y > a.Height-b.Size-a.Margin {
			t.Fatalf("y %d out of area for size %d", b.Y, b.Size)
		}
		if b.Color == "" {
			t.Fatalf("expected a colour")
		}
		seen[b.Kind]++
	}

	for _, k := range []BubbleKind{BubbleNormal, BubbleLife, BubbleSlowTime, BubbleDoubleScore} {
		if seen[k] == 0 {
			t.Errorf("expected at least one %q bubble in 2000 spawns", k)
		}
	}
	if seen[BubbleNormal] < seen[BubbleLife] {
		t.Errorf("expected normal bubbles to dominate: %v", seen)
	}
}

func TestSpecPositionIsClamped(t *testing.T) {
	tuning := DefaultTuning()
	b := newBubble(1, BubbleSpec{Kind: BubbleNormal, Size: 60, X: 5000, Y: 1}, rand.New(rand.NewSource(1)), tuning, t0)
	if b.X != tuning.Area.Width-60-tuning.Area.Margin {
		t.Errorf("expected x clamped to right edge got %d", b.X)
	}
	if b.Y != 60+tuning.Area.Top {
		t.Errorf("expected y clamped below header got %d", b.Y)
	}
}
