package game

import "time"

// Tuning holds the fixed constants of a session.
type Tuning struct {
	StartLives int
	MaxLives   int

	QueueCapacity int

	BaseLifetime     time.Duration
	ShrinkWindow     time.Duration
	GrowthWindow     time.Duration
	InitialScale     float64
	BaseSpawnEvery   time.Duration
	SlowSpawnFactor  float64
	SlowLifeFactor   float64
	SlowTimeDuration time.Duration
	DoubleDuration   time.Duration
	DoubleMultiplier int
	PowerupPoll      time.Duration

	MinSize int
	MaxSize int

	// Cumulative probability thresholds, checked in order.
	SlowTimeChance    float64
	DoubleScoreChance float64
	LifeChance        float64

	Area Area
}

// Area is the visible play field in pixels. Top is the header inset.
type Area struct {
	Width  int
	Height int
	Top    int
	Margin int
}

func DefaultTuning() Tuning {
	return Tuning{
		StartLives:        3,
		MaxLives:          10,
		QueueCapacity:     5,
		BaseLifetime:      1700 * time.Millisecond,
		ShrinkWindow:      300 * time.Millisecond,
		GrowthWindow:      600 * time.Millisecond,
		InitialScale:      0.15,
		BaseSpawnEvery:    800 * time.Millisecond,
		SlowSpawnFactor:   1.5,
		SlowLifeFactor:    2,
		SlowTimeDuration:  20 * time.Second,
		DoubleDuration:    15 * time.Second,
		DoubleMultiplier:  2,
		PowerupPoll:       100 * time.Millisecond,
		MinSize:           40,
		MaxSize:           80,
		SlowTimeChance:    0.05,
		DoubleScoreChance: 0.10,
		LifeChance:        0.20,
		Area: Area{
			Width:  1280,
			Height: 720,
			Top:    100,
			Margin: 20,
		},
	}
}

func scaleDuration(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}
