package game

import "time"

// BubbleView is the read-only form of a bubble handed to renderers.
type BubbleView struct {
	ID     int64      `json:"id" msgpack:"id"`
	X      int        `json:"x" msgpack:"x"`
	Y      int        `json:"y" msgpack:"y"`
	Size   int        `json:"size" msgpack:"size"`
	Color  string     `json:"color" msgpack:"color"`
	Kind   BubbleKind `json:"type" msgpack:"type"`
	Points int        `json:"points" msgpack:"points"`
	Scale  float64    `json:"scale" msgpack:"scale"`
	Phase  Phase      `json:"phase" msgpack:"phase"`
	Missed bool       `json:"missed,omitempty" msgpack:"missed,omitempty"`
}

type PowerupView struct {
	Kind      PowerupKind `json:"type" msgpack:"type"`
	ExpiresAt time.Time   `json:"expiresAt" msgpack:"expiresAt"`
	Remaining float64     `json:"remaining" msgpack:"remaining"`
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	State      State         `json:"state" msgpack:"state"`
	Score      int           `json:"score" msgpack:"score"`
	Multiplier int           `json:"multiplier" msgpack:"multiplier"`
	Lives      int           `json:"lives" msgpack:"lives"`
	MaxLives   int           `json:"maxLives" msgpack:"maxLives"`
	Active     *PowerupView  `json:"activePowerup,omitempty" msgpack:"activePowerup,omitempty"`
	Pending    []PowerupKind `json:"queuedPowerups" msgpack:"queuedPowerups"`
	Bubbles    []BubbleView  `json:"bubbles" msgpack:"bubbles"`
}

// Snapshot computes derived visual state at now without mutating the session.
func (s *Session) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		State:      s.state,
		Score:      s.score.Value(),
		Multiplier: s.powerups.Multiplier(),
		Lives:      s.lives.Lives(),
		MaxLives:   s.lives.Max(),
		Pending:    s.powerups.Pending(),
		Bubbles:    make([]BubbleView, 0, len(s.bubbles)),
	}
	if a, ok := s.powerups.Active(); ok {
		snap.Active = &PowerupView{Kind: a.Kind, ExpiresAt: a.ExpiresAt, Remaining: a.Remaining(now)}
	}
	for _, b := range s.bubbles {
		snap.Bubbles = append(snap.Bubbles, BubbleView{
			ID:     b.ID,
			X:      b.X,
			Y:      b.Y,
			Size:   b.Size,
			Color:  b.Color,
			Kind:   b.Kind,
			Points: Points(b.Size),
			Scale:  b.Scale(now),
			Phase:  b.Phase(now),
			Missed: b.Missed,
		})
	}
	return snap
}
