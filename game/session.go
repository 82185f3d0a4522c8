package game

import (
	"math/rand"
	"time"
)

// State is the phase of a session.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateOver    State = "over"
)

// Session owns the life pool, powerups, score and bubbles of one game.
// It is not safe for concurrent use; a single owner drives it.
type Session struct {
	tuning   Tuning
	rng      *rand.Rand
	state    State
	lives    *LifePool
	powerups *PowerupScheduler
	score    *Score
	bubbles  []*Bubble
	nextID   int64
	tl       *timeline
	events   []Event
}

func NewSession(t Tuning, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Session{
		tuning: t,
		rng:    rng,
		state:  StateIdle,
		lives:  NewLifePool(t.StartLives, t.MaxLives),
	}
	s.powerups = NewPowerupScheduler(t)
	s.score = NewScore(s.powerups)
	s.tl = newTimeline()
	return s
}

func (s *Session) clear() {
	s.score.Reset()
	s.lives.Reset()
	s.powerups.Clear()
	s.bubbles = nil
	s.tl = newTimeline()
	s.events = nil
}

// Start begins a new game from Idle or Over.
func (s *Session) Start(now time.Time) bool {
	if s.state == StateRunning {
		return false
	}
	s.clear()
	s.state = StateRunning
	s.tl.schedule(timerSpawn, now.Add(s.spawnInterval()), 0)
	return true
}

// Reset abandons whatever is in progress and returns to Idle.
func (s *Session) Reset() {
	s.clear()
	s.state = StateIdle
}

func (s *Session) spawnInterval() time.Duration {
	if s.powerups.SlowTime() {
		return scaleDuration(s.tuning.BaseSpawnEvery, s.tuning.SlowSpawnFactor)
	}
	return s.tuning.BaseSpawnEvery
}

func (s *Session) lifetime() time.Duration {
	if s.powerups.SlowTime() {
		return scaleDuration(s.tuning.BaseLifetime, s.tuning.SlowLifeFactor)
	}
	return s.tuning.BaseLifetime
}

// Spawn creates a random bubble.
func (s *Session) Spawn(now time.Time) (Bubble, bool) {
	return s.SpawnBubble(BubbleSpec{}, now)
}

// SpawnBubble creates a bubble with the fixed parts of spec and schedules
// its expiry.
func (s *Session) SpawnBubble(spec BubbleSpec, now time.Time) (Bubble, bool) {
	if s.state != StateRunning {
		return Bubble{}, false
	}
	s.nextID++
	b := newBubble(s.nextID, spec, s.rng, s.tuning, now)
	s.bubbles = append(s.bubbles, b)
	s.tl.schedule(timerExpire, now.Add(s.lifetime()), b.ID)
	s.emit(Event{Type: EventBubbleSpawned, At: now, BubbleID: b.ID, Kind: b.Kind})
	return *b, true
}

// Click resolves and removes a bubble. Unknown ids and clicks outside a
// running game are ignored.
func (s *Session) Click(id int64, now time.Time) bool {
	if s.state != StateRunning {
		return false
	}
	idx := s.find(id)
	if idx < 0 {
		return false
	}
	b := s.bubbles[idx]
	s.drop(idx)
	s.tl.cancelBubble(id)

	switch b.Kind {
	case BubbleNormal:
		gained := s.score.Award(Points(b.Size))
		s.emit(Event{Type: EventBubblePopped, At: now, BubbleID: id, Kind: b.Kind, Points: gained})
	case BubbleLife:
		s.emit(Event{Type: EventBubblePopped, At: now, BubbleID: id, Kind: b.Kind})
		if s.lives.Gain() {
			s.emit(Event{Type: EventLifeGained, At: now, BubbleID: id})
		}
	case BubbleSlowTime, BubbleDoubleScore:
		s.emit(Event{Type: EventBubblePopped, At: now, BubbleID: id, Kind: b.Kind})
		kind := b.Kind.Powerup()
		switch s.powerups.Capture(kind, now) {
		case CaptureActivated:
			s.emit(Event{Type: EventPowerupActivated, At: now, Powerup: kind})
			s.ensurePoll(now)
		case CaptureQueued:
			s.emit(Event{Type: EventPowerupQueued, At: now, Powerup: kind})
		case CaptureDropped:
			s.emit(Event{Type: EventPowerupDropped, At: now, Powerup: kind})
		}
	}
	return true
}

// Advance fires every timer due at or before now, in deadline order.
// It returns the number of timers fired.
func (s *Session) Advance(now time.Time) int {
	fired := 0
	for {
		t, ok := s.tl.popDue(now)
		if !ok {
			return fired
		}
		fired++
		switch t.kind {
		case timerSpawn:
			s.onSpawn(t.at)
		case timerExpire:
			s.onExpire(t.bubble, t.at)
		case timerRemove:
			s.onRemove(t.bubble, t.at)
		case timerPowerup:
			s.onPowerupPoll(t.at)
		}
	}
}

// NextDeadline reports when the next timer is due.
func (s *Session) NextDeadline() (time.Time, bool) {
	return s.tl.next()
}

func (s *Session) onSpawn(at time.Time) {
	if s.state != StateRunning {
		return
	}
	s.Spawn(at)
	s.tl.schedule(timerSpawn, at.Add(s.spawnInterval()), 0)
}

func (s *Session) onExpire(id int64, at time.Time) {
	idx := s.find(id)
	if idx < 0 {
		return
	}
	b := s.bubbles[idx]
	if !b.startShrink(at) {
		return
	}
	if b.Kind == BubbleNormal && !b.Missed && s.state == StateRunning {
		b.Missed = true
		s.emit(Event{Type: EventBubbleMissed, At: at, BubbleID: id, Kind: b.Kind})
		depleted := s.lives.Lose()
		s.emit(Event{Type: EventLifeLost, At: at, BubbleID: id})
		if depleted {
			s.gameOver(at)
		}
	}
	s.tl.schedule(timerRemove, at.Add(s.tuning.ShrinkWindow), id)
}

func (s *Session) onRemove(id int64, at time.Time) {
	idx := s.find(id)
	if idx < 0 {
		return
	}
	kind := s.bubbles[idx].Kind
	s.drop(idx)
	s.emit(Event{Type: EventBubbleRemoved, At: at, BubbleID: id, Kind: kind})
}

func (s *Session) onPowerupPoll(at time.Time) {
	expired, next := s.powerups.Tick(at)
	if expired != PowerupNone {
		s.emit(Event{Type: EventPowerupExpired, At: at, Powerup: expired})
	}
	if next != PowerupNone {
		s.emit(Event{Type: EventPowerupActivated, At: at, Powerup: next})
	}
	if _, ok := s.powerups.Active(); ok {
		s.tl.schedule(timerPowerup, at.Add(s.tuning.PowerupPoll), 0)
	}
}

func (s *Session) ensurePoll(now time.Time) {
	if !s.tl.has(timerPowerup) {
		s.tl.schedule(timerPowerup, now.Add(s.tuning.PowerupPoll), 0)
	}
}

// gameOver is reached only through the life pool running out.
func (s *Session) gameOver(at time.Time) {
	s.state = StateOver
	s.tl.cancelKind(timerSpawn)
	s.emit(Event{Type: EventGameOver, At: at})
}

func (s *Session) find(id int64) int {
	for i, b := range s.bubbles {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) drop(idx int) {
	copy(s.bubbles[idx:], s.bubbles[idx+1:])
	s.bubbles[len(s.bubbles)-1] = nil
	s.bubbles = s.bubbles[:len(s.bubbles)-1]
}

func (s *Session) emit(ev Event) {
	ev.Score = s.score.Value()
	ev.Lives = s.lives.Lives()
	s.events = append(s.events, ev)
}

// Drain returns and clears the pending events.
func (s *Session) Drain() []Event {
	out := s.events
	s.events = nil
	return out
}

func (s *Session) State() State     { return s.state }
func (s *Session) Score() int       { return s.score.Value() }
func (s *Session) Lives() int       { return s.lives.Lives() }
func (s *Session) Multiplier() int  { return s.powerups.Multiplier() }
func (s *Session) BubbleCount() int { return len(s.bubbles) }
func (s *Session) Tuning() Tuning   { return s.tuning }

func (s *Session) ActivePowerup() (ActivePowerup, bool) { return s.powerups.Active() }

func (s *Session) PendingPowerups() []PowerupKind { return s.powerups.Pending() }

// Bubble returns a copy of a live bubble.
func (s *Session) Bubble(id int64) (Bubble, bool) {
	idx := s.find(id)
	if idx < 0 {
		return Bubble{}, false
	}
	return *s.bubbles[idx], true
}
