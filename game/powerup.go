package game

import "time"

// PowerupKind names a timed effect.
type PowerupKind string

const (
	PowerupNone        PowerupKind = ""
	PowerupSlowTime    PowerupKind = "slowtime"
	PowerupDoubleScore PowerupKind = "doublescore"
)

// PowerupQueue is a fixed-capacity circular FIFO of pending effects.
type PowerupQueue struct {
	items []PowerupKind
	head  int
	count int
}

func NewPowerupQueue(capacity int) *PowerupQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &PowerupQueue{items: make([]PowerupKind, capacity)}
}

// Enqueue appends kind. A full queue rejects it without mutating.
func (q *PowerupQueue) Enqueue(kind PowerupKind) bool {
	if q.count == len(q.items) {
		return false
	}
	q.items[(q.head+q.count)%len(q.items)] = kind
	q.count++
	return true
}

// Dequeue pops the oldest entry, or (PowerupNone, false) when empty.
func (q *PowerupQueue) Dequeue() (PowerupKind, bool) {
	if q.count == 0 {
		return PowerupNone, false
	}
	kind := q.items[q.head]
	q.items[q.head] = PowerupNone
	q.head = (q.head + 1) % len(q.items)
	q.count--
	return kind, true
}

// Pending lists queued entries in FIFO order.
func (q *PowerupQueue) Pending() []PowerupKind {
	out := make([]PowerupKind, 0, q.count)
	for i := 0; i < q.count; i++ {
		out = append(out, q.items[(q.head+i)%len(q.items)])
	}
	return out
}

func (q *PowerupQueue) IsEmpty() bool { return q.count == 0 }
func (q *PowerupQueue) IsFull() bool  { return q.count == len(q.items) }
func (q *PowerupQueue) Len() int      { return q.count }
func (q *PowerupQueue) Cap() int      { return len(q.items) }

func (q *PowerupQueue) Clear() {
	for i := range q.items {
		q.items[i] = PowerupNone
	}
	q.head = 0
	q.count = 0
}

// ActivePowerup is the single effect currently modifying gameplay.
type ActivePowerup struct {
	Kind      PowerupKind
	StartedAt time.Time
	ExpiresAt time.Time
}

// Remaining returns the fraction of the effect left at now, in [0,1].
func (a ActivePowerup) Remaining(now time.Time) float64 {
	total := a.ExpiresAt.Sub(a.StartedAt)
	if total <= 0 {
		return 0
	}
	left := a.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	if left >= total {
		return 1
	}
	return float64(left) / float64(total)
}

// CaptureResult describes what happened to a captured powerup.
type CaptureResult int

const (
	CaptureActivated CaptureResult = iota
	CaptureQueued
	CaptureDropped
)

// PowerupScheduler runs at most one effect and defers the rest.
type PowerupScheduler struct {
	tuning     Tuning
	active     *ActivePowerup
	queue      *PowerupQueue
	multiplier int
}

func NewPowerupScheduler(t Tuning) *PowerupScheduler {
	return &PowerupScheduler{
		tuning:     t,
		queue:      NewPowerupQueue(t.QueueCapacity),
		multiplier: 1,
	}
}

func (s *PowerupScheduler) duration(kind PowerupKind) time.Duration {
	switch kind {
	case PowerupSlowTime:
		return s.tuning.SlowTimeDuration
	case PowerupDoubleScore:
		return s.tuning.DoubleDuration
	}
	return 0
}

// Activate replaces the active effect with kind.
func (s *PowerupScheduler) Activate(kind PowerupKind, now time.Time) bool {
	d := s.duration(kind)
	if d <= 0 {
		return false
	}
	s.active = &ActivePowerup{Kind: kind, StartedAt: now, ExpiresAt: now.Add(d)}
	s.multiplier = 1
	if kind == PowerupDoubleScore {
		s.multiplier = s.tuning.DoubleMultiplier
	}
	return true
}

// Capture activates kind when idle, otherwise queues it. A full queue drops it.
func (s *PowerupScheduler) Capture(kind PowerupKind, now time.Time) CaptureResult {
	if s.active == nil {
		s.Activate(kind, now)
		return CaptureActivated
	}
	if s.queue.Enqueue(kind) {
		return CaptureQueued
	}
	return CaptureDropped
}

// Tick expires the active effect once its deadline has passed and promotes
// the next queued one. It returns the expired and newly activated kinds.
func (s *PowerupScheduler) Tick(now time.Time) (expired, next PowerupKind) {
	if s.active == nil || now.Before(s.active.ExpiresAt) {
		return PowerupNone, PowerupNone
	}
	expired = s.active.Kind
	if expired == PowerupDoubleScore {
		s.multiplier = 1
	}
	s.active = nil
	if kind, ok := s.queue.Dequeue(); ok {
		s.Activate(kind, now)
		next = kind
	}
	return expired, next
}

// Active returns a copy of the active effect.
func (s *PowerupScheduler) Active() (ActivePowerup, bool) {
	if s.active == nil {
		return ActivePowerup{}, false
	}
	return *s.active, true
}

func (s *PowerupScheduler) Multiplier() int { return s.multiplier }

func (s *PowerupScheduler) SlowTime() bool {
	return s.active != nil && s.active.Kind == PowerupSlowTime
}

func (s *PowerupScheduler) Pending() []PowerupKind { return s.queue.Pending() }

func (s *PowerupScheduler) Queue() *PowerupQueue { return s.queue }

func (s *PowerupScheduler) Clear() {
	s.active = nil
	s.queue.Clear()
	s.multiplier = 1
}
