package game

import (
	"container/heap"
	"time"
)

type timerKind int

const (
	timerSpawn timerKind = iota
	timerExpire
	timerRemove
	timerPowerup
)

type timer struct {
	at     time.Time
	seq    uint64
	kind   timerKind
	bubble int64
	index  int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// timeline is the ordered queue of pending session timers. Every timer
// belongs to exactly one timeline; replacing the timeline drops them all.
type timeline struct {
	h        timerHeap
	seq      uint64
	byBubble map[int64][]*timer
}

func newTimeline() *timeline {
	return &timeline{byBubble: make(map[int64][]*timer)}
}

func (tl *timeline) schedule(kind timerKind, at time.Time, bubble int64) *timer {
	tl.seq++
	t := &timer{at: at, seq: tl.seq, kind: kind, bubble: bubble}
	heap.Push(&tl.h, t)
	if kind == timerExpire || kind == timerRemove {
		tl.byBubble[bubble] = append(tl.byBubble[bubble], t)
	}
	return t
}

// cancelBubble drops every pending timer of a bubble.
func (tl *timeline) cancelBubble(id int64) {
	for _, t := range tl.byBubble[id] {
		if t.index >= 0 {
			heap.Remove(&tl.h, t.index)
		}
	}
	delete(tl.byBubble, id)
}

func (tl *timeline) cancelKind(kind timerKind) {
	kept := tl.h[:0]
	for _, t := range tl.h {
		if t.kind == kind {
			t.index = -1
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(tl.h); i++ {
		tl.h[i] = nil
	}
	tl.h = kept
	for i, t := range tl.h {
		t.index = i
	}
	heap.Init(&tl.h)
}

func (tl *timeline) has(kind timerKind) bool {
	for _, t := range tl.h {
		if t.kind == kind {
			return true
		}
	}
	return false
}

// popDue removes and returns the earliest timer due at or before now.
func (tl *timeline) popDue(now time.Time) (*timer, bool) {
	if len(tl.h) == 0 || tl.h[0].at.After(now) {
		return nil, false
	}
	t := heap.Pop(&tl.h).(*timer)
	if t.kind == timerExpire || t.kind == timerRemove {
		list := tl.byBubble[t.bubble]
		for i, other := range list {
			if other == t {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(tl.byBubble, t.bubble)
		} else {
			tl.byBubble[t.bubble] = list
		}
	}
	return t, true
}

func (tl *timeline) next() (time.Time, bool) {
	if len(tl.h) == 0 {
		return time.Time{}, false
	}
	return tl.h[0].at, true
}

func (tl *timeline) Len() int { return len(tl.h) }
