// Package ranking keeps name/score pairs ordered for leaderboard display.
//
// Scores are ordered descending. Equal scores keep the order in which they
// were first submitted: an insert lands after every existing entry with the
// same score, and BulkLoad preserves the relative order of its input.
package ranking

import (
	"sort"
	"time"
)

// Entry is one leaderboard row.
type Entry struct {
	Name      string    `json:"name" msgpack:"name"`
	Score     int       `json:"score" msgpack:"score"`
	CreatedAt time.Time `json:"createdAt,omitempty" msgpack:"createdAt,omitempty"`
}

// Board is an ordered sequence with positional insert.
type Board struct {
	entries []Entry
}

func NewBoard() *Board {
	return &Board{}
}

// Insert places the entry after all entries with a score >= its own.
func (b *Board) Insert(name string, score int) {
	b.InsertEntry(Entry{Name: name, Score: score})
}

func (b *Board) InsertEntry(e Entry) {
	i := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].Score < e.Score
	})
	b.entries = append(b.entries, Entry{})
	copy(b.entries[i+1:], b.entries[i:])
	b.entries[i] = e
}

// BulkLoad replaces the whole board with entries, stably ordered.
func (b *Board) BulkLoad(entries []Entry) {
	fresh := make([]Entry, len(entries))
	copy(fresh, entries)
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Score > fresh[j].Score
	})
	b.entries = fresh
}

// Ordered returns a copy of every entry, highest score first.
func (b *Board) Ordered() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Top returns at most n entries. n <= 0 returns everything.
func (b *Board) Top(n int) []Entry {
	if n <= 0 || n > len(b.entries) {
		return b.Ordered()
	}
	out := make([]Entry, n)
	copy(out, b.entries[:n])
	return out
}

func (b *Board) Len() int { return len(b.entries) }
