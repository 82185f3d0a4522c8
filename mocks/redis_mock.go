package mocks

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
)

// LeaderboardCap bounds the cached leaderboard, like ZREMRANGEBYRANK on the real cache
const LeaderboardCap = 500

// MockRedis provides an in-memory mock for Redis/Valkey operations
type MockRedis struct {
	mu          sync.RWMutex
	board       []CachedScore
	subscribers []chan string
	podID       string
}

// CachedScore is one member of the cached leaderboard
type CachedScore struct {
	ScoreID   string `json:"scoreId"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	CreatedAt int64  `json:"createdAt"`
}

// ScoreAnnouncement is broadcast to every pod when a score is saved
type ScoreAnnouncement struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
	FromID string `json:"fromPodId"`
}

var mockRedisInstance *MockRedis
var mockRedisOnce sync.Once

// GetMockRedis returns the singleton mock redis instance
func GetMockRedis() *MockRedis {
	mockRedisOnce.Do(func() {
		mockRedisInstance = NewMockRedis("mock-pod-local")
		log.Println("[MOCK] In-memory Redis/Valkey initialized for local development")
	})
	return mockRedisInstance
}

// NewMockRedis returns an empty instance
func NewMockRedis(podID string) *MockRedis {
	return &MockRedis{
		board:       make([]CachedScore, 0),
		subscribers: make([]chan string, 0),
		podID:       podID,
	}
}

// GetPodID returns the mock pod ID
func (m *MockRedis) GetPodID() string {
	return m.podID
}

// CacheScore adds a score to the cached leaderboard and returns its 1-based rank
func (m *MockRedis) CacheScore(entry CachedScore) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-adding a member only replaces it, like ZADD
	replaced := false
	for i, e := range m.board {
		if e.ScoreID == entry.ScoreID {
			m.board[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		m.board = append(m.board, entry)
	}
	// Mimics sorted set ordering with the earliest submission first on ties
	sort.SliceStable(m.board, func(i, j int) bool {
		if m.board[i].Score != m.board[j].Score {
			return m.board[i].Score > m.board[j].Score
		}
		return m.board[i].CreatedAt < m.board[j].CreatedAt
	})
	if len(m.board) > LeaderboardCap {
		m.board = m.board[:LeaderboardCap]
	}

	rank := 0
	for i, e := range m.board {
		if e.ScoreID == entry.ScoreID {
			rank = i + 1
			break
		}
	}
	log.Printf("[MOCK] Score cached: %s (%d) rank %d - Board size: %d", entry.Name, entry.Score, rank, len(m.board))
	return rank, nil
}

// TopScores returns up to limit cached scores, best first
func (m *MockRedis) TopScores(limit int) ([]CachedScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.board) {
		limit = len(m.board)
	}
	out := make([]CachedScore, limit)
	copy(out, m.board[:limit])
	return out, nil
}

// LeaderboardSize returns the number of cached scores
func (m *MockRedis) LeaderboardSize() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.board))
}

// PublishScore sends a score announcement to every subscriber
func (m *MockRedis) PublishScore(announcement ScoreAnnouncement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(announcement)
	if err != nil {
		return err
	}

	for _, sub := range m.subscribers {
		select {
		case sub <- string(data):
		default:
			// Channel full, skip
		}
	}

	log.Printf("[MOCK] Score published: %s %d", announcement.Name, announcement.Score)
	return nil
}

// Subscribe returns a channel for score announcements
func (m *MockRedis) Subscribe() chan string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan string, 10)
	m.subscribers = append(m.subscribers, ch)
	return ch
}
