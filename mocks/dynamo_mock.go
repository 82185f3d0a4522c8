package mocks

import (
	"log"
	"sort"
	"sync"
	"time"
)

// MockDynamoDB provides an in-memory mock for DynamoDB operations
type MockDynamoDB struct {
	mu     sync.RWMutex
	users  map[string]BubbleUser
	scores []ScoreRecord
}

// BubbleUser represents a user in the mock database
type BubbleUser struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture"`
	BestScore   int    `json:"bestScore"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// ScoreRecord represents a leaderboard submission in the mock database
type ScoreRecord struct {
	ScoreID   string `json:"scoreId"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"` // Unix millis
}

var mockDynamoInstance *MockDynamoDB
var mockDynamoOnce sync.Once

// GetMockDynamoDB returns the singleton mock DynamoDB instance
func GetMockDynamoDB() *MockDynamoDB {
	mockDynamoOnce.Do(func() {
		mockDynamoInstance = NewMockDynamoDB()
		// Add some sample data for local development
		mockDynamoInstance.seedData()
		log.Println("[MOCK] In-memory DynamoDB initialized for local development")
	})
	return mockDynamoInstance
}

// NewMockDynamoDB returns an empty, unseeded instance
func NewMockDynamoDB() *MockDynamoDB {
	return &MockDynamoDB{
		users:  make(map[string]BubbleUser),
		scores: make([]ScoreRecord, 0),
	}
}

// seedData adds sample data for local testing
func (m *MockDynamoDB) seedData() {
	now := time.Now().UnixMilli()
	sampleUsers := []BubbleUser{
		{UserID: "mock-user-1", Email: "alice@example.com", Name: "Alice Popper", BestScore: 4200, GamesPlayed: 12},
		{UserID: "mock-user-2", Email: "bob@example.com", Name: "Bob Bubbles", BestScore: 2900, GamesPlayed: 5},
	}
	for _, u := range sampleUsers {
		m.users[u.UserID] = u
	}

	sampleScores := []ScoreRecord{
		{ScoreID: "mock-score-1", Name: "Alice Popper", Score: 4200, UserID: "mock-user-1", CreatedAt: now - 7200_000},
		{ScoreID: "mock-score-2", Name: "Bob Bubbles", Score: 2900, UserID: "mock-user-2", CreatedAt: now - 3600_000},
		{ScoreID: "mock-score-3", Name: "guest", Score: 1500, CreatedAt: now - 600_000},
	}
	m.scores = append(m.scores, sampleScores...)

	log.Printf("[MOCK] Seeded %d users and %d scores for local development", len(sampleUsers), len(sampleScores))
}

// --- User Operations ---

// SaveUser saves or updates a user
func (m *MockDynamoDB) SaveUser(user BubbleUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.users[user.UserID]
	if exists {
		// Preserve stats when updating
		user.BestScore = existing.BestScore
		user.GamesPlayed = existing.GamesPlayed
	}
	m.users[user.UserID] = user
	log.Printf("[MOCK] User saved: %s (%s)", user.Name, user.UserID)
	return nil
}

// GetUser retrieves a user by ID
func (m *MockDynamoDB) GetUser(userID string) (*BubbleUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[userID]
	if !exists {
		return nil, nil
	}
	return &user, nil
}

// RecordGame bumps the games counter and keeps the best score
func (m *MockDynamoDB) RecordGame(userID string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return nil
	}
	user.GamesPlayed++
	if score > user.BestScore {
		user.BestScore = score
	}
	m.users[userID] = user
	log.Printf("[MOCK] User %s recorded game: %d (best: %d)", userID, score, user.BestScore)
	return nil
}

// --- Score Operations ---

// SaveScore appends a leaderboard submission
func (m *MockDynamoDB) SaveScore(rec ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scores = append(m.scores, rec)
	log.Printf("[MOCK] Score saved: %s (%s: %d)", rec.ScoreID, rec.Name, rec.Score)
	return nil
}

// GetTopScores returns the best submissions, earliest first on ties
func (m *MockDynamoDB) GetTopScores(limit int) ([]ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := make([]ScoreRecord, len(m.scores))
	copy(scores, m.scores)

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].CreatedAt < scores[j].CreatedAt
	})

	if limit > len(scores) || limit <= 0 {
		limit = len(scores)
	}
	return scores[:limit], nil
}

// CountScores returns the number of stored submissions
func (m *MockDynamoDB) CountScores() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scores)
}
