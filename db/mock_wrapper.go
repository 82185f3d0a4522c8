package db

import (
	"context"
	"log"

	"github.com/mauricedolibois/bubblepop/mocks"
)

// useMocks indicates whether to use mock implementations
var useMocks bool

// InitWithMocks initializes the database layer with mock support
func InitWithMocks() {
	useMocks = mocks.IsMockMode()

	if useMocks {
		log.Println("[DB] Running in MOCK MODE - using in-memory database")
		mocks.GetMockDynamoDB()
	} else {
		Init()
	}
}

// SaveScoreWithMock saves a leaderboard submission (mock or real)
func SaveScoreWithMock(ctx context.Context, entry ScoreEntry) error {
	if useMocks {
		return mocks.GetMockDynamoDB().SaveScore(mocks.ScoreRecord{
			ScoreID:   entry.ScoreID,
			Name:      entry.Name,
			Score:     entry.Score,
			UserID:    entry.UserID,
			CreatedAt: entry.CreatedAt,
		})
	}
	return SaveScore(ctx, entry)
}

// GetTopScoresWithMock retrieves the best submissions (mock or real)
func GetTopScoresWithMock(ctx context.Context, limit int) ([]ScoreEntry, error) {
	if useMocks {
		records, err := mocks.GetMockDynamoDB().GetTopScores(limit)
		if err != nil {
			return nil, err
		}
		entries := make([]ScoreEntry, len(records))
		for i, r := range records {
			entries[i] = ScoreEntry{
				ScoreID:   r.ScoreID,
				Name:      r.Name,
				Score:     r.Score,
				UserID:    r.UserID,
				CreatedAt: r.CreatedAt,
			}
		}
		return entries, nil
	}
	return GetTopScores(ctx, limit)
}

// SaveUserWithMock saves a user (mock or real)
func SaveUserWithMock(ctx context.Context, user BubbleUser) error {
	if useMocks {
		return mocks.GetMockDynamoDB().SaveUser(mocks.BubbleUser{
			UserID:      user.UserID,
			Email:       user.Email,
			Name:        user.Name,
			Picture:     user.Picture,
			BestScore:   user.BestScore,
			GamesPlayed: user.GamesPlayed,
		})
	}
	return SaveUser(ctx, user)
}

// GetUserWithMock retrieves a user (mock or real)
func GetUserWithMock(ctx context.Context, userID string) (*BubbleUser, error) {
	if useMocks {
		mockUser, err := mocks.GetMockDynamoDB().GetUser(userID)
		if err != nil || mockUser == nil {
			return nil, err
		}
		return &BubbleUser{
			UserID:      mockUser.UserID,
			Email:       mockUser.Email,
			Name:        mockUser.Name,
			Picture:     mockUser.Picture,
			BestScore:   mockUser.BestScore,
			GamesPlayed: mockUser.GamesPlayed,
		}, nil
	}
	return GetUser(ctx, userID)
}

// RecordGameWithMock updates a user's game stats (mock or real)
func RecordGameWithMock(ctx context.Context, userID string, score int) error {
	if useMocks {
		return mocks.GetMockDynamoDB().RecordGame(userID, score)
	}
	return RecordGame(ctx, userID, score)
}

// IsMockMode returns whether mock mode is enabled
func IsMockMode() bool {
	return useMocks
}
