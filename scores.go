package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mauricedolibois/bubblepop/db"
	"github.com/mauricedolibois/bubblepop/ranking"
)

const (
	httpLeaderboardLimit = 100
	maxLeaderboardLimit  = 500
	maxNameLength        = 24
)

// ErrInvalidSubmission covers a missing name or a negative score.
var ErrInvalidSubmission = errors.New("name and a non-negative score are required")

// ScoreStore persists finished games and serves the leaderboard.
type ScoreStore interface {
	SubmitScore(ctx context.Context, name string, score int, token string) bool
	FetchTopScores(ctx context.Context, limit int) []ranking.Entry
}

// LeaderboardService stores scores in DynamoDB and mirrors them into the
// Redis leaderboard cache, announcing each save to every pod.
type LeaderboardService struct {
	now       func() time.Time
	cacheWarm atomic.Bool
}

func NewLeaderboardService() *LeaderboardService {
	return &LeaderboardService{now: time.Now}
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name
}

// Submit saves a score. A valid token replaces name with the account name.
func (s *LeaderboardService) Submit(ctx context.Context, name string, score int, token string) (ranking.Entry, error) {
	id := identityFromToken(token)
	if !id.Guest() {
		name = id.Name
	}
	name = cleanName(name)
	if name == "" || score < 0 {
		return ranking.Entry{}, ErrInvalidSubmission
	}

	now := s.now()
	entry := db.NewScoreEntry(name, score, id.UserID, now)
	if err := db.SaveScoreWithMock(ctx, entry); err != nil {
		log.Printf("[SCORES] ERROR: Failed to save score for %s: %v", name, err)
		return ranking.Entry{}, err
	}

	if !id.Guest() {
		if err := db.RecordGameWithMock(ctx, id.UserID, score); err != nil {
			log.Printf("[SCORES] ERROR: Failed to record game for %s: %v", id.UserID, err)
		}
	}

	rank := 0
	if redisEnabled() {
		// A cold cache stays empty until WarmCache fills it from the table
		s.ensureWarm(ctx)
		if s.cacheWarm.Load() {
			r, err := CacheScore(ctx, CachedScore{
				ScoreID:   entry.ScoreID,
				Name:      entry.Name,
				Score:     entry.Score,
				CreatedAt: entry.CreatedAt,
			})
			if err != nil {
				log.Printf("[SCORES] Warning: leaderboard cache update failed: %v", err)
			}
			rank = r
		}
		if err := PublishScoreAnnouncement(ctx, ScoreAnnouncement{
			Name:      entry.Name,
			Score:     entry.Score,
			Rank:      rank,
			FromPodID: GetPodID(),
		}); err != nil {
			log.Printf("[SCORES] Warning: score announcement failed: %v", err)
		}
	}

	log.Printf("[SCORES] Saved %s: %d (rank %d)", entry.Name, entry.Score, rank)
	return ranking.Entry{Name: entry.Name, Score: entry.Score, CreatedAt: now}, nil
}

func (s *LeaderboardService) SubmitScore(ctx context.Context, name string, score int, token string) bool {
	_, err := s.Submit(ctx, name, score, token)
	return err == nil
}

// FetchTopScores reads the cache once it is warm and falls back to the
// table. Failures yield an empty list.
func (s *LeaderboardService) FetchTopScores(ctx context.Context, limit int) []ranking.Entry {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	if redisEnabled() {
		s.ensureWarm(ctx)
	}
	if s.cacheWarm.Load() && redisEnabled() && limit <= leaderboardCacheSize {
		cached, err := GetCachedTopScores(ctx, limit)
		if err == nil && len(cached) > 0 {
			out := make([]ranking.Entry, len(cached))
			for i, c := range cached {
				out[i] = ranking.Entry{Name: c.Name, Score: c.Score, CreatedAt: time.UnixMilli(c.CreatedAt)}
			}
			return out
		}
		if err != nil {
			log.Printf("[SCORES] Warning: leaderboard cache read failed: %v", err)
		}
	}

	entries, err := db.GetTopScoresWithMock(ctx, limit)
	if err != nil {
		log.Printf("[SCORES] ERROR: Failed to load leaderboard: %v", err)
		return []ranking.Entry{}
	}
	out := make([]ranking.Entry, len(entries))
	for i, e := range entries {
		out[i] = ranking.Entry{Name: e.Name, Score: e.Score, CreatedAt: time.UnixMilli(e.CreatedAt)}
	}
	return out
}

// WarmCache copies the stored leaderboard into an empty cache. A cache that
// already holds scores was warmed by another pod.
func (s *LeaderboardService) WarmCache(ctx context.Context) {
	if !redisEnabled() {
		return
	}
	size, err := CachedLeaderboardSize(ctx)
	if err != nil {
		return
	}
	if size > 0 {
		s.cacheWarm.Store(true)
		return
	}

	entries, err := db.GetTopScoresWithMock(ctx, leaderboardCacheSize)
	if err != nil {
		log.Printf("[SCORES] Warning: could not warm leaderboard cache: %v", err)
		return
	}
	for _, e := range entries {
		if _, err := CacheScore(ctx, CachedScore{ScoreID: e.ScoreID, Name: e.Name, Score: e.Score, CreatedAt: e.CreatedAt}); err != nil {
			log.Printf("[SCORES] Warning: could not warm leaderboard cache: %v", err)
			return
		}
	}
	s.cacheWarm.Store(true)
	log.Printf("[SCORES] Leaderboard cache warmed with %d scores", len(entries))
}

// ensureWarm retries WarmCache until one attempt succeeds.
func (s *LeaderboardService) ensureWarm(ctx context.Context) {
	if !s.cacheWarm.Load() {
		s.WarmCache(ctx)
	}
}

type leaderboardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type submitRequest struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handleLeaderboard serves GET (read) and POST (submit) on /api/leaderboard.
func handleLeaderboard(svc *LeaderboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w, "GET, POST, OPTIONS")

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)

		case http.MethodGet:
			limit := httpLeaderboardLimit
			if raw := r.URL.Query().Get("limit"); raw != "" {
				if v, err := strconv.Atoi(raw); err == nil && v > 0 {
					limit = min(v, maxLeaderboardLimit)
				}
			}
			writeJSON(w, http.StatusOK, leaderboardResponse{Success: true, Data: svc.FetchTopScores(r.Context(), limit)})

		case http.MethodPost:
			var req submitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, leaderboardResponse{Error: "Invalid request body"})
				return
			}
			token := bearerToken(r)
			if req.Score == nil || (strings.TrimSpace(req.Name) == "" && identityFromToken(token).Guest()) {
				writeJSON(w, http.StatusBadRequest, leaderboardResponse{Error: "Name and score are required"})
				return
			}

			entry, err := svc.Submit(r.Context(), req.Name, *req.Score, token)
			if errors.Is(err, ErrInvalidSubmission) {
				writeJSON(w, http.StatusBadRequest, leaderboardResponse{Error: err.Error()})
				return
			}
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, leaderboardResponse{Error: "Failed to save score"})
				return
			}
			writeJSON(w, http.StatusCreated, leaderboardResponse{Success: true, Data: entry})

		default:
			writeJSON(w, http.StatusMethodNotAllowed, leaderboardResponse{Error: "method not allowed"})
		}
	}
}
