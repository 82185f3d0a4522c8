package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mauricedolibois/bubblepop/ranking"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doLeaderboard(t *testing.T, svc *LeaderboardService, method, target, body, token string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handleLeaderboard(svc)(w, r)

	var resp apiResponse
	if method != http.MethodOptions {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func TestLeaderboardGet(t *testing.T) {
	svc := NewLeaderboardService()

	w, resp := doLeaderboard(t, svc, http.MethodGet, "/api/leaderboard?limit=2", "", "")
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("Expected 200 success, got %d %+v", w.Code, resp)
	}

	var entries []ranking.Entry
	if err := json.Unmarshal(resp.Data, &entries); err != nil {
		t.Fatalf("Invalid data: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Score < entries[1].Score {
		t.Errorf("Leaderboard not descending: %+v", entries)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Expected CORS headers")
	}
}

func TestLeaderboardPreflight(t *testing.T) {
	w, _ := doLeaderboard(t, NewLeaderboardService(), http.MethodOptions, "/api/leaderboard", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for preflight, got %d", w.Code)
	}
}

func TestLeaderboardPost_MissingFields(t *testing.T) {
	svc := NewLeaderboardService()

	cases := []string{
		`{"score": 10}`,
		`{"name": "Zed"}`,
		`{"name": "   ", "score": 10}`,
		`not json`,
	}
	for _, body := range cases {
		w, resp := doLeaderboard(t, svc, http.MethodPost, "/api/leaderboard", body, "")
		if w.Code != http.StatusBadRequest || resp.Success || resp.Error == "" {
			t.Errorf("Body %s: expected 400 with error, got %d %+v", body, w.Code, resp)
		}
	}
}

func TestLeaderboardPost_NegativeScore(t *testing.T) {
	w, _ := doLeaderboard(t, NewLeaderboardService(), http.MethodPost, "/api/leaderboard", `{"name":"Neg","score":-5}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative score, got %d", w.Code)
	}
}

func TestLeaderboardPost_Created(t *testing.T) {
	svc := NewLeaderboardService()

	w, resp := doLeaderboard(t, svc, http.MethodPost, "/api/leaderboard", `{"name":"  Zed  ","score":123}`, "")
	if w.Code != http.StatusCreated || !resp.Success {
		t.Fatalf("Expected 201 success, got %d %+v", w.Code, resp)
	}

	var entry ranking.Entry
	json.Unmarshal(resp.Data, &entry)
	if entry.Name != "Zed" || entry.Score != 123 {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestLeaderboardPost_TokenOverridesName(t *testing.T) {
	svc := NewLeaderboardService()
	token := signedTestToken(t, "user-9", "Alice Account")

	w, resp := doLeaderboard(t, svc, http.MethodPost, "/api/leaderboard", `{"name":"spoof","score":77}`, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d %+v", w.Code, resp)
	}
	var entry ranking.Entry
	json.Unmarshal(resp.Data, &entry)
	if entry.Name != "Alice Account" {
		t.Errorf("Expected authenticated name, got %q", entry.Name)
	}

	// Signed-in players may omit the name entirely
	w, _ = doLeaderboard(t, svc, http.MethodPost, "/api/leaderboard", `{"score":78}`, token)
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201 without name for signed-in player, got %d", w.Code)
	}
}

func TestLeaderboardMethodNotAllowed(t *testing.T) {
	w, _ := doLeaderboard(t, NewLeaderboardService(), http.MethodDelete, "/api/leaderboard", "", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestSubmitScoreAnnouncesAndCaches(t *testing.T) {
	ctx := context.Background()
	svc := NewLeaderboardService()
	svc.WarmCache(ctx)

	var got []ScoreAnnouncement
	announced := make(chan ScoreAnnouncement, 16)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	SubscribeToScores(subCtx, func(a ScoreAnnouncement) { announced <- a })

	if !svc.SubmitScore(ctx, "Champion", 1_000_000, "") {
		t.Fatal("SubmitScore failed")
	}

	top := svc.FetchTopScores(ctx, 1)
	if len(top) != 1 || top[0].Name != "Champion" {
		t.Fatalf("Expected the new best score on top, got %+v", top)
	}

	for len(got) == 0 {
		select {
		case a := <-announced:
			if a.Name == "Champion" {
				got = append(got, a)
			}
		case <-time.After(time.Second):
			t.Fatal("Timeout waiting for score announcement")
		}
	}
	if got[0].Rank != 1 || got[0].FromPodID != GetPodID() {
		t.Errorf("Unexpected announcement %+v", got[0])
	}
}

func TestSubmitFromColdServiceReachesWarmCache(t *testing.T) {
	ctx := context.Background()
	warm := NewLeaderboardService()
	warm.WarmCache(ctx)

	// Never warmed, as if WarmCache failed at startup
	cold := NewLeaderboardService()
	if _, err := cold.Submit(ctx, "LatePodChampion", 999_999, ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !cold.cacheWarm.Load() {
		t.Error("Expected Submit to retry warming the cache")
	}

	found := false
	for _, e := range warm.FetchTopScores(ctx, 50) {
		if e.Name == "LatePodChampion" && e.Score == 999_999 {
			found = true
		}
	}
	if !found {
		t.Fatal("Expected the score from the cold service in the cached leaderboard")
	}
}

func TestSubmitScoreRejectsGuestWithoutName(t *testing.T) {
	if NewLeaderboardService().SubmitScore(context.Background(), "  ", 10, "") {
		t.Error("Expected guest without a name to be rejected")
	}
}

func TestCleanNameTruncates(t *testing.T) {
	long := strings.Repeat("ü", maxNameLength+5)
	if got := cleanName(long); len([]rune(got)) != maxNameLength {
		t.Errorf("Expected %d runes, got %d", maxNameLength, len([]rune(got)))
	}
}
