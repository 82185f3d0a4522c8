package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mauricedolibois/bubblepop/db"
)

// Response structure for API endpoints
type Response struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	PodID   string `json:"podId,omitempty"`
	Mocks   bool   `json:"mocks,omitempty"`
	Cache   bool   `json:"cache,omitempty"`
}

// Health check endpoint
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	response := Response{
		Message: "Bubble Pop backend is running",
		Status:  "healthy",
		PodID:   GetPodID(),
		Mocks:   db.IsMockMode(),
		Cache:   IsRedisAvailable(r.Context()),
	}
	json.NewEncoder(w).Encode(response)
}

// API info endpoint
func apiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	response := Response{
		Message: "Bubble Pop API",
		Status:  "ready",
	}
	json.NewEncoder(w).Encode(response)
}

func newRouter(manager *SessionManager, scores *LeaderboardService) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/api", apiHandler)
	mux.HandleFunc("/api/leaderboard", handleLeaderboard(scores))
	mux.HandleFunc("/auth/google/login", handleGoogleLogin)
	mux.HandleFunc("/auth/google/callback", handleGoogleCallback)
	mux.HandleFunc("/auth/verify", handleVerifySession)
	mux.HandleFunc("/auth/logout", handleLogout)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(manager, w, r)
	})
	return mux
}

func main() {
	loadDotEnv()
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initAuth(cfg)
	db.InitWithMocks()
	if err := InitRedis(ctx, cfg.RedisAddr); err != nil {
		log.Printf("[REDIS] Continuing without leaderboard cache: %v", err)
	}

	scores := NewLeaderboardService()
	scores.WarmCache(ctx)

	manager := NewSessionManager(cfg, scores)
	manager.SubscribeToScoreAnnouncements(ctx)
	go manager.Run(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: newRouter(manager, scores),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
}
