package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mauricedolibois/bubblepop/game"
)

// Config is read once at startup from the environment (and .env when present).
type Config struct {
	Port        string
	FrontendURL string
	RedisAddr   string
	RenderEvery time.Duration
	Tuning      game.Tuning
}

// getEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: ignoring invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

// maxRenderHz keeps the render interval well above zero.
const maxRenderHz = 240

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

func loadConfig() Config {
	t := game.DefaultTuning()
	t.QueueCapacity = getEnvInt("POWERUP_QUEUE_CAPACITY", t.QueueCapacity)

	hz := getEnvInt("RENDER_HZ", 60)
	if hz > maxRenderHz {
		log.Printf("Warning: RENDER_HZ=%d capped at %d", hz, maxRenderHz)
		hz = maxRenderHz
	}

	return Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		RedisAddr:   os.Getenv("REDIS_ENDPOINT"),
		RenderEvery: time.Second / time.Duration(hz),
		Tuning:      t,
	}
}
