package main

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("RENDER_HZ", "")
	t.Setenv("POWERUP_QUEUE_CAPACITY", "")

	cfg := loadConfig()
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RenderEvery != time.Second/60 {
		t.Errorf("Expected 60Hz render, got %v", cfg.RenderEvery)
	}
	if cfg.Tuning.QueueCapacity != 5 {
		t.Errorf("Expected queue capacity 5, got %d", cfg.Tuning.QueueCapacity)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RENDER_HZ", "30")
	t.Setenv("POWERUP_QUEUE_CAPACITY", "3")

	cfg := loadConfig()
	if cfg.Port != "9090" || cfg.RenderEvery != time.Second/30 || cfg.Tuning.QueueCapacity != 3 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
}

func TestGetEnvIntRejectsInvalid(t *testing.T) {
	t.Setenv("RENDER_HZ", "fast")
	if got := getEnvInt("RENDER_HZ", 60); got != 60 {
		t.Errorf("Expected fallback 60, got %d", got)
	}
	t.Setenv("RENDER_HZ", "-4")
	if got := getEnvInt("RENDER_HZ", 60); got != 60 {
		t.Errorf("Expected fallback 60 for negative value, got %d", got)
	}
}

func TestLoadConfigCapsRenderRate(t *testing.T) {
	t.Setenv("RENDER_HZ", "2000000000")

	cfg := loadConfig()
	if cfg.RenderEvery != time.Second/maxRenderHz {
		t.Errorf("Expected render interval capped at %v, got %v", time.Second/maxRenderHz, cfg.RenderEvery)
	}
}
