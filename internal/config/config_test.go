package config

import (
	"log/slog"
	"os"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.CanvasWidth != 1280 || cfg.CanvasHeight != 720 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MDNSEnabled {
		t.Error("mdns should be off by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MDNS_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9000 || !cfg.MDNSEnabled {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestLoadRejectsBadCanvas(t *testing.T) {
	t.Setenv("CANVAS_WIDTH", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero canvas width")
	}
}

func TestOrigins(t *testing.T) {
	cfg := Config{AllowedOrigins: "http://localhost:3000, https://draw.example ,"}
	want := []string{"localhost:3000", "draw.example"}
	if got := cfg.Origins(); !reflect.DeepEqual(got, want) {
		t.Errorf("Origins = %v, want %v", got, want)
	}
}

func TestSlogLevelFallback(t *testing.T) {
	cfg := Config{LogLevel: "chatty"}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel = %v, want info", cfg.SlogLevel())
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("DRAWROOM_ROOM", "sketches")
	t.Setenv("STRICT", "true")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Room != "sketches" || !cfg.Strict || cfg.Output != "room.png" || cfg.ServerURL != "" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadClientRequiresRoom(t *testing.T) {
	// Setenv restores the variable after the test; required only checks presence.
	t.Setenv("DRAWROOM_ROOM", "")
	os.Unsetenv("DRAWROOM_ROOM")
	if _, err := LoadClient(); err == nil {
		t.Error("expected error without DRAWROOM_ROOM")
	}
}
