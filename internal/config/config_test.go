package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("SECRET_TOKEN", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.WebhookPath != "/telegram/webhook" {
		t.Errorf("port/path = %q %q", cfg.Port, cfg.WebhookPath)
	}
	if cfg.ProMinWords != 800 || cfg.ProMaxWords != 1200 {
		t.Errorf("word range = %d..%d", cfg.ProMinWords, cfg.ProMaxWords)
	}
	if cfg.GenerationTimeout != 20*time.Second || cfg.SessionCacheTTL != 10*time.Minute {
		t.Errorf("timeouts = %v %v", cfg.GenerationTimeout, cfg.SessionCacheTTL)
	}
	if !cfg.VoiceInput || !cfg.MenuCollapse || !cfg.LangHysteresis {
		t.Error("boolean defaults should be on")
	}
	if cfg.SessionStore != "memory" || cfg.PayPalEnabled() {
		t.Errorf("store = %q paypal = %v", cfg.SessionStore, cfg.PayPalEnabled())
	}
}

func TestLoadAliases(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("SECRET_TOKEN", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg")
	t.Setenv("WEBHOOK_SECRET", "ws")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotToken != "tg" || cfg.Secret != "ws" {
		t.Errorf("aliases not applied: %q %q", cfg.BotToken, cfg.Secret)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing token", map[string]string{"BOT_TOKEN": ""}, "BOT_TOKEN is required"},
		{"missing secret", map[string]string{"SECRET_TOKEN": ""}, "SECRET_TOKEN is required"},
		{"bad int", map[string]string{"PRO_MIN_WORDS": "many"}, "PRO_MIN_WORDS"},
		{"inverted range", map[string]string{"PRO_MIN_WORDS": "2000"}, "exceeds"},
		{"bad duration", map[string]string{"STT_TIMEOUT": "soon"}, "STT_TIMEOUT"},
		{"bad bool", map[string]string{"MENU_COLLAPSE": "maybe"}, "MENU_COLLAPSE"},
		{"bad port", map[string]string{"PORT": "http"}, "PORT"},
		{"redis without url", map[string]string{"SESSION_STORE": "redis"}, "REDIS_URL"},
		{"unknown store", map[string]string{"SESSION_STORE": "disk"}, "SESSION_STORE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("TELEGRAM_BOT_TOKEN", "")
			t.Setenv("WEBHOOK_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestPayPalEnabled(t *testing.T) {
	setRequired(t)
	t.Setenv("PAYPAL_CLIENT_ID", "id")
	t.Setenv("PAYPAL_SECRET", "secret")
	t.Setenv("BASE_URL", "https://bot.example/")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.PayPalEnabled() || cfg.BaseURL != "https://bot.example" {
		t.Errorf("enabled = %v base = %q", cfg.PayPalEnabled(), cfg.BaseURL)
	}
}
