package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "dev")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "8080" || cfg.ChatBus != BusLocal || cfg.MaxMessageLength != 5000 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.PresenceSyncInterval != 30*time.Second || cfg.PresenceStaleAfter != 2*time.Minute {
		t.Fatalf("unexpected presence timings %v %v", cfg.PresenceSyncInterval, cfg.PresenceStaleAfter)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env, got %q", cfg.AppEnv)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "redis bus without url",
			env:  map[string]string{"CHAT_BUS": "redis"},
			want: "RedisURL",
		},
		{
			name: "nats bus without url",
			env:  map[string]string{"CHAT_BUS": "nats"},
			want: "NATSURL",
		},
		{
			name: "unknown bus",
			env:  map[string]string{"CHAT_BUS": "kafka"},
			want: "ChatBus",
		},
		{
			name: "stale window shorter than sync interval",
			env:  map[string]string{"PRESENCE_SYNC_INTERVAL": "1m", "PRESENCE_STALE_AFTER": "30s"},
			want: "PresenceStaleAfter",
		},
		{
			name: "bad log format",
			env:  map[string]string{"LOG_FORMAT": "xml"},
			want: "LogFormat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "soon")

	if got := getEnvInt("SOME_INT", 7); got != 7 {
		t.Fatalf("getEnvInt fallback: got %d", got)
	}
	if got := getEnvBool("SOME_BOOL", true); !got {
		t.Fatal("getEnvBool fallback: got false")
	}
	if got := getEnvDuration("SOME_DURATION", time.Second); got != time.Second {
		t.Fatalf("getEnvDuration fallback: got %v", got)
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{
		"PROD":    "production",
		"stage":   "staging",
		"testing": "test",
		"custom":  "custom",
	}
	for in, want := range cases {
		if got := normalizeEnv(in); got != want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}
