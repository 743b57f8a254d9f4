package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty allows all", raw: "", want: nil},
		{name: "single", raw: "https://exam.example.com", want: []string{"https://exam.example.com"}},
		{name: "trims and skips blanks", raw: " https://a.test , ,https://b.test ", want: []string{"https://a.test", "https://b.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseOrigins(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("EXAM_CACHE_TTL_MINUTES", "not-a-number")

	cfg := Load()
	if cfg.ServerPort != "9090" {
		t.Fatalf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Fatalf("JWTExpiry = %v, want 2h", cfg.JWTExpiry)
	}
	if cfg.ExamCacheTTL != 30*time.Minute {
		t.Fatalf("ExamCacheTTL = %v, want fallback 30m", cfg.ExamCacheTTL)
	}
}

func TestCacheKeys(t *testing.T) {
	if got := CacheKey.ExamPayloadKey("e1"); got != "exam:e1:payload" {
		t.Fatalf("ExamPayloadKey = %q", got)
	}
}
