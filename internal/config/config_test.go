package config

import (
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "REPORT_CACHE_TTL_SECONDS", "ACCESS_TOKEN_TTL_MINUTES", "BUSINESS_TIMEZONE", "LITRES_PER_PACKET", "OPENAI_MODEL", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Address() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Address())
	}
	if cfg.ReportCacheTTL() != 30*time.Second {
		t.Fatalf("expected 30s report cache ttl, got %s", cfg.ReportCacheTTL())
	}
	if cfg.AccessTokenTTL() != 8*time.Hour {
		t.Fatalf("expected 8h token ttl, got %s", cfg.AccessTokenTTL())
	}
	if cfg.BusinessTimezone != "Asia/Kolkata" || cfg.OpenAIModel != "gpt-4o" || cfg.OpenAIAPIKey != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.LitresPerPacket.String() != "2" {
		t.Fatalf("expected 2 litres per packet, got %s", cfg.LitresPerPacket)
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "-5")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "soon")
	t.Setenv("LITRES_PER_PACKET", "0")

	cfg := Load()
	if cfg.ReportCacheTTLSeconds != 30 || cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected fallback ttls, got %+v", cfg)
	}
	if cfg.LitresPerPacket.String() != "2" {
		t.Fatalf("expected fallback litres, got %s", cfg.LitresPerPacket)
	}
}

func TestLocationFallsBackToLocal(t *testing.T) {
	cfg := Config{BusinessTimezone: "Mars/Olympus_Mons"}
	if cfg.Location() != time.Local {
		t.Fatalf("expected local fallback")
	}

	cfg.BusinessTimezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Location())
	}
}
