package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration from environment variables.
type Config struct {
	Port      int
	APIURL    string
	APIKey    string
	AlertsURL string
	Alerts    bool   // poll the service alerts feed
	LinesFile string // optional YAML line table; empty uses the built-in lines

	Geocode    bool   // fall back to address geocoding when no station name matches
	GeocodeURL string // Nominatim base URL

	FetchConcurrency  int           // concurrent per-line stop requests at startup
	TransitionTimeout time.Duration // wait for a pan completion before abandoning it
	SettleDelay       time.Duration // pause between pan completion and highlight redraw

	SessionTTL     time.Duration
	MaxSessions    int
	CookieSecret   string   // HMAC key for signing session cookies
	AllowedOrigins []string // CORS origins for the JSON API

	LogLevel slog.Level
}

// Load reads .env files, then configuration from environment variables
// with defaults. Variables already set in the environment win over both
// files, and .env.local wins over .env.
func Load() *Config {
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			godotenv.Load(f)
		}
	}

	return &Config{
		Port:      envInt("MBTAMAP_PORT", 8080),
		APIURL:    envStr("MBTAMAP_API_URL", "https://api-v3.mbta.com"),
		APIKey:    envStr("MBTAMAP_API_KEY", ""),
		AlertsURL: envStr("MBTAMAP_ALERTS_URL", "https://cdn.mbta.com/realtime/Alerts.pb"),
		Alerts:    envBool("MBTAMAP_ALERTS", true),
		LinesFile: envStr("MBTAMAP_LINES_FILE", ""),

		Geocode:    envBool("MBTAMAP_GEOCODE", true),
		GeocodeURL: envStr("MBTAMAP_GEOCODE_URL", "https://nominatim.openstreetmap.org"),

		FetchConcurrency:  envInt("MBTAMAP_FETCH_CONCURRENCY", 4),
		TransitionTimeout: envDuration("MBTAMAP_TRANSITION_TIMEOUT", 2*time.Second),
		SettleDelay:       envDuration("MBTAMAP_SETTLE_DELAY", 50*time.Millisecond),

		SessionTTL:     envPositiveDuration("MBTAMAP_SESSION_TTL", 2*time.Hour),
		MaxSessions:    envPositiveInt("MBTAMAP_MAX_SESSIONS", 1000),
		CookieSecret:   envStr("MBTAMAP_COOKIE_SECRET", ""),
		AllowedOrigins: envList("MBTAMAP_ALLOWED_ORIGINS"),

		LogLevel: envLevel("MBTAMAP_LOG_LEVEL", slog.LevelInfo),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envPositiveInt is envInt for values where zero or less is meaningless.
func envPositiveInt(key string, fallback int) int {
	if n := envInt(key, fallback); n > 0 {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envPositiveDuration(key string, fallback time.Duration) time.Duration {
	if d := envDuration(key, fallback); d > 0 {
		return d
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			return l
		}
	}
	return fallback
}
