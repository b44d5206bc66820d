package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Search    SearchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Store     StoreConfig
	Watch     WatchConfig
	Log       LogConfig
	Engine    EngineConfig
}

// EngineConfig controls the multi-engine fetch dispatcher.
type EngineConfig struct {
	// EnableMultiEngine toggles the multi-engine dispatcher.
	EnableMultiEngine bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s
}

// CacheConfig controls the search response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// StoreConfig controls the price snapshot store.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables persistence.
	Path string // default: "shopscout.db"
}

// WatchConfig controls the scheduled price watcher.
type WatchConfig struct {
	// Enabled toggles the cron scheduler.
	Enabled bool // default: true

	// Schedule is the cron expression for running all watches.
	Schedule string // default: "0 */6 * * *" (every 6 hours)
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// SearchConfig controls search fetch behavior.
type SearchConfig struct {
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// BlockedResourceTypes lists resource types to block while rendering
	// search pages. Images stay loadable because some marketplaces
	// lazy-load result tiles only after their images start fetching.
	// default: ["Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys (for MVP; replace with DB later).
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SHOPSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("SHOPSCOUT_PORT", 8080),
			Mode: envOr("SHOPSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SHOPSCOUT_HEADLESS", true),
			MaxPages:     envIntOr("SHOPSCOUT_MAX_PAGES", 10),
			DefaultProxy: os.Getenv("SHOPSCOUT_PROXY"),
			NoSandbox:    envBoolOr("SHOPSCOUT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SHOPSCOUT_BROWSER_BIN"),
		},
		Search: SearchConfig{
			DefaultTimeout:    envDurationOr("SHOPSCOUT_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:        envDurationOr("SHOPSCOUT_MAX_TIMEOUT", 120*time.Second),
			NavigationTimeout: envDurationOr("SHOPSCOUT_NAV_TIMEOUT", 15*time.Second),
			BlockedResourceTypes: envSliceOr("SHOPSCOUT_BLOCKED_RESOURCES", []string{
				"Stylesheet", "Font", "Media",
			}),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SHOPSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SHOPSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SHOPSCOUT_RATE_RPS", 5.0),
			Burst:             envIntOr("SHOPSCOUT_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SHOPSCOUT_CACHE_MAX_ENTRIES", 1000),
		},
		Store: StoreConfig{
			Path: envOr("SHOPSCOUT_DB_PATH", "shopscout.db"),
		},
		Watch: WatchConfig{
			Enabled:  envBoolOr("SHOPSCOUT_WATCH_ENABLED", true),
			Schedule: envOr("SHOPSCOUT_WATCH_SCHEDULE", "0 */6 * * *"),
		},
		Log: LogConfig{
			Level:  envOr("SHOPSCOUT_LOG_LEVEL", "info"),
			Format: envOr("SHOPSCOUT_LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("SHOPSCOUT_MULTI_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("SHOPSCOUT_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:       envDurationOr("SHOPSCOUT_HTTP_TIMEOUT", 5*time.Second),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
