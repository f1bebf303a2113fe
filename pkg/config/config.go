// Package config loads the assistant's runtime configuration from the
// environment. Every knob has a default; validation fails fast on values that
// would only blow up later at session time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeDisabled AuthMode = "disabled"
)

type Config struct {
	Addr string

	AuthMode AuthMode
	APIKeys  map[string]struct{}

	// Reasoning engine.
	GeminiAPIKey string
	GeminiModel  string

	// Cal.com booking backend. An empty API key or event type ID leaves the
	// booking tools in guidance-only mode; nothing else breaks.
	CalAPIKey      string
	CalEventTypeID string
	CalBaseURL     string

	// Session capture. Empty DatabaseURL disables Postgres persistence; empty
	// R2 settings disable report uploads.
	DatabaseURL       string
	R2Endpoint        string
	R2Bucket          string
	R2AccessKeyID     string
	R2SecretAccessKey string

	// How long a disconnected session stays resumable before teardown.
	CloseGracePeriod time.Duration

	// Per-turn ceiling on tool-call rounds before the engine must answer in
	// plain text.
	MaxToolRounds int

	MaxUtteranceBytes int64

	WSWriteTimeout    time.Duration
	WSPingInterval    time.Duration
	ReadHeaderTimeout time.Duration

	EngineTimeout time.Duration

	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("MELVIN_ADDR", ":8080"),
		AuthMode:            AuthMode(envOr("MELVIN_AUTH_MODE", string(AuthModeDisabled))),
		APIKeys:             make(map[string]struct{}),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         envOr("MELVIN_GEMINI_MODEL", "gemini-2.5-flash"),
		CalAPIKey:           strings.TrimSpace(os.Getenv("CAL_API_KEY")),
		CalEventTypeID:      strings.TrimSpace(os.Getenv("CAL_EVENT_TYPE_ID")),
		CalBaseURL:          envOr("CAL_API_BASE_URL", "https://api.cal.com/v2"),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		R2Endpoint:          strings.TrimSpace(os.Getenv("R2_ENDPOINT")),
		R2Bucket:            strings.TrimSpace(os.Getenv("R2_BUCKET")),
		R2AccessKeyID:       strings.TrimSpace(os.Getenv("R2_ACCESS_KEY_ID")),
		R2SecretAccessKey:   strings.TrimSpace(os.Getenv("R2_SECRET_ACCESS_KEY")),
		CloseGracePeriod:    envDurationOr("MELVIN_CLOSE_GRACE_PERIOD", 60*time.Second),
		MaxToolRounds:       envIntOr("MELVIN_MAX_TOOL_ROUNDS", 6),
		MaxUtteranceBytes:   envInt64Or("MELVIN_MAX_UTTERANCE_BYTES", 16<<10),
		WSWriteTimeout:      envDurationOr("MELVIN_WS_WRITE_TIMEOUT", 10*time.Second),
		WSPingInterval:      envDurationOr("MELVIN_WS_PING_INTERVAL", 20*time.Second),
		ReadHeaderTimeout:   envDurationOr("MELVIN_READ_HEADER_TIMEOUT", 10*time.Second),
		EngineTimeout:       envDurationOr("MELVIN_ENGINE_TIMEOUT", 60*time.Second),
		ShutdownGracePeriod: envDurationOr("MELVIN_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("MELVIN_AUTH_MODE must be one of required|disabled")
	}

	for _, key := range splitCSV(os.Getenv("MELVIN_API_KEYS")) {
		cfg.APIKeys[key] = struct{}{}
	}
	if cfg.AuthMode == AuthModeRequired && len(cfg.APIKeys) == 0 {
		return Config{}, fmt.Errorf("MELVIN_API_KEYS must be set when MELVIN_AUTH_MODE=required")
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if strings.TrimSpace(cfg.GeminiModel) == "" {
		return Config{}, fmt.Errorf("MELVIN_GEMINI_MODEL must not be empty")
	}
	if strings.TrimSpace(cfg.CalBaseURL) == "" {
		return Config{}, fmt.Errorf("CAL_API_BASE_URL must not be empty")
	}
	if cfg.CalEventTypeID != "" {
		if _, err := strconv.Atoi(cfg.CalEventTypeID); err != nil {
			return Config{}, fmt.Errorf("CAL_EVENT_TYPE_ID must be numeric")
		}
	}
	if cfg.CloseGracePeriod <= 0 {
		return Config{}, fmt.Errorf("MELVIN_CLOSE_GRACE_PERIOD must be > 0")
	}
	if cfg.MaxToolRounds <= 0 {
		return Config{}, fmt.Errorf("MELVIN_MAX_TOOL_ROUNDS must be > 0")
	}
	if cfg.MaxUtteranceBytes <= 0 {
		return Config{}, fmt.Errorf("MELVIN_MAX_UTTERANCE_BYTES must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("MELVIN_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("MELVIN_WS_PING_INTERVAL must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("MELVIN_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.EngineTimeout <= 0 {
		return Config{}, fmt.Errorf("MELVIN_ENGINE_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("MELVIN_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	// R2 upload is all-or-nothing: a partial credential set is a deploy
	// mistake, not a feature toggle.
	r2Fields := []string{cfg.R2Endpoint, cfg.R2Bucket, cfg.R2AccessKeyID, cfg.R2SecretAccessKey}
	var r2Set int
	for _, f := range r2Fields {
		if f != "" {
			r2Set++
		}
	}
	if r2Set != 0 && r2Set != len(r2Fields) {
		return Config{}, fmt.Errorf("R2_ENDPOINT, R2_BUCKET, R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY must be set together")
	}

	return cfg, nil
}

// CaptureEnabled reports whether session reports have anywhere to go.
func (c Config) CaptureEnabled() bool {
	return c.DatabaseURL != "" || c.R2Enabled()
}

func (c Config) R2Enabled() bool {
	return c.R2Endpoint != "" && c.R2Bucket != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != ""
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
