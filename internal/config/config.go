package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/codepanda/gestureimage/internal/engine"
)

type Config struct {
	Port              int    `envconfig:"PORT" default:"8080"`
	DatabaseURL       string `envconfig:"DATABASE_URL"` // empty keeps maps in memory
	JWTSecret         string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
	AssetDir          string `envconfig:"ASSET_DIR" default:"./data/assets"`
	MapFile           string `envconfig:"MAP_FILE"`
	MapName           string `envconfig:"MAP_NAME" default:"sample"`
	AllowedOrigins    string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`

	ClickThreshold int     `envconfig:"CLICK_THRESHOLD_PX" default:"3"`
	MinScale       float64 `envconfig:"MIN_SCALE" default:"0.8"`
	MaxScale       float64 `envconfig:"MAX_SCALE" default:"4.0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.EngineOptions().Validate(); err != nil {
		return nil, fmt.Errorf("gesture limits: %w", err)
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EngineOptions returns the gesture limits for new surfaces.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		ClickThreshold: c.ClickThreshold,
		MinScale:       c.MinScale,
		MaxScale:       c.MaxScale,
	}
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginPatterns strips the scheme from each origin, the form the websocket
// library matches against.
func (c *Config) OriginPatterns() []string {
	origins := c.Origins()
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		out = append(out, o)
	}
	return out
}
