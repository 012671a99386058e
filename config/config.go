// Package config loads environment variables and provides a typed Config used
// across the bot. It applies sensible defaults so the binary can run locally
// with minimal setup. For required credentials use ValidateBotReady.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// CodinGame
	RememberMeCookie string
	Modes            []string

	// Discord
	DiscordToken   string
	DiscordGuildID string

	// Orchestration timing
	PollInterval time.Duration
	PollTimeout  time.Duration // 0 = poll until a second player joins
	MessageTTL   time.Duration
	RejectTTL    time.Duration

	// HTTP surface
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail if
// credentials are missing; use ValidateBotReady() before connecting.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.RememberMeCookie = os.Getenv("COC_REMEMBER_ME")
	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	cfg.DiscordGuildID = os.Getenv("DISCORD_GUILD_ID")

	modes := os.Getenv("COC_MODES")
	if modes == "" {
		modes = "RANDOM,FASTEST,REVERSE,SHORTEST"
	}
	for _, m := range strings.Split(modes, ",") {
		if m = strings.TrimSpace(m); m != "" {
			cfg.Modes = append(cfg.Modes, m)
		}
	}
	if len(cfg.Modes) == 0 {
		return nil, fmt.Errorf("COC_MODES is set but contains no modes")
	}

	var err error
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.PollTimeout, err = durationEnv("POLL_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.MessageTTL, err = durationEnv("MESSAGE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RejectTTL, err = durationEnv("REJECT_TTL", 5*time.Second); err != nil {
		return nil, err
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", key)
	}
	return d, nil
}

// ValidateBotReady checks required fields before connecting to Discord and
// CodinGame.
func (c *Config) ValidateBotReady() error {
	if c.RememberMeCookie == "" || c.DiscordToken == "" {
		return fmt.Errorf("missing env: require COC_REMEMBER_ME, DISCORD_TOKEN")
	}
	return nil
}
