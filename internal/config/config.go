// Package config loads server configuration from the environment.
//
// A .env file in the working directory is read first (if present) so local
// development does not need exported variables; real environment variables
// always win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything cmd/server needs to start.
type Config struct {
	Port        int
	DBPath      string
	StaticDir   string
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
	LogLevel    slog.Level

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// GitHubEnabled reports whether GitHub login is configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads .env (optional) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		DBPath:             get("DB_PATH", "data/notes.db"),
		StaticDir:          get("STATIC_DIR", ""),
		JWTSecret:          get("JWT_SECRET", ""),
		GitHubClientID:     get("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: get("GITHUB_CLIENT_SECRET", ""),
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("config: invalid PORT %q", get("PORT", ""))
	}
	cfg.Port = port

	if len(cfg.JWTSecret) < 16 {
		return Config{}, errors.New("config: JWT_SECRET must be set and at least 16 characters")
	}

	ttl, err := time.ParseDuration(get("TOKEN_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("config: invalid TOKEN_TTL %q", get("TOKEN_TTL", ""))
	}
	cfg.TokenTTL = ttl

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("config: invalid LOG_LEVEL: %w", err)
	}

	for _, email := range strings.Split(get("ADMIN_EMAILS", ""), ",") {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, email)
		}
	}

	cfg.GitHubCallbackURL = get("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/api/auth/github/callback", cfg.Port))

	return cfg, nil
}
