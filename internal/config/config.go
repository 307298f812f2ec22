package config

import (
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	AdminEmails []string
	Location    *time.Location
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Release     string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tz := getenv("TZ", "Asia/Jakarta")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	admins, err := parseEmails(os.Getenv("ADMIN_EMAILS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_EMAILS: %w", err)
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AdminEmails: admins,
		Location:    loc,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Release:     getenv("RELEASE", "dev"),
	}
	return cfg, nil
}

// StoreConfigured reports whether a database is set. Without one the
// service starts read-only and refuses every mutation.
func (c *Config) StoreConfigured() bool { return c.DatabaseURL != "" }

// IsAdmin reports whether email is on the allow-list. An empty list
// admits everyone.
func (c *Config) IsAdmin(email string) bool {
	if len(c.AdminEmails) == 0 {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseEmails(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' || r == '\n' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		addr, err := mail.ParseAddress(p)
		if err != nil {
			return nil, fmt.Errorf("bad email %q: %w", p, err)
		}
		out = append(out, strings.ToLower(addr.Address))
	}
	return out, nil
}
