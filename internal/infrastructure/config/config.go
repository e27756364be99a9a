package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve on images without zoneinfo

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	LogLevel        string
	CORSOrigin      string

	// Location sets calendar days for ritual streaks.
	Location *time.Location

	// Emails that register with admin rights.
	AdminEmails []string

	// Storage
	DBDriver string // "sqlite" or "postgres"
	DBDSN    string

	CatalogPath string

	// Background jobs; empty RedisURL means the in-process pool.
	RedisURL     string
	EmailWorkers int

	// Payments
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string

	// Email
	ResendAPIKey  string
	ResendBaseURL string
	MailFrom      string

	// Follow-ups
	FollowupHour         int
	FollowupInactiveDays int
}

// Load reads the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var err error
	cfg := &Config{
		ServerAddress:     getenvDefault("SERVER_ADDRESS", ":8080"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		CORSOrigin:        getenvDefault("CORS_ORIGIN", "*"),
		DBDriver:          getenvDefault("DB_DRIVER", "sqlite"),
		DBDSN:             getenvDefault("DB_DSN", "neetprep.db"),
		CatalogPath:       getenvDefault("CATALOG_PATH", "catalog.yaml"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   getenvDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		ResendBaseURL:     getenvDefault("RESEND_BASE_URL", "https://api.resend.com"),
		MailFrom:          getenvDefault("MAIL_FROM", "NEET Prep <hello@neetprep.local>"),
	}

	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.EmailWorkers, err = getInt("EMAIL_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.FollowupHour, err = getInt("FOLLOWUP_HOUR", 9); err != nil {
		return nil, err
	}
	if cfg.FollowupInactiveDays, err = getInt("FOLLOWUP_INACTIVE_DAYS", 3); err != nil {
		return nil, err
	}

	if cfg.DBDriver == "postgres" {
		if cfg.DBDSN, err = mustGetenv("DB_DSN"); err != nil {
			return nil, err
		}
	}
	if cfg.Location, err = getLocation("TIMEZONE", "Asia/Kolkata"); err != nil {
		return nil, err
	}
	cfg.AdminEmails = getList("ADMIN_EMAILS")

	if cfg.FollowupHour < 0 || cfg.FollowupHour > 23 {
		return nil, fmt.Errorf("config: FOLLOWUP_HOUR=%d must be 0..23", cfg.FollowupHour)
	}
	return cfg, nil
}

func mustGetenv(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("config: required environment variable %s is not set", k)
	}
	return v, nil
}

func getDuration(k string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid duration: %w", k, v, err)
	}
	return d, nil
}

func getInt(k string, fallback int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid integer: %w", k, v, err)
	}
	return n, nil
}

func getLocation(k, fallback string) (*time.Location, error) {
	name := getenvDefault(k, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: %s=%q is not a valid time zone: %w", k, name, err)
	}
	return loc, nil
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(k string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(k), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}
