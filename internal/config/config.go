package config

import (
	"os"
	"time"

	"github.com/spf13/cast"
)

// Scan modes. In ScanModeInProcess the server runs its own scheduler; in
// ScanModeQueue scheduled scans come from cmd/scheduler through cmd/worker.
const (
	ScanModeInProcess = "inprocess"
	ScanModeQueue     = "queue"
)

const (
	DefaultListingURL = "https://api.github.com/repos/quacs/quacs-data/contents/semester_data"
	DefaultDataURL    = "https://raw.githubusercontent.com/quacs/quacs-data/master/%s/courses.json"
)

// Config holds every setting read from the environment.
type Config struct {
	DatabaseURL string
	Port        string
	RedisAddr   string
	Debug       bool

	ScanMode     string
	ScanInterval time.Duration
	FetchTimeout time.Duration
	ListingURL   string
	DataURL      string

	SMTP SMTPConfig

	RateLimitRPS   float64
	RateLimitBurst int
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromAddress string
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromAddress != ""
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset or unparsable.
func Load() Config {
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        getString("PORT", "8080"),
		RedisAddr:   getString("REDIS_ADDR", "127.0.0.1:6379"),
		Debug:       cast.ToBool(os.Getenv("DEBUG")),

		ScanMode:     getScanMode(),
		ScanInterval: getDuration("SCAN_INTERVAL", 30*time.Minute),
		FetchTimeout: getDuration("FETCH_TIMEOUT", 30*time.Second),
		ListingURL:   getString("CATALOG_LISTING_URL", DefaultListingURL),
		DataURL:      getString("CATALOG_DATA_URL", DefaultDataURL),

		SMTP: SMTPConfig{
			Host:        os.Getenv("SMTP_HOST"),
			Port:        getInt("SMTP_PORT", 587),
			Username:    os.Getenv("SMTP_USERNAME"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			FromName:    getString("MAIL_FROM_NAME", "Seat Notifier"),
			FromAddress: os.Getenv("MAIL_FROM_ADDRESS"),
		},

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 5),
	}
}

func getScanMode() string {
	if os.Getenv("SCAN_MODE") == ScanModeQueue {
		return ScanModeQueue
	}
	return ScanModeInProcess
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getDuration falls back to def below one second, which also rejects bare
// numbers that cast reads as nanoseconds.
func getDuration(key string, def time.Duration) time.Duration {
	d, err := cast.ToDurationE(os.Getenv(key))
	if err != nil || d < time.Second {
		return def
	}
	return d
}

func getInt(key string, def int) int {
	n, err := cast.ToIntE(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	f, err := cast.ToFloat64E(os.Getenv(key))
	if err != nil || f <= 0 {
		return def
	}
	return f
}
