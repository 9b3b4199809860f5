package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"iss_overhead_notifier/internal/domain/tracking"

	"github.com/joho/godotenv"
)

const (
	DefaultISSAPIURL     = "http://api.open-notify.org/iss-now.json"
	DefaultSunriseAPIURL = "https://api.sunrise-sunset.org/json"

	NotifierEmail    = "email"
	NotifierTelegram = "telegram"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	ObserverLat          float64
	ObserverLong         float64
	PositionTolerance    float64 // degrees
	CheckInterval        time.Duration
	NotificationCooldown time.Duration
	HTTPTimeout          time.Duration
	ISSAPIURL            string
	SunriseAPIURL        string

	Notifier     string // "email" or "telegram"
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	EmailTo      string

	TelegramToken  string
	TelegramChatID int64

	DatabaseURL   string // Optional, enables the Postgres event log
	LogLevel      string
	Environment   string
	LogFile       string // Optional append-only log file
	MetricsAddr   string // Optional, e.g. ":9090"
	SkipPreflight bool
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from an arbitrary variable lookup.
func FromLookup(lookup func(string) (string, bool)) (*AppConfig, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &AppConfig{}
	var err error

	if cfg.ObserverLat, err = requiredFloat(get, "OBSERVER_LAT"); err != nil {
		return nil, err
	}
	if cfg.ObserverLong, err = requiredFloat(get, "OBSERVER_LONG"); err != nil {
		return nil, err
	}
	if err := cfg.Observer().Validate(); err != nil {
		return nil, fmt.Errorf("invalid OBSERVER_LAT/OBSERVER_LONG: %w", err)
	}

	cfg.PositionTolerance = 5 // Default: 5 degrees
	if v := get("POSITION_TOLERANCE"); v != "" {
		cfg.PositionTolerance, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid POSITION_TOLERANCE: %w", err)
		}
		if cfg.PositionTolerance < 0 {
			return nil, fmt.Errorf("POSITION_TOLERANCE must not be negative, got %v", cfg.PositionTolerance)
		}
	}

	if cfg.CheckInterval, err = positiveSeconds(get, "CHECK_INTERVAL_SECONDS", 60); err != nil {
		return nil, err
	}
	if cfg.NotificationCooldown, err = positiveSeconds(get, "NOTIFICATION_COOLDOWN_SECONDS", 3600); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = positiveSeconds(get, "HTTP_TIMEOUT_SECONDS", 10); err != nil {
		return nil, err
	}

	cfg.ISSAPIURL = get("ISS_API_URL")
	if cfg.ISSAPIURL == "" {
		cfg.ISSAPIURL = DefaultISSAPIURL
	}
	cfg.SunriseAPIURL = get("SUNRISE_API_URL")
	if cfg.SunriseAPIURL == "" {
		cfg.SunriseAPIURL = DefaultSunriseAPIURL
	}

	cfg.Notifier = strings.ToLower(get("NOTIFIER"))
	if cfg.Notifier == "" {
		cfg.Notifier = NotifierEmail
	}
	switch cfg.Notifier {
	case NotifierEmail:
		if err := loadEmail(cfg, get); err != nil {
			return nil, err
		}
	case NotifierTelegram:
		cfg.TelegramToken = get("TELEGRAM_TOKEN")
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
		chatIDStr := get("TELEGRAM_CHAT_ID")
		if chatIDStr == "" {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID is not set")
		}
		cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown NOTIFIER %q, expected %q or %q", cfg.Notifier, NotifierEmail, NotifierTelegram)
	}

	cfg.DatabaseURL = get("DATABASE_URL")

	cfg.LogLevel = strings.ToLower(get("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(get("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	if v, ok := lookup("LOG_FILE"); ok {
		cfg.LogFile = strings.TrimSpace(v) // Explicitly empty disables the file sink
	} else {
		cfg.LogFile = "iss_tracker.log"
	}

	cfg.MetricsAddr = get("METRICS_ADDR")

	if v := get("SKIP_PREFLIGHT"); v != "" {
		cfg.SkipPreflight, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SKIP_PREFLIGHT: %w", err)
		}
	}

	return cfg, nil
}

// Observer returns the configured observer location.
func (c *AppConfig) Observer() tracking.GeoCoordinate {
	return tracking.GeoCoordinate{Latitude: c.ObserverLat, Longitude: c.ObserverLong}
}

func loadEmail(cfg *AppConfig, get func(string) string) error {
	cfg.SMTPHost = get("SMTP_HOST")
	if cfg.SMTPHost == "" {
		cfg.SMTPHost = "smtp.gmail.com"
	}
	cfg.SMTPPort = 587
	if v := get("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid SMTP_PORT %q", v)
		}
		cfg.SMTPPort = port
	}

	cfg.SMTPUsername = get("SMTP_USERNAME")
	if cfg.SMTPUsername == "" {
		return fmt.Errorf("SMTP_USERNAME is not set")
	}
	cfg.SMTPPassword = get("SMTP_PASSWORD")
	if cfg.SMTPPassword == "" {
		return fmt.Errorf("SMTP_PASSWORD is not set")
	}

	cfg.EmailFrom = get("EMAIL_FROM")
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.SMTPUsername
	}
	cfg.EmailTo = get("EMAIL_TO")
	if cfg.EmailTo == "" {
		cfg.EmailTo = cfg.EmailFrom // Notify yourself by default
	}
	return nil
}

func requiredFloat(get func(string) string, key string) (float64, error) {
	v := get(key)
	if v == "" {
		return 0, fmt.Errorf("%s is not set", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func positiveSeconds(get func(string) string, key string, def int) (time.Duration, error) {
	v := get(key)
	if v == "" {
		return time.Duration(def) * time.Second, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return time.Duration(n) * time.Second, nil
}
