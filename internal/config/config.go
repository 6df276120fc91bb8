// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/example/learnbot/internal/database"
	"github.com/example/learnbot/internal/spaced_repetition"
)

// Default notification window, UTC hours inclusive.
const (
	DefaultNotificationStartHour = 7
	DefaultNotificationEndHour   = 20
)

// Config is the configuration to start the bot.
type Config struct {
	// TelegramToken is the Bot API token
	TelegramToken string
	// AdminUserIDs may import into other decks and send reminders on demand
	AdminUserIDs map[int64]bool
	// Database selects the driver and DSN
	Database database.Config
	// SchedulerEnabled turns hourly reminders on
	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int
	// Engine tunes the scheduling engine; zero fields use engine defaults
	Engine   spaced_repetition.Config
	LogLevel slog.Level
}

// Load reads envFiles (missing files are ignored) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load %s", f)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken:         getenv("TELEGRAM_BOT_TOKEN"),
		AdminUserIDs:          make(map[int64]bool),
		SchedulerEnabled:      getenv("ENABLE_SCHEDULER") != "false",
		NotificationStartHour: DefaultNotificationStartHour,
		NotificationEndHour:   DefaultNotificationEndHour,
		LogLevel:              slog.LevelInfo,
	}

	cfg.Database.Driver = strings.ToLower(getenv("DB_TYPE"))
	switch cfg.Database.Driver {
	case "", database.DriverSQLite:
		cfg.Database.Driver = database.DriverSQLite
		cfg.Database.DSN = getenv("SQLITE_PATH")
	case database.DriverPostgres:
		cfg.Database.DSN = getenv("DATABASE_URL")
		if cfg.Database.DSN == "" {
			return nil, errors.New("DATABASE_URL is required when DB_TYPE=postgres")
		}
	default:
		return nil, errors.Errorf("unsupported DB_TYPE %q", cfg.Database.Driver)
	}

	if ids := getenv("ADMIN_USER_IDS"); ids != "" {
		for _, s := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid admin user ID %q", s)
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	var err error
	if cfg.NotificationStartHour, err = parseHour(getenv, "NOTIFICATION_START_HOUR", cfg.NotificationStartHour); err != nil {
		return nil, err
	}
	if cfg.NotificationEndHour, err = parseHour(getenv, "NOTIFICATION_END_HOUR", cfg.NotificationEndHour); err != nil {
		return nil, err
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"MIN_EASE_FACTOR", &cfg.Engine.MinEaseFactor},
		{"INITIAL_EASE_FACTOR", &cfg.Engine.InitialEaseFactor},
		{"EASY_BONUS", &cfg.Engine.EasyBonus},
	}
	for _, f := range floats {
		if v := getenv(f.key); v != "" {
			if *f.dst, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, errors.Wrapf(err, "invalid %s", f.key)
			}
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_REVIEWS_PER_DAY", &cfg.Engine.MaxReviewsPerDay},
		{"MAX_NEW_PER_DAY", &cfg.Engine.MaxNewPerDay},
	}
	for _, i := range ints {
		if v := getenv(i.key); v != "" {
			if *i.dst, err = strconv.Atoi(v); err != nil {
				return nil, errors.Wrapf(err, "invalid %s", i.key)
			}
		}
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, errors.Wrap(err, "invalid LOG_LEVEL")
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks settings that need no external resources.
func (c *Config) Validate() error {
	if c.NotificationStartHour > c.NotificationEndHour {
		return errors.Errorf("notification window %d-%d is empty", c.NotificationStartHour, c.NotificationEndHour)
	}
	if _, err := spaced_repetition.New(c.Engine); err != nil {
		return errors.Wrap(err, "invalid engine settings")
	}
	return nil
}

// IsAdmin reports whether userID may run admin commands.
func (c *Config) IsAdmin(userID int64) bool {
	return c.AdminUserIDs[userID]
}

func parseHour(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	h, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	if h < 0 || h > 23 {
		return 0, errors.Errorf("%s=%d out of range 0-23", key, h)
	}
	return h, nil
}
