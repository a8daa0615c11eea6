package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string
	LockTimeout  time.Duration // Upper bound on row-lock waits inside a unit of work

	// Table configuration
	DefaultMinPlayers     int
	DefaultMaxPlayers     int
	DefaultCommissionRate int
	RoundDuration         time.Duration // How long an active table runs before it is settled
	SettleInterval        time.Duration // How often the settlement worker looks for due tables

	// Admin user IDs allowed to approve sales and grant bonuses
	AdminUserIDs []int64

	// Observability
	LogLevel    string
	MetricsAddr string

	// Notifications
	NATSServers         string
	DiscordWebhookID    string
	DiscordWebhookToken string
	ScoreboardInterval  time.Duration // How often the leaderboard card is posted, 0 disables it

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// IsAdmin reports whether userID is in the admin allow-list
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminUserIDs, userID)
}

// load loads configuration from environment variables and an optional .env file
func load() (*Config, error) {
	// A missing .env file is fine; the process environment wins either way
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		LockTimeout:  5 * time.Second,

		DefaultMinPlayers:     2,
		DefaultMaxPlayers:     10,
		DefaultCommissionRate: 5,
		RoundDuration:         5 * time.Minute,
		SettleInterval:        15 * time.Second,

		LogLevel:    "info",
		MetricsAddr: ":9090",

		NATSServers:         os.Getenv("NATS_SERVERS"),
		DiscordWebhookID:    os.Getenv("DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken: os.Getenv("DISCORD_WEBHOOK_TOKEN"),
		ScoreboardInterval:  24 * time.Hour,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if addr, ok := os.LookupEnv("METRICS_ADDR"); ok {
		config.MetricsAddr = addr
	}

	durations := map[string]*time.Duration{
		"LOCK_TIMEOUT":        &config.LockTimeout,
		"ROUND_DURATION":      &config.RoundDuration,
		"SETTLE_INTERVAL":     &config.SettleInterval,
		"SCOREBOARD_INTERVAL": &config.ScoreboardInterval,
	}
	for key, target := range durations {
		if raw := os.Getenv(key); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			*target = parsed
		}
	}

	ints := map[string]*int{
		"DEFAULT_MIN_PLAYERS":     &config.DefaultMinPlayers,
		"DEFAULT_MAX_PLAYERS":     &config.DefaultMaxPlayers,
		"DEFAULT_COMMISSION_RATE": &config.DefaultCommissionRate,
	}
	for key, target := range ints {
		if raw := os.Getenv(key); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			*target = parsed
		}
	}

	// Parse admin user IDs
	if adminIDs := os.Getenv("ADMIN_USER_IDS"); adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid ADMIN_USER_IDS entry %q: %w", idStr, err)
			}
			config.AdminUserIDs = append(config.AdminUserIDs, id)
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if err := config.validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DefaultMinPlayers < 2 || c.DefaultMaxPlayers > 20 || c.DefaultMinPlayers > c.DefaultMaxPlayers {
		return fmt.Errorf("default player limits must satisfy 2 <= min <= max <= 20, got %d..%d",
			c.DefaultMinPlayers, c.DefaultMaxPlayers)
	}
	if c.DefaultCommissionRate < 0 || c.DefaultCommissionRate > 20 {
		return fmt.Errorf("DEFAULT_COMMISSION_RATE must be between 0 and 20, got %d", c.DefaultCommissionRate)
	}
	if c.SettleInterval <= 0 {
		return fmt.Errorf("SETTLE_INTERVAL must be positive")
	}
	return nil
}
