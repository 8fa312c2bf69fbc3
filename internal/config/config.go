package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultWeeklyGoal         = 4
	DefaultMonthlyGoal        = 16
	DefaultStreakLookbackDays = 90
	DefaultTrendDays          = 30
	DefaultMaxTrendDays       = 365
	DefaultRecentLimit        = 10
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// auth
	SessionTTL                  Duration `toml:"session_ttl"`
	SessionsCleanupInterval     Duration `toml:"sessions_cleanup_interval"`
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	WriteRateLimitAllowedPerMin int      `toml:"write_rate_limit_allowed_per_min"`
	AllowedOrigins              []string `toml:"allowed_origins"`

	// workout types catalog cache
	WorkoutTypesCacheTTL Duration `toml:"workout_types_cache_ttl"`

	// kafka workout events
	KafkaEnabled bool     `toml:"kafka_enabled"`
	KafkaBrokers []string `toml:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic"`

	Dashboard Dashboard `toml:"dashboard"`
}

type Dashboard struct {
	WeeklyGoal         int    `toml:"weekly_goal"`
	MonthlyGoal        int    `toml:"monthly_goal"`
	StreakLookbackDays int    `toml:"streak_lookback_days"`
	Timezone           string `toml:"timezone"`
	DefaultTrendDays   int    `toml:"default_trend_days"`
	MaxTrendDays       int    `toml:"max_trend_days"`
	RecentLimit        int    `toml:"recent_limit"`
}

// Location resolves the configured dashboard timezone, UTC when empty.
func (d Dashboard) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load dashboard timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// Duration lets TOML carry values like "168h" or "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML config for the given env and fills in defaults.
// A .env file next to the config (or in the working dir) is loaded into the process env first.
func Load(env, path string) (*Config, error) {
	loadDotEnv(path)

	var tomlCfg Toml
	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlCfg.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if idx := strings.LastIndex(configPath, "/"); idx > 0 {
		candidates = append([]string{configPath[:idx] + "/.env"}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		// existing env vars are not overridden
		if err := godotenv.Load(p); err != nil {
			log.Warnf("load env file %s: %s", p, err)
		}
		return
	}
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.SessionTTL.Duration == 0 {
		c.SessionTTL.Duration = 7 * 24 * time.Hour
	}
	if c.SessionsCleanupInterval.Duration == 0 {
		c.SessionsCleanupInterval.Duration = 8 * time.Hour
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = 10
	}
	if c.WriteRateLimitAllowedPerMin == 0 {
		c.WriteRateLimitAllowedPerMin = 120
	}
	if c.WorkoutTypesCacheTTL.Duration == 0 {
		c.WorkoutTypesCacheTTL.Duration = time.Hour
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "fittrack.workouts"
	}
	c.Dashboard.applyDefaults()
}

func (d *Dashboard) applyDefaults() {
	if d.WeeklyGoal == 0 {
		d.WeeklyGoal = DefaultWeeklyGoal
	}
	if d.MonthlyGoal == 0 {
		d.MonthlyGoal = DefaultMonthlyGoal
	}
	if d.StreakLookbackDays == 0 {
		d.StreakLookbackDays = DefaultStreakLookbackDays
	}
	if d.DefaultTrendDays == 0 {
		d.DefaultTrendDays = DefaultTrendDays
	}
	if d.MaxTrendDays == 0 {
		d.MaxTrendDays = DefaultMaxTrendDays
	}
	if d.RecentLimit == 0 {
		d.RecentLimit = DefaultRecentLimit
	}
}
