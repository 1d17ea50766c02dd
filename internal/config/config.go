package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

const (
	DriverSQLite     = "sqlite"
	DriverGormSQLite = "gorm-sqlite"
	DriverPostgres   = "postgres"
)

type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	Login      string `yaml:"login"`
	Password   string `yaml:"password"`
	EpochDate  string `yaml:"epoch_date"`

	RefreshIntervalMinutes int    `yaml:"refresh_interval_minutes"`
	RefreshSchedule        string `yaml:"refresh_schedule"`
	SchedulerAutostart     bool   `yaml:"scheduler_autostart"`

	AuthTimeoutSeconds   int   `yaml:"auth_timeout_seconds"`
	FetchTimeoutSeconds  int   `yaml:"fetch_timeout_seconds"`
	DetailTimeoutSeconds int   `yaml:"detail_timeout_seconds"`
	DetailDelayMillis    *int  `yaml:"detail_delay_ms"`
	DetailProgressEvery  int   `yaml:"detail_progress_every"`
	PersistDetails       *bool `yaml:"persist_details"`

	DBDriver    string `yaml:"db_driver"`
	DBPath      string `yaml:"db_path"`
	DatabaseURL string `yaml:"database_url"`

	HTTPAddr                   string `yaml:"http_addr"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`
	ReportOutputDir string `yaml:"report_output_dir"`

	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

func LoadConfig() Config {
	var cfg Config

	// A missing .env is fine; the process environment is used as-is.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.APIBaseURL, "API_BASE_URL")
	envOverride(&cfg.Login, "OS_LOGIN")
	envOverride(&cfg.Password, "OS_PASSWORD")
	envOverride(&cfg.EpochDate, "EPOCH_DATE")
	envOverrideInt(&cfg.RefreshIntervalMinutes, "REFRESH_INTERVAL_MINUTES")
	envOverrideAllowEmpty(&cfg.RefreshSchedule, "REFRESH_SCHEDULE")
	envOverrideBool(&cfg.SchedulerAutostart, "SCHEDULER_AUTOSTART")
	envOverrideInt(&cfg.AuthTimeoutSeconds, "AUTH_TIMEOUT_SECONDS")
	envOverrideInt(&cfg.FetchTimeoutSeconds, "FETCH_TIMEOUT_SECONDS")
	envOverrideInt(&cfg.DetailTimeoutSeconds, "DETAIL_TIMEOUT_SECONDS")
	envOverrideIntPtr(&cfg.DetailDelayMillis, "DETAIL_DELAY_MS")
	envOverrideInt(&cfg.DetailProgressEvery, "DETAIL_PROGRESS_EVERY")
	envOverrideBoolPtr(&cfg.PersistDetails, "PERSIST_DETAILS")
	envOverride(&cfg.DBDriver, "DB_DRIVER")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.DatabaseURL, "DATABASE_URL")
	envOverride(&cfg.HTTPAddr, "HTTP_ADDR")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://yjlcmonbid.execute-api.us-east-1.amazonaws.com"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.EpochDate == "" {
		cfg.EpochDate = "2020-01-01"
	}
	if cfg.RefreshIntervalMinutes == 0 {
		cfg.RefreshIntervalMinutes = 5
	}
	if cfg.AuthTimeoutSeconds == 0 {
		cfg.AuthTimeoutSeconds = 10
	}
	if cfg.FetchTimeoutSeconds == 0 {
		cfg.FetchTimeoutSeconds = 60
	}
	if cfg.DetailTimeoutSeconds == 0 {
		cfg.DetailTimeoutSeconds = 15
	}
	if cfg.DetailDelayMillis == nil {
		delay := 20
		cfg.DetailDelayMillis = &delay
	}
	if cfg.DetailProgressEvery == 0 {
		cfg.DetailProgressEvery = 50
	}
	if cfg.PersistDetails == nil {
		on := true
		cfg.PersistDetails = &on
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = DriverSQLite
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./osdashboard.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverGormSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Fatalf("database_url is required when db_driver=postgres")
		}
	default:
		log.Fatalf("db_driver must be '%s', '%s' or '%s', got '%s'", DriverSQLite, DriverGormSQLite, DriverPostgres, cfg.DBDriver)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if cfg.RefreshIntervalMinutes < 1 {
		log.Fatalf("invalid refresh_interval_minutes '%d': must be >= 1", cfg.RefreshIntervalMinutes)
	}
	if cfg.RefreshSchedule != "" {
		if _, err := ParseSchedule(cfg.RefreshSchedule); err != nil {
			log.Fatalf("invalid refresh_schedule '%s': %v", cfg.RefreshSchedule, err)
		}
	}
	if *cfg.DetailDelayMillis < 0 {
		log.Fatalf("invalid detail_delay_ms '%d': must be >= 0", *cfg.DetailDelayMillis)
	}
	if cfg.DetailProgressEvery < 1 {
		log.Fatalf("invalid detail_progress_every '%d': must be >= 1", cfg.DetailProgressEvery)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}
	if !cfg.CredentialsConfigured() {
		log.Printf("WARNING: login/password not configured. Sync will fail until they are set.")
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideIntPtr(field **int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = &parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = parseBool(val)
	}
}

func envOverrideBoolPtr(field **bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		b := parseBool(val)
		*field = &b
	}
}

func parseBool(val string) bool {
	return strings.EqualFold(val, "true") || val == "1"
}

func (c Config) CredentialsConfigured() bool {
	return strings.TrimSpace(c.Login) != "" && c.Password != ""
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}

func (c Config) ShouldPersistDetails() bool {
	return c.PersistDetails == nil || *c.PersistDetails
}

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

func (c Config) AuthTimeout() time.Duration {
	return time.Duration(c.AuthTimeoutSeconds) * time.Second
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c Config) DetailTimeout() time.Duration {
	return time.Duration(c.DetailTimeoutSeconds) * time.Second
}

func (c Config) DetailDelay() time.Duration {
	if c.DetailDelayMillis == nil {
		return 0
	}
	return time.Duration(*c.DetailDelayMillis) * time.Millisecond
}

// Schedule returns the refresh schedule: the cron expression when one is set,
// otherwise a constant delay of RefreshIntervalMinutes.
func (c Config) Schedule() cron.Schedule {
	if strings.TrimSpace(c.RefreshSchedule) != "" {
		if sched, err := ParseSchedule(c.RefreshSchedule); err == nil {
			return sched
		}
	}
	return cron.Every(c.RefreshInterval())
}

// ParseSchedule parses a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("parse cron: %w", err)
	}
	return sched, nil
}
