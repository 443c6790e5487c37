// Package config provides centralized configuration for Tasktime runtime values.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName is the application name used for data and config directories.
const AppName = "tasktime"

// EnvPrefix prefixes every environment variable read by Tasktime.
const EnvPrefix = "TASKTIME_"

// RuntimeConfig holds all runtime configuration values.
type RuntimeConfig struct {
	// Task API client configuration
	API APIConfig

	// HTTP client configuration
	HTTP HTTPConfig

	// Timer configuration
	Timer TimerConfig

	// Local storage configuration
	Storage StorageConfig

	// Task API server configuration
	Server ServerConfig

	// Notification configuration
	Notify NotifyConfig

	// Google Calendar configuration
	Calendar CalendarConfig
}

// APIConfig configures the remote task API.
type APIConfig struct {
	// URL is the API base, e.g. http://localhost:8080/api.
	// Empty means local-only mode.
	URL string

	// Token is sent as a bearer token when set.
	Token string

	// PageSize is the page size requested when listing tasks.
	// Default: 100
	PageSize int
}

// HTTPConfig holds HTTP client configuration.
type HTTPConfig struct {
	// Timeout is the default HTTP request timeout.
	// Default: 10s
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts after the first.
	// Default: 2
	MaxRetries int

	// RetryDelays are the delays before each attempt.
	// Default: [0s, 500ms, 2s]
	RetryDelays []time.Duration
}

// TimerConfig holds timer configuration.
type TimerConfig struct {
	// TickInterval is the notification cadence of running timers.
	// Default: 1s
	TickInterval time.Duration
}

// StorageConfig holds local storage configuration.
type StorageConfig struct {
	// Database is the badger directory, or ":memory:".
	// Default: $XDG_DATA_HOME/tasktime/db
	Database string

	// MinFreeSpace is the minimum free space required for write operations.
	// Default: 10MB
	MinFreeSpace uint64
}

// ServerConfig holds `tasktime serve` configuration.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: :8080
	Addr string

	// Backend selects the task repository: sqlite or neo4j.
	// Default: sqlite
	Backend string

	// SQLitePath is the sqlite database file.
	// Default: $XDG_DATA_HOME/tasktime/server.db
	SQLitePath string

	// Neo4j connection settings.
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// ReminderSchedule is the cron spec for pending task reminders.
	// Default: "0 0 * * * *" (hourly, with seconds field)
	ReminderSchedule string

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// NotifyConfig holds notification configuration.
type NotifyConfig struct {
	// WebhookURL receives JSON notifications from the server. Optional.
	WebhookURL string

	// WebhookTemplate is an optional text/template for the webhook body.
	WebhookTemplate string

	// Desktop enables terminal bell notifications from the server.
	Desktop bool
}

// CalendarConfig holds Google Calendar sync configuration.
type CalendarConfig struct {
	// CalendarID is the target calendar.
	// Default: primary
	CalendarID string

	// CredentialsFile is the OAuth client credentials JSON.
	// Default: $XDG_CONFIG_HOME/tasktime/credentials.json
	CredentialsFile string

	// TokenFile caches the OAuth token.
	// Default: $XDG_CONFIG_HOME/tasktime/token.json
	TokenFile string
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		API: APIConfig{
			PageSize: 100,
		},
		HTTP: HTTPConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 2,
			RetryDelays: []time.Duration{
				0,
				500 * time.Millisecond,
				2 * time.Second,
			},
		},
		Timer: TimerConfig{
			TickInterval: time.Second,
		},
		Storage: StorageConfig{
			Database:     filepath.Join(xdg.DataHome, AppName, "db"),
			MinFreeSpace: 10 * 1024 * 1024,
		},
		Server: ServerConfig{
			Addr:             ":8080",
			Backend:          "sqlite",
			SQLitePath:       filepath.Join(xdg.DataHome, AppName, "server.db"),
			Neo4jURI:         "neo4j://localhost:7687",
			Neo4jUser:        "neo4j",
			ReminderSchedule: "0 0 * * * *",
			ShutdownTimeout:  10 * time.Second,
		},
		Calendar: CalendarConfig{
			CalendarID:      "primary",
			CredentialsFile: filepath.Join(xdg.ConfigHome, AppName, "credentials.json"),
			TokenFile:       filepath.Join(xdg.ConfigHome, AppName, "token.json"),
		},
	}
}

// Global holds the global runtime configuration instance.
// It is initialized with defaults and can be overridden via environment variables.
var Global = initGlobal()

func initGlobal() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()
	return cfg
}

// LoadDotEnv loads a .env file into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads .env and then the environment into Global.
func Load(dotenv string) error {
	if err := LoadDotEnv(dotenv); err != nil {
		return err
	}
	Global.ReloadFromEnv()
	return nil
}

func (c *RuntimeConfig) loadFromEnv() {
	// API configuration
	setString(&c.API.URL, "API_URL")
	c.API.URL = strings.TrimRight(c.API.URL, "/")
	setString(&c.API.Token, "API_TOKEN")
	setInt(&c.API.PageSize, "API_PAGE_SIZE")

	// HTTP configuration
	setDuration(&c.HTTP.Timeout, "HTTP_TIMEOUT")
	setInt(&c.HTTP.MaxRetries, "HTTP_MAX_RETRIES")

	// Timer configuration
	setDuration(&c.Timer.TickInterval, "TICK_INTERVAL")

	// Storage configuration
	setString(&c.Storage.Database, "DATABASE")
	if v := os.Getenv(EnvPrefix + "MIN_FREE_SPACE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Storage.MinFreeSpace = n
		}
	}

	// Server configuration
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Server.Backend, "SERVER_BACKEND")
	setString(&c.Server.SQLitePath, "SQLITE_PATH")
	setString(&c.Server.Neo4jURI, "NEO4J_URI")
	setString(&c.Server.Neo4jUser, "NEO4J_USER")
	setString(&c.Server.Neo4jPassword, "NEO4J_PASSWORD")
	setString(&c.Server.ReminderSchedule, "REMINDER_SCHEDULE")
	setDuration(&c.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT")

	// Notify configuration
	setString(&c.Notify.WebhookURL, "WEBHOOK_URL")
	setString(&c.Notify.WebhookTemplate, "WEBHOOK_TEMPLATE")
	if v := os.Getenv(EnvPrefix + "DESKTOP_NOTIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Notify.Desktop = b
		}
	}

	// Calendar configuration
	setString(&c.Calendar.CalendarID, "GCAL_CALENDAR_ID")
	setString(&c.Calendar.CredentialsFile, "GCAL_CREDENTIALS")
	setString(&c.Calendar.TokenFile, "GCAL_TOKEN")
}

func setString(dst *string, name string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, name string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

// ReloadFromEnv reloads configuration from environment variables.
func (c *RuntimeConfig) ReloadFromEnv() {
	c.loadFromEnv()
}

// Reset resets the configuration to defaults.
// This is primarily useful for testing.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}

// RemoteEnabled reports whether a task API is configured.
func (c *RuntimeConfig) RemoteEnabled() bool {
	return c.API.URL != ""
}

// Setting is one displayable configuration entry.
type Setting struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Secret bool   `json:"secret,omitempty"`
}

// Settings lists the effective configuration by environment variable name.
// Secret values are reported but flagged so callers can mask them.
func (c *RuntimeConfig) Settings() []Setting {
	return []Setting{
		{Key: "TASKTIME_API_URL", Value: c.API.URL},
		{Key: "TASKTIME_API_TOKEN", Value: c.API.Token, Secret: true},
		{Key: "TASKTIME_API_PAGE_SIZE", Value: strconv.Itoa(c.API.PageSize)},
		{Key: "TASKTIME_HTTP_TIMEOUT", Value: c.HTTP.Timeout.String()},
		{Key: "TASKTIME_HTTP_MAX_RETRIES", Value: strconv.Itoa(c.HTTP.MaxRetries)},
		{Key: "TASKTIME_TICK_INTERVAL", Value: c.Timer.TickInterval.String()},
		{Key: "TASKTIME_DATABASE", Value: c.Storage.Database},
		{Key: "TASKTIME_SERVER_ADDR", Value: c.Server.Addr},
		{Key: "TASKTIME_SERVER_BACKEND", Value: c.Server.Backend},
		{Key: "TASKTIME_SQLITE_PATH", Value: c.Server.SQLitePath},
		{Key: "TASKTIME_NEO4J_URI", Value: c.Server.Neo4jURI},
		{Key: "TASKTIME_NEO4J_USER", Value: c.Server.Neo4jUser},
		{Key: "TASKTIME_NEO4J_PASSWORD", Value: c.Server.Neo4jPassword, Secret: true},
		{Key: "TASKTIME_REMINDER_SCHEDULE", Value: c.Server.ReminderSchedule},
		{Key: "TASKTIME_WEBHOOK_URL", Value: c.Notify.WebhookURL, Secret: true},
		{Key: "TASKTIME_GCAL_CALENDAR_ID", Value: c.Calendar.CalendarID},
		{Key: "TASKTIME_GCAL_CREDENTIALS", Value: c.Calendar.CredentialsFile},
		{Key: "TASKTIME_GCAL_TOKEN", Value: c.Calendar.TokenFile},
	}
}
