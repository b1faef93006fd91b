// Package config holds the typed configuration of a scouting run.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/degree"
	"github.com/spigell/jobthai-scout/internal/pacing"
	"github.com/spigell/jobthai-scout/internal/qualify"
)

// ManualEvent is the GITHUB_EVENT_NAME of a manually dispatched workflow.
const ManualEvent = "workflow_dispatch"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the whole run configuration.
type Config struct {
	Portal     Portal               `mapstructure:"portal"`
	Search     Search               `mapstructure:"search"`
	Targets    qualify.Targets      `mapstructure:"targets"`
	Degrees    []degree.Level       `mapstructure:"degrees" validate:"dive"`
	Threshold  int                  `mapstructure:"threshold" validate:"gte=0,lte=100"`
	Categories []candidate.Category `mapstructure:"categories"`
	Watchlists WatchlistFiles       `mapstructure:"watchlists"`
	Filters    Filters              `mapstructure:"filters"`
	Routing    Routing              `mapstructure:"routing"`
	Pacing     pacing.Config        `mapstructure:"pacing"`

	Email    Email    `mapstructure:"email"`
	Telegram Telegram `mapstructure:"telegram"`
	Sheets   Sheets   `mapstructure:"sheets"`
	Postgres Postgres `mapstructure:"postgres"`
	SQLite   SQLite   `mapstructure:"sqlite"`

	// ExcludeFile lists candidate ids that are never notified or stored.
	ExcludeFile string `mapstructure:"exclude-file"`
	// EventName is the CI trigger; ManualEvent forces a digest flush.
	EventName string `mapstructure:"event-name"`
}

// Portal configures the page fetcher.
type Portal struct {
	Driver        string        `mapstructure:"driver" validate:"oneof=playwright chromedp"`
	LoginURL      string        `mapstructure:"login-url" validate:"url"`
	SearchURL     string        `mapstructure:"search-url" validate:"url"`
	Username      string        `mapstructure:"username" validate:"required"`
	Password      string        `mapstructure:"password"`
	PasswordFile  string        `mapstructure:"password-file"`
	ShowBrowser   bool          `mapstructure:"show-browser"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	LoginAttempts int           `mapstructure:"login-attempts" validate:"gte=1"`
	PageAttempts  int           `mapstructure:"page-attempts" validate:"gte=1"`
	ImageDir      string        `mapstructure:"image-dir"`
}

// Search lists the keywords searched in order.
type Search struct {
	Keywords []string `mapstructure:"keywords" validate:"min=1,dive,required"`
}

// WatchlistFiles point at the YAML company lists. Missing files are skipped.
type WatchlistFiles struct {
	Tier1       string `mapstructure:"tier1"`
	Competitors string `mapstructure:"competitors"`
	Clients     string `mapstructure:"clients"`
}

// Filters configures the steps run on qualified records. Zero values disable
// a step.
type Filters struct {
	Categories    []string `mapstructure:"categories"`
	MinDegreeRank int      `mapstructure:"min-degree-rank" validate:"gte=0"`
}

// Routing configures the notification router.
type Routing struct {
	HotDays           int    `mapstructure:"hot-days" validate:"gte=0"`
	BatchDays         int    `mapstructure:"batch-days" validate:"gtefield=HotDays"`
	HotCooldownDays   int    `mapstructure:"hot-cooldown-days" validate:"gte=0"`
	BatchCooldownDays int    `mapstructure:"batch-cooldown-days" validate:"gte=0"`
	UseHistory        bool   `mapstructure:"use-history"`
	HistoryFile       string `mapstructure:"history-file"`
	FlushWeekday      string `mapstructure:"flush-weekday" validate:"oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	Timezone          string `mapstructure:"timezone" validate:"timezone"`
}

// Email is the SMTP notifier. It is active when Sender is set.
type Email struct {
	Host         string        `mapstructure:"host" validate:"required_with=Sender"`
	Port         int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	Sender       string        `mapstructure:"sender" validate:"omitempty,email"`
	Password     string        `mapstructure:"password"`
	PasswordFile string        `mapstructure:"password-file"`
	Receivers    []string      `mapstructure:"receivers" validate:"required_with=Sender,dive,email"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Telegram is the bot notifier. It is active when ChatID is set.
type Telegram struct {
	ChatID    int64  `mapstructure:"chat-id"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
}

// Sheets is the Google Sheets recorder. It is active when a spreadsheet is
// named.
type Sheets struct {
	SpreadsheetID string `mapstructure:"spreadsheet-id"`
	Name          string `mapstructure:"name"`
	// Key is the service account JSON itself; KeyFile points at it.
	Key     string `mapstructure:"key"`
	KeyFile string `mapstructure:"key-file"`
}

// Postgres is the database recorder. It is active when DSN is set.
type Postgres struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// SQLite is the local file recorder. It is active when Path is set.
type SQLite struct {
	Path string `mapstructure:"path"`
}

// Enabled reports whether the email notifier is configured.
func (e Email) Enabled() bool { return e.Sender != "" }

// Enabled reports whether the telegram notifier is configured.
func (t Telegram) Enabled() bool { return t.ChatID != 0 }

// Enabled reports whether the sheets recorder is configured.
func (s Sheets) Enabled() bool { return s.SpreadsheetID != "" || s.Name != "" }

// Enabled reports whether the postgres recorder is configured.
func (p Postgres) Enabled() bool { return p.DSN != "" }

// Enabled reports whether the sqlite recorder is configured.
func (s SQLite) Enabled() bool { return s.Path != "" }

// envBindings maps config keys to the environment variables that override
// them.
var envBindings = map[string]string{
	"portal.username":  "JOBTHAI_USER",
	"portal.password":  "JOBTHAI_PASS",
	"email.sender":     "EMAIL_SENDER",
	"email.password":   "EMAIL_PASSWORD",
	"email.receivers":  "EMAIL_RECEIVER",
	"sheets.key":       "G_SHEET_KEY",
	"sheets.name":      "G_SHEET_NAME",
	"telegram.token":   "TELEGRAM_BOT_TOKEN",
	"telegram.chat-id": "TELEGRAM_CHAT_ID",
	"postgres.dsn":     "DATABASE_URL",
	"event-name":       "GITHUB_EVENT_NAME",
}

// BindEnv registers the environment overrides on v.
func BindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", env, err)
		}
	}
	return nil
}

// Load decodes v into a Config and fills unset fields with defaults. It does
// not validate.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Validate checks struct constraints. Errors wrap ErrInvalid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Manual reports whether the run was triggered by hand in CI.
func (c *Config) Manual() bool {
	return c.EventName == ManualEvent
}

// Location resolves the routing timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Routing.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FlushDay returns the configured digest weekday.
func (c *Config) FlushDay() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), c.Routing.FlushWeekday) {
			return d
		}
	}
	return time.Monday
}
