// Package config loads lexiz settings from defaults, an optional YAML file,
// a .env file and LEXIZ_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/session"
	"github.com/abhisek/lexiz/internal/spacedrep"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Env      string   `mapstructure:"env"` // local, production
	Database DB       `mapstructure:"database"`
	Log      Log      `mapstructure:"log"`
	Session  Session  `mapstructure:"session"`
	Selector Selector `mapstructure:"selector"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

// DB contains database settings.
type DB struct {
	Driver          string        `mapstructure:"driver"`            // sqlite or postgres
	Path            string        `mapstructure:"path"`              // sqlite file; empty means the default data dir
	DSN             string        `mapstructure:"dsn"`               // postgres connection string
	MaxConnections  int           `mapstructure:"max_connections"`   // postgres pool size
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // postgres connection lifetime
}

// Log contains logger settings.
type Log struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"` // empty means lexiz.log in the data dir; "stderr" logs to the terminal
}

// Session mirrors session.Config.
type Session struct {
	Size             int    `mapstructure:"size"`
	Order            string `mapstructure:"order"`
	PerformanceScope string `mapstructure:"performance_scope"`
	HistoryWindow    int    `mapstructure:"history_window"`
}

// Selector mirrors selector.Config.
type Selector struct {
	EnabledMethods    []string `mapstructure:"enabled_methods"`
	DisabledMethods   []string `mapstructure:"disabled_methods"`
	RepetitionWindow  int      `mapstructure:"repetition_window"`
	MinHistorySize    int      `mapstructure:"min_history_size"`
	EnableVariation   bool     `mapstructure:"enable_variation"`
	MinAttempts       int      `mapstructure:"min_attempts"`
	WeaknessThreshold float64  `mapstructure:"weakness_threshold"`
	MasteryThreshold  float64  `mapstructure:"mastery_threshold"`
	WeaknessWeight    float64  `mapstructure:"weakness_weight"`
	MasteredWeight    float64  `mapstructure:"mastered_weight"`
}

// Metrics contains the textfile export settings.
type Metrics struct {
	Textfile string `mapstructure:"textfile"` // empty disables export
}

// Load reads configuration. configFile, when set, must exist; otherwise
// config.yaml is looked up in $XDG_CONFIG_HOME/lexiz and ./config.
func Load(configFile string) (*Config, error) {
	// Values from .env become ordinary environment variables.
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "lexiz"))
		}
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix("LEXIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.path", "LEXIZ_DB", "LEXIZ_DATABASE_PATH")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	sel := selector.DefaultConfig()
	sess := session.DefaultConfig()

	v.SetDefault("env", "local")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_conn_lifetime", "30m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")

	v.SetDefault("session.size", sess.SessionSize)
	v.SetDefault("session.order", string(sess.Order))
	v.SetDefault("session.performance_scope", string(sess.PerformanceScope))
	v.SetDefault("session.history_window", sess.HistoryWindow)

	v.SetDefault("selector.enabled_methods", methodNames(sel.EnabledMethods))
	v.SetDefault("selector.disabled_methods", []string{})
	v.SetDefault("selector.repetition_window", sel.RepetitionWindow)
	v.SetDefault("selector.min_history_size", sel.MinHistorySize)
	v.SetDefault("selector.enable_variation", sel.EnableVariation)
	v.SetDefault("selector.min_attempts", sel.MinAttempts)
	v.SetDefault("selector.weakness_threshold", sel.WeaknessThreshold)
	v.SetDefault("selector.mastery_threshold", sel.MasteryThreshold)
	v.SetDefault("selector.weakness_weight", sel.WeaknessWeight)
	v.SetDefault("selector.mastered_weight", sel.MasteredWeight)

	v.SetDefault("metrics.textfile", "")
}

// Validate checks values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	sessCfg, err := c.SessionConfig()
	if err != nil {
		return err
	}
	selCfg, err := c.SelectorConfig()
	if err != nil {
		return err
	}

	if selCfg.MasteryThreshold < selCfg.WeaknessThreshold {
		return fmt.Errorf("selector.mastery_threshold (%v) must not be below selector.weakness_threshold (%v)",
			selCfg.MasteryThreshold, selCfg.WeaknessThreshold)
	}
	window := sessCfg.HistoryWindow
	if window <= 0 {
		window = session.DefaultConfig().HistoryWindow
	}
	if selCfg.MinHistorySize > window {
		return fmt.Errorf("selector.min_history_size (%d) exceeds session.history_window (%d)",
			selCfg.MinHistorySize, window)
	}
	return nil
}

// SessionConfig converts the session section.
func (c *Config) SessionConfig() (session.Config, error) {
	order, err := session.ParseOrder(c.Session.Order)
	if err != nil {
		return session.Config{}, err
	}
	scope, err := session.ParseScope(c.Session.PerformanceScope)
	if err != nil {
		return session.Config{}, err
	}
	if c.Session.Size < 0 {
		return session.Config{}, fmt.Errorf("session.size must not be negative, got %d", c.Session.Size)
	}
	return session.Config{
		SessionSize:      c.Session.Size,
		Order:            order,
		PerformanceScope: scope,
		HistoryWindow:    c.Session.HistoryWindow,
	}, nil
}

// SelectorConfig converts the selector section.
func (c *Config) SelectorConfig() (selector.Config, error) {
	enabled, err := parseMethods(c.Selector.EnabledMethods)
	if err != nil {
		return selector.Config{}, fmt.Errorf("selector.enabled_methods: %w", err)
	}
	disabled, err := parseMethods(c.Selector.DisabledMethods)
	if err != nil {
		return selector.Config{}, fmt.Errorf("selector.disabled_methods: %w", err)
	}
	s := c.Selector
	for name, v := range map[string]float64{
		"weakness_threshold": s.WeaknessThreshold,
		"mastery_threshold":  s.MasteryThreshold,
		"weakness_weight":    s.WeaknessWeight,
	} {
		if v < 0 || v > 1 {
			return selector.Config{}, fmt.Errorf("selector.%s must be within [0, 1], got %v", name, v)
		}
	}
	return selector.Config{
		EnabledMethods:    enabled,
		DisabledMethods:   disabled,
		RepetitionWindow:  s.RepetitionWindow,
		MinHistorySize:    s.MinHistorySize,
		EnableVariation:   s.EnableVariation,
		MinAttempts:       s.MinAttempts,
		WeaknessThreshold: s.WeaknessThreshold,
		MasteryThreshold:  s.MasteryThreshold,
		WeaknessWeight:    s.WeaknessWeight,
		MasteredWeight:    s.MasteredWeight,
	}, nil
}

func parseMethods(names []string) ([]spacedrep.Method, error) {
	var out []spacedrep.Method
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		m, err := spacedrep.ParseMethod(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func methodNames(methods []spacedrep.Method) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}
