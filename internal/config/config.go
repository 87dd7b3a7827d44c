// Package config loads splitkeeper settings from flags, the environment
// and an optional splitkeeper.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SPLITKEEPER_ASI_PATH.
const EnvPrefix = "SPLITKEEPER"

// Display modes.
const (
	DisplayTUI   = "tui"
	DisplayPlain = "plain"
	DisplayNone  = "none"
)

// Defaults.
const (
	DefaultASIPath      = "/dev/shm/autosplitterinfo"
	DefaultTickInterval = 10 * time.Millisecond
	DefaultPollInterval = time.Millisecond
	DefaultNATSSubject  = "splitkeeper"
)

// Config holds every setting.
type Config struct {
	ASIPath          string        `mapstructure:"asi_path"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	HistoryDB        string        `mapstructure:"history_db"`
	AllowExpressions bool          `mapstructure:"allow_expressions"`
	Display          string        `mapstructure:"display"`
	NotifyLevel      int           `mapstructure:"notify_level"`
	LogLevel         string        `mapstructure:"log_level"`
	NATS             NATSConfig    `mapstructure:"nats"`
}

// NATSConfig configures split-event publishing. An empty URL disables it.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ASIPath:      DefaultASIPath,
		TickInterval: DefaultTickInterval,
		PollInterval: DefaultPollInterval,
		Display:      DisplayTUI,
		LogLevel:     "info",
		NATS:         NATSConfig{Subject: DefaultNATSSubject},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ASIPath, validation.Required),
		validation.Field(&c.TickInterval, validation.Min(time.Millisecond), validation.Max(time.Second)),
		validation.Field(&c.PollInterval, validation.Min(100*time.Microsecond), validation.Max(time.Second)),
		validation.Field(&c.Display, validation.Required, validation.In(DisplayTUI, DisplayPlain, DisplayNone)),
		validation.Field(&c.NotifyLevel, validation.Min(0)),
		validation.Field(&c.LogLevel, validation.By(checkLevel)),
	); err != nil {
		return err
	}
	return c.NATS.Validate()
}

// Validate validates the NATS configuration.
func (c *NATSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.By(checkNATSURL)),
		validation.Field(&c.Subject, validation.When(c.URL != "", validation.Required)),
	)
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func checkLevel(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return errors.New("must be debug, info, warn or error")
	}
	return nil
}

func checkNATSURL(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	// nats.Connect also accepts a comma-separated server list.
	for _, server := range strings.Split(s, ",") {
		u, err := url.Parse(strings.TrimSpace(server))
		if err != nil || u.Host == "" {
			return fmt.Errorf("%q is not a server URL", server)
		}
		switch u.Scheme {
		case "nats", "tls", "ws", "wss":
		default:
			return fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
	}
	return nil
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"asi-path":          "asi_path",
	"tick-interval":     "tick_interval",
	"poll-interval":     "poll_interval",
	"history-db":        "history_db",
	"allow-expressions": "allow_expressions",
	"display":           "display",
	"notify-level":      "notify_level",
	"log-level":         "log_level",
	"nats-url":          "nats.url",
	"nats-subject":      "nats.subject",
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("asi_path", d.ASIPath)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("history_db", d.HistoryDB)
	v.SetDefault("allow_expressions", d.AllowExpressions)
	v.SetDefault("display", d.Display)
	v.SetDefault("notify_level", d.NotifyLevel)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("nats.url", d.NATS.URL)
	v.SetDefault("nats.subject", d.NATS.Subject)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds each known flag in fs to its configuration key, so a
// flag set on the command line wins over the environment and the file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load reads the config file and returns the validated configuration.
// With an empty file, splitkeeper.yaml is searched for in the working
// directory and the user config directory; not finding one is fine. A
// named file must exist.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("splitkeeper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "splitkeeper"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
