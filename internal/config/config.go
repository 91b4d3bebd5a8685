package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/monitoria/schedconv/internal/schedule"
)

type Config struct {
	Document DocumentConfig  `toml:"document"`
	Weekdays []WeekdayConfig `toml:"weekdays" env:"-"`
	Output   OutputConfig    `toml:"output"`
	Server   ServerConfig    `toml:"server"`
	Calendar CalendarConfig  `toml:"calendar"`
}

type DocumentConfig struct {
	Subject         string `toml:"subject" env:"SCHEDCONV_SUBJECT"`
	DurationMinutes int    `toml:"duration_minutes" env:"SCHEDCONV_DURATION"`
	Observation     string `toml:"observation" env:"SCHEDCONV_OBSERVATION"`
}

// WeekdayConfig maps a header label in the table to a weekday code in the feed.
type WeekdayConfig struct {
	Label string `toml:"label"`
	Code  string `toml:"code"`
}

type OutputConfig struct {
	Clipboard bool `toml:"clipboard" env:"SCHEDCONV_CLIPBOARD"`
	Notify    bool `toml:"notify" env:"SCHEDCONV_NOTIFY"`
	Indent    int  `toml:"indent" env:"SCHEDCONV_INDENT"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr" env:"SCHEDCONV_ADDR"`
	AllowedOrigins []string `toml:"allowed_origins" env:"SCHEDCONV_ALLOWED_ORIGINS"`
}

type CalendarConfig struct {
	Timezone string `toml:"timezone" env:"SCHEDCONV_TIMEZONE"`
	Week     string `toml:"week" env:"SCHEDCONV_WEEK"` // natural-language anchor, e.g. "next monday"
}

func DefaultConfig() Config {
	labels := schedule.DefaultWeekdayLabels()
	weekdays := make([]WeekdayConfig, len(labels))
	for i, l := range labels {
		weekdays[i] = WeekdayConfig{Label: l.Label, Code: string(l.Code)}
	}

	return Config{
		Document: DocumentConfig{
			Subject:         schedule.DefaultSubject,
			DurationMinutes: schedule.DefaultDuration,
		},
		Weekdays: weekdays,
		Output: OutputConfig{
			Clipboard: true,
			Notify:    false,
			Indent:    4,
		},
		Server: ServerConfig{
			Addr:           ":9090",
			AllowedOrigins: []string{"*"},
		},
		Calendar: CalendarConfig{
			Timezone: "America/Sao_Paulo",
			Week:     "today",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "schedconv"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config from the default location.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path over the defaults. A missing file is not
// an error. Environment overrides (SCHEDCONV_*) are applied last.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		// A [[weekdays]] table in the file replaces the defaults instead of
		// being merged into them.
		var probe struct {
			Weekdays []WeekdayConfig `toml:"weekdays"`
		}
		if err := toml.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if len(probe.Weekdays) > 0 {
			cfg.Weekdays = nil
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// SCHEDCONV_* variables win over the file. Unset variables leave the
	// field alone; malformed ones are an error.
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if c.Document.Subject == "" {
		return fmt.Errorf("document.subject must not be empty")
	}
	if c.Document.DurationMinutes <= 0 {
		return fmt.Errorf("document.duration_minutes must be positive, got %d", c.Document.DurationMinutes)
	}
	if c.Output.Indent < 0 {
		return fmt.Errorf("output.indent must not be negative, got %d", c.Output.Indent)
	}
	if _, err := c.WeekdayTable(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// WeekdayTable builds the header-label lookup used by the parser.
func (c Config) WeekdayTable() (schedule.WeekdayTable, error) {
	pairs := make([]schedule.WeekdayLabel, len(c.Weekdays))
	for i, w := range c.Weekdays {
		pairs[i] = schedule.WeekdayLabel{Label: w.Label, Code: schedule.Weekday(w.Code)}
	}
	t, err := schedule.NewWeekdayTable(pairs)
	if err != nil {
		return schedule.WeekdayTable{}, fmt.Errorf("weekdays: %w", err)
	}
	return t, nil
}

// Location resolves calendar.timezone; empty means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Calendar.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar.timezone: %w", err)
	}
	return loc, nil
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteDefault writes DefaultConfig to path unless a file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
