package config

import "time"

// Config represents the complete karasu configuration.
type Config struct {
	Backend   BackendConfig   `yaml:"backend" mapstructure:"backend"`
	Poll      PollConfig      `yaml:"poll" mapstructure:"poll"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Processes ProcessesConfig `yaml:"processes" mapstructure:"processes"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Nav       NavConfig       `yaml:"nav" mapstructure:"nav"`
	Refresh   RefreshConfig   `yaml:"refresh" mapstructure:"refresh"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	DevServer DevServerConfig `yaml:"devserver" mapstructure:"devserver"`

	// Path is the file this config was read from, empty when only defaults
	// and environment were used.
	Path string `yaml:"-" mapstructure:"-"`
}

// BackendConfig locates the local backend service.
type BackendConfig struct {
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`

	// Timeout is the per-request deadline for every backend call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// PollConfig sets the cadence of the background pollers.
type PollConfig struct {
	Health    time.Duration `yaml:"health" mapstructure:"health" validate:"gt=0"`
	Metrics   time.Duration `yaml:"metrics" mapstructure:"metrics" validate:"gt=0"`
	Processes time.Duration `yaml:"processes" mapstructure:"processes" validate:"gt=0"`
}

// HistoryConfig bounds the telemetry ring buffer.
type HistoryConfig struct {
	Size int `yaml:"size" mapstructure:"size" validate:"min=1,max=600"`
}

// ProcessesConfig holds the initial process table settings.
type ProcessesConfig struct {
	Limit int    `yaml:"limit" mapstructure:"limit" validate:"oneof=10 20 50"`
	Sort  string `yaml:"sort" mapstructure:"sort" validate:"oneof=name pid cpu memory"`
}

// NotifyConfig controls how long notifications stay on screen.
type NotifyConfig struct {
	TTL   time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gt=0"`
	Grace time.Duration `yaml:"grace" mapstructure:"grace" validate:"gte=0"`
}

// NavConfig controls page navigation.
type NavConfig struct {
	// Delay is the cosmetic pause between the loading placeholder and content.
	Delay     time.Duration `yaml:"delay" mapstructure:"delay" validate:"gte=0"`
	StartPage string        `yaml:"start_page" mapstructure:"start_page" validate:"oneof=dashboard voice system ai settings"`
}

// RefreshConfig throttles manual refreshes.
type RefreshConfig struct {
	Rate float64 `yaml:"rate" mapstructure:"rate" validate:"gt=0"`
}

// LogConfig configures the file logger.
type LogConfig struct {
	File  string `yaml:"file" mapstructure:"file" validate:"required"`
	Level string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
}

// DevServerConfig configures `karasu serve-dev`.
type DevServerConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
	AllowKill bool   `yaml:"allow_kill" mapstructure:"allow_kill"`
}

// DefaultConfig returns a Config with the stock settings.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:     "http://localhost:5000",
			Timeout: 5 * time.Second,
		},
		Poll: PollConfig{
			Health:    10 * time.Second,
			Metrics:   5 * time.Second,
			Processes: 5 * time.Second,
		},
		History: HistoryConfig{Size: 20},
		Processes: ProcessesConfig{
			Limit: 10,
			Sort:  "cpu",
		},
		Notify: NotifyConfig{
			TTL:   3 * time.Second,
			Grace: 300 * time.Millisecond,
		},
		Nav: NavConfig{
			Delay:     300 * time.Millisecond,
			StartPage: "dashboard",
		},
		Refresh: RefreshConfig{Rate: 1},
		Log: LogConfig{
			File:  "~/.cache/karasu/karasu.log",
			Level: "info",
		},
		DevServer: DevServerConfig{
			Addr:      "127.0.0.1:5000",
			AllowKill: false,
		},
	}
}
