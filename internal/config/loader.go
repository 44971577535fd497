package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = "karasu.yaml"
	// GlobalConfigDir is the directory for the per-user config.
	GlobalConfigDir = ".config/karasu"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes every environment override (KARASU_BACKEND_URL, ...).
	EnvPrefix = "KARASU"
	// DotEnvFile is loaded from the working directory before env overrides apply.
	DotEnvFile = ".env"
)

// Load reads config from the specified path. Environment overrides and
// defaults are merged in.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Check the path passed to --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. karasu.yaml in the current directory
// 3. ~/.config/karasu/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads the config found by Find, or defaults plus environment
// overrides when no file exists. The result is validated.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	if path == "" {
		loadDotEnv()
		cfg, err = parseConfig(newViper(), "")
	} else {
		cfg, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns a viper instance with defaults and KARASU_* env binding.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "the environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+where)
	}

	cfg.Path = path
	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")
	cfg.Log.File = ExpandTilde(Expand(cfg.Log.File))
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal. Values mirror DefaultConfig.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("poll.health", d.Poll.Health)
	v.SetDefault("poll.metrics", d.Poll.Metrics)
	v.SetDefault("poll.processes", d.Poll.Processes)
	v.SetDefault("history.size", d.History.Size)
	v.SetDefault("processes.limit", d.Processes.Limit)
	v.SetDefault("processes.sort", d.Processes.Sort)
	v.SetDefault("notify.ttl", d.Notify.TTL)
	v.SetDefault("notify.grace", d.Notify.Grace)
	v.SetDefault("nav.delay", d.Nav.Delay)
	v.SetDefault("nav.start_page", d.Nav.StartPage)
	v.SetDefault("refresh.rate", d.Refresh.Rate)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("devserver.addr", d.DevServer.Addr)
	v.SetDefault("devserver.allow_kill", d.DevServer.AllowKill)
}

// loadDotEnv loads .env from the working directory. Variables already set in
// the process environment win. A missing file is not an error.
func loadDotEnv() {
	if _, err := os.Stat(DotEnvFile); err != nil {
		return
	}
	_ = godotenv.Load(DotEnvFile)
}
