// Package config provides hierarchical configuration: defaults, an optional
// YAML config file, and BEANBOOK_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envOnce sync.Once

// Config is the runtime configuration consumed, never mutated, by the
// ledger engine and its surfaces.
type Config struct {
	Ledger struct {
		Path            string  `mapstructure:"path"`
		BackupDir       string  `mapstructure:"backup_dir"`
		BackupRetention int     `mapstructure:"backup_retention"`
		LockTimeout     float64 `mapstructure:"lock_timeout"`
		DryRunDefault   bool    `mapstructure:"dry_run_default"`
		DefaultCurrency string  `mapstructure:"default_currency"`
	} `mapstructure:"ledger"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	NL struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"nl"`
}

// LockTimeoutDuration returns the lock timeout as a duration.
func (c *Config) LockTimeoutDuration() time.Duration {
	return time.Duration(c.Ledger.LockTimeout * float64(time.Second))
}

// LoadEnv loads a .env file from the working directory once, if present.
func LoadEnv() {
	envOnce.Do(func() {
		if _, err := os.Stat(".env"); err == nil {
			_ = godotenv.Load(".env")
		}
	})
}

// Load builds the configuration. explicitFile, when non-empty, names the
// config file to read; otherwise the usual locations are searched. The
// ledger path is required and must point at an existing regular file.
func Load(explicitFile string) (*Config, error) {
	LoadEnv()

	v := viper.New()
	setDefaults(v)

	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	} else {
		v.SetConfigName("beanbook")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.beanbook")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BEANBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && explicitFile != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults also registers default-less keys so AutomaticEnv overrides
// reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.path", "")
	v.SetDefault("ledger.backup_dir", "")
	v.SetDefault("ledger.default_currency", "")
	v.SetDefault("ledger.backup_retention", 10)
	v.SetDefault("ledger.lock_timeout", 10.0)
	v.SetDefault("ledger.dry_run_default", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("nl.enabled", true)
}

func validate(cfg *Config) error {
	if cfg.Ledger.Path == "" {
		return fmt.Errorf("ledger path must be configured (ledger.path or BEANBOOK_LEDGER_PATH)")
	}
	path, err := filepath.Abs(expandHome(cfg.Ledger.Path))
	if err != nil {
		return fmt.Errorf("resolving ledger path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("configured ledger file does not exist: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("configured ledger path is not a file: %s", path)
	}
	cfg.Ledger.Path = path

	if cfg.Ledger.BackupDir == "" {
		cfg.Ledger.BackupDir = filepath.Join(filepath.Dir(path), ".backups")
	} else {
		cfg.Ledger.BackupDir, err = filepath.Abs(expandHome(cfg.Ledger.BackupDir))
		if err != nil {
			return fmt.Errorf("resolving backup dir: %w", err)
		}
	}
	if cfg.Ledger.BackupRetention < 0 {
		return fmt.Errorf("backup retention must not be negative")
	}
	if cfg.Ledger.LockTimeout <= 0 {
		return fmt.Errorf("lock timeout must be positive")
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
