// Package config loads the canopy.yaml file used by the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/adapters/redis"
)

// DefaultFile is the configuration looked up in the working directory.
const DefaultFile = "canopy.yaml"

// Config is the CLI configuration. Flags override file values.
type Config struct {
	TreeDir      string            `mapstructure:"tree_dir"`
	MainTree     string            `mapstructure:"main_tree"`
	TickInterval time.Duration     `mapstructure:"tick_interval"`
	LogLevel     string            `mapstructure:"log_level"`
	LogFormat    string            `mapstructure:"log_format"`
	Listen       string            `mapstructure:"listen"`
	Snapshot     string            `mapstructure:"snapshot"`
	Redis        Redis             `mapstructure:"redis"`
	Blackboard   map[string]string `mapstructure:"blackboard"`
}

// Redis configures the blackboard mirror. An empty Addr disables it.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		TreeDir:      "trees",
		TickInterval: runtime.DefaultTickInterval,
		LogLevel:     "info",
		LogFormat:    "text",
		Redis:        Redis{Prefix: redis.DefaultPrefix},
		Blackboard:   map[string]string{},
	}
}

// Load reads a YAML or JSON file on top of Default. Unknown keys are an
// error. A missing file returns an error wrapping fs.ErrNotExist.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	return cfg, cfg.Validate()
}

// Decode applies raw onto cfg. Durations accept Go duration strings;
// blackboard values of any scalar type are kept as text.
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate checks values that cannot be caught while decoding.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	return errors.Join(errs...)
}
