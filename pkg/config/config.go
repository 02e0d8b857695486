// Package config loads the harness configuration: a YAML file, an
// optional .env file and HARNESS_* environment overrides, applied in
// that order on top of the defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/driver/appium"
	"github.com/quokka-io/mobile-harness/pkg/logger"
	"github.com/quokka-io/mobile-harness/pkg/page"
)

// EnvPrefix prefixes every environment override, e.g. HARNESS_SERVER_URL.
const EnvPrefix = "HARNESS"

// FileNames are looked up, in order, by LoadFromDir.
var FileNames = []string{"harness.yaml", "harness.yml"}

// Config represents the harness configuration (harness.yaml).
type Config struct {
	Server       Server              `yaml:"server"`
	Capabilities appium.Capabilities `yaml:"capabilities"`
	Waits        page.Profiles       `yaml:"waits"`
	Scroll       Scroll              `yaml:"scroll"`
	Log          Log                 `yaml:"log"`

	// Trace prints facade spans to stdout.
	Trace bool `yaml:"trace"`
	// ArtifactsDir receives screenshots taken by flows.
	ArtifactsDir string `yaml:"artifactsDir" split_words:"true"`
}

// Server locates the Appium server.
type Server struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"requestTimeout" split_words:"true"`
}

// Scroll holds Scroll-Search defaults.
type Scroll struct {
	MaxScrolls int `yaml:"maxScrolls" split_words:"true"`
}

// Log configures the process logger.
type Log struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: Server{
			URL:            appium.DefaultServerURL,
			RequestTimeout: 5 * time.Minute,
		},
		Capabilities: appium.DefaultCapabilities(),
		Waits:        page.DefaultProfiles(),
		Scroll:       Scroll{MaxScrolls: page.DefaultMaxScrolls},
		Log:          Log{Level: "info"},
		ArtifactsDir: "artifacts",
	}
}

// Load loads configuration from a file on top of the defaults. Unknown
// keys are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, core.ErrInvalidConfig.WithMessagef("parse %s", path).WithCause(err)
	}
	return cfg, nil
}

// LoadFromDir looks for harness.yaml or harness.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range FileNames {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, return defaults
	return Default(), nil
}

// ApplyEnv loads envFiles (missing files are skipped) into the process
// environment and then applies HARNESS_* overrides to cfg. Variables
// already set in the environment win over .env entries.
func ApplyEnv(cfg *Config, envFiles ...string) error {
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return core.ErrInvalidConfig.WithMessagef("read %s", file).WithCause(err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return core.ErrInvalidConfig.WithMessage("read config from env vars").WithCause(err)
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.ErrInvalidConfig.WithMessagef("server.url %q is not an absolute URL", c.Server.URL)
	}
	if err := c.Capabilities.Validate(); err != nil {
		return err
	}
	w := c.Waits
	if w.Short <= 0 || w.Default <= 0 || w.Long <= 0 || w.Interval <= 0 {
		return core.ErrInvalidConfig.WithMessagef("waits must be positive, got %+v", w)
	}
	if w.Interval > w.Short {
		return core.ErrInvalidConfig.WithMessagef("waits.interval %s exceeds the short wait %s", w.Interval, w.Short)
	}
	if c.Scroll.MaxScrolls < 1 {
		return core.ErrInvalidConfig.WithMessagef("scroll.maxScrolls must be positive, got %d", c.Scroll.MaxScrolls)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return core.ErrInvalidConfig.WithMessage(err.Error())
	}
	return nil
}

// Resolve is the full lookup used by the CLI: path (or harness.yaml in
// the working directory when empty), then .env, then environment, then
// validation.
func Resolve(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path != "" {
		cfg, err = Load(path)
	} else {
		cfg, err = LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := ApplyEnv(cfg, ".env"); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
