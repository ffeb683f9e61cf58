// Package config finds and reads prolix_conf.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	FileName = "prolix_conf.yaml"

	EnvConfFile      = "PROLIX_CONF"
	EnvConfDir       = "PROLIX_CONF_DIR"
	EnvRedisHost     = "PROLIX_REDIS_HOST"
	EnvRedisPort     = "PROLIX_REDIS_PORT"
	EnvRedisPassword = "PROLIX_REDIS_PASSWORD"
	EnvListen        = "PROLIX_LISTEN"

	// Symbolic search locations.
	LocationPackage = "package" // directory of the running executable
	LocationHome    = "home"    // $HOME/.prolix
	LocationEnv     = "env"     // $PROLIX_CONF_DIR

	StoreBadger = "badger"
	StoreRedis  = "redis"
)

var DefaultSearchPaths = []string{LocationPackage, LocationHome, LocationEnv}

type Config struct {
	DefaultStoreExpirationSecs int    `yaml:"default_store_expiration_secs"`
	Store                      string `yaml:"store"`
	BadgerPath                 string `yaml:"badger_path"`
	BadgerInMemory             bool   `yaml:"badger_in_memory"`
	MinimumFreeGB              int    `yaml:"minimum_free_gb"`
	GCIntervalMinutes          int    `yaml:"gc_interval_minutes"`
	RedisHost                  string `yaml:"redis_host"`
	RedisPort                  int    `yaml:"redis_port"`
	RedisPassword              string `yaml:"redis_password"`
	RedisDB                    int    `yaml:"redis_db"`
	DescriptorFormat           string `yaml:"descriptor_format"`
	Listen                     string `yaml:"listen"`
	LogLevel                   string `yaml:"log_level"`

	// Source is the file the values were read from, empty when only defaults
	// apply.
	Source string `yaml:"-"`
}

func Default() Config {
	return Config{
		DefaultStoreExpirationSecs: 300,
		Store:                      StoreBadger,
		GCIntervalMinutes:          10,
		RedisHost:                  "127.0.0.1",
		RedisPort:                  6379,
		DescriptorFormat:           "json",
		Listen:                     "127.0.0.1:8080",
		LogLevel:                   "info",
	}
}

// Parse reads YAML on top of the defaults. Keys missing from data keep their
// default value.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.DefaultStoreExpirationSecs <= 0 {
		errs = append(errs, fmt.Errorf("default_store_expiration_secs must be positive, got %d", c.DefaultStoreExpirationSecs))
	}
	switch c.Store {
	case StoreBadger:
		if c.BadgerPath == "" && !c.BadgerInMemory {
			errs = append(errs, errors.New("badger_path is required unless badger_in_memory is set"))
		}
	case StoreRedis:
		if c.RedisPort <= 0 || c.RedisPort > 65535 {
			errs = append(errs, fmt.Errorf("redis_port out of range: %d", c.RedisPort))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	switch c.DescriptorFormat {
	case "", "json", "compact":
	default:
		errs = append(errs, fmt.Errorf("unknown descriptor_format %q", c.DescriptorFormat))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Loader resolves the search path and reads the first config file found.
type Loader struct {
	SearchPaths []string

	Getenv     func(string) string
	Executable func() (string, error)
	HomeDir    func() (string, error)
}

func NewLoader(paths ...string) *Loader {
	if len(paths) == 0 {
		paths = DefaultSearchPaths
	}
	return &Loader{
		SearchPaths: paths,
		Getenv:      os.Getenv,
		Executable:  os.Executable,
		HomeDir:     os.UserHomeDir,
	}
}

// Load is NewLoader(paths...).Load().
func Load(paths ...string) (Config, error) {
	return NewLoader(paths...).Load()
}

func (l *Loader) Load() (Config, error) {
	return l.load(l.Candidates(), false)
}

// LoadFile reads exactly path; unlike Load a missing file is an error.
func (l *Loader) LoadFile(path string) (Config, error) {
	return l.load([]string{path}, true)
}

func (l *Loader) load(candidates []string, required bool) (Config, error) {
	c := Default()

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, os.ErrNotExist) && !required {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("error reading config %s: %w", candidate, err)
		}
		c, err = Parse(data)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", candidate, err)
		}
		c.Source = candidate
		break
	}

	if err := l.applyEnv(&c); err != nil {
		return Config{}, err
	}
	if c.Store == StoreBadger && c.BadgerPath == "" && !c.BadgerInMemory {
		c.BadgerPath = l.defaultBadgerPath()
	}

	return c, nil
}

// Candidates returns the config files to try, in order. An absolute
// PROLIX_CONF replaces the whole search path.
func (l *Loader) Candidates() []string {
	name := FileName
	if env := l.Getenv(EnvConfFile); env != "" {
		if filepath.IsAbs(env) {
			return []string{env}
		}
		name = env
	}

	var out []string
	for _, p := range l.SearchPaths {
		dir := l.resolve(p)
		if dir == "" {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out
}

func (l *Loader) resolve(location string) string {
	switch location {
	case LocationPackage:
		exe, err := l.Executable()
		if err != nil {
			return ""
		}
		return filepath.Dir(exe)
	case LocationHome:
		home, err := l.HomeDir()
		if err != nil || home == "" {
			return ""
		}
		return filepath.Join(home, ".prolix")
	case LocationEnv:
		return l.Getenv(EnvConfDir)
	}
	return location
}

func (l *Loader) defaultBadgerPath() string {
	home, err := l.HomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "prolix", "data")
	}
	return filepath.Join(home, ".prolix", "data")
}

func (l *Loader) applyEnv(c *Config) error {
	if v := l.Getenv(EnvRedisHost); v != "" {
		c.RedisHost = v
	}
	if v := l.Getenv(EnvRedisPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRedisPort, v, err)
		}
		c.RedisPort = port
	}
	if v := l.Getenv(EnvRedisPassword); v != "" {
		c.RedisPassword = v
	}
	if v := l.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	return nil
}
