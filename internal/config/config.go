// Package config loads esquery configuration with viper.
//
// Precedence, lowest first: built-in defaults, the config file
// (esquery.yaml in the working directory, or --config), ESQUERY_*
// environment variables, then flags bound by the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable: elastic.addresses is
// read from ESQUERY_ELASTIC_ADDRESSES.
const EnvPrefix = "ESQUERY"

// Field naming conventions for sort, group and select directives.
const (
	NamingIdentity = "identity"
	NamingCamel    = "camel"
)

// Backend names.
const (
	BackendElastic = "elastic"
	BackendLocal   = "local"
)

// Config is the full esquery configuration.
type Config struct {
	Backend string        `mapstructure:"backend"`
	Index   string        `mapstructure:"index"`
	Elastic ElasticConfig `mapstructure:"elastic"`
	Local   LocalConfig   `mapstructure:"local"`
	Planner PlannerConfig `mapstructure:"planner"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// ElasticConfig configures the cluster connection.
type ElasticConfig struct {
	Addresses     []string      `mapstructure:"addresses"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	Sniff         bool          `mapstructure:"sniff"`
	SniffInterval time.Duration `mapstructure:"sniff_interval"`
}

// LocalConfig configures the SQLite backend.
type LocalConfig struct {
	Path string `mapstructure:"path"`
}

// PlannerConfig configures query planning.
type PlannerConfig struct {
	Window   int    `mapstructure:"window"`
	TopHits  int    `mapstructure:"top_hits"`
	Timezone string `mapstructure:"timezone"`
	Naming   string `mapstructure:"naming"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendLocal)
	v.SetDefault("index", "")
	v.SetDefault("elastic.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.sniff", false)
	v.SetDefault("elastic.sniff_interval", 5*time.Minute)
	v.SetDefault("local.path", "esquery.db")
	v.SetDefault("planner.window", 10000)
	v.SetDefault("planner.top_hits", 100)
	v.SetDefault("planner.timezone", "Local")
	v.SetDefault("planner.naming", NamingIdentity)
	v.SetDefault("http.addr", ":8080")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the result. An empty file
// looks for an optional esquery.yaml in the working directory; a named
// file must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("esquery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations no backend can run with. The index may
// be empty; commands that need one check it themselves.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendElastic:
		if len(c.Elastic.Addresses) == 0 {
			errs = append(errs, errors.New("elastic.addresses must not be empty"))
		}
	case BackendLocal:
		if c.Local.Path == "" {
			errs = append(errs, errors.New("local.path must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend must be %q or %q, got %q", BackendElastic, BackendLocal, c.Backend))
	}
	if c.Planner.Window <= 0 {
		errs = append(errs, fmt.Errorf("planner.window must be positive, got %d", c.Planner.Window))
	}
	if c.Planner.TopHits <= 0 {
		errs = append(errs, fmt.Errorf("planner.top_hits must be positive, got %d", c.Planner.TopHits))
	}
	if c.Planner.Naming != NamingIdentity && c.Planner.Naming != NamingCamel {
		errs = append(errs, fmt.Errorf("planner.naming must be %q or %q, got %q", NamingIdentity, NamingCamel, c.Planner.Naming))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves planner.timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Planner.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Planner.Timezone)
	if err != nil {
		return nil, fmt.Errorf("planner.timezone: %w", err)
	}
	return loc, nil
}

// RequireIndex returns the configured index or an error when none is set.
func (c *Config) RequireIndex() (string, error) {
	if c.Index == "" {
		return "", errors.New("no index configured: set --index, index in the config file, or ESQUERY_INDEX")
	}
	return c.Index, nil
}
