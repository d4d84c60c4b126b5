package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Options configures an Engine.Open call: the Postgres DSN backing the
// persistence layer, the optional Redis L2 cache tier, and ambient logging.
//
// Resolution order (highest wins), mirroring the config-file + environment
// layering used elsewhere in the module's ancestry: GRAPHSTORE_-prefixed
// environment variables, then an explicit config file (if CfgFile is set or
// one of the default search paths exists), then the defaults below.
type Options struct {
	// PostgresDSN is the connection string passed to gorm.Open/pgxpool.New.
	PostgresDSN string

	// RedisURL configures the optional L2 cache tier. Empty disables L2;
	// Engine correctness does not depend on it (see store/batch and cache).
	RedisURL string

	// CacheEnabled is loaded from configuration, but the Engine does not
	// read it: the in-process EntityCache (L1) is always consulted, and
	// setting it to false does not route reads through Persistence.
	CacheEnabled bool

	// FlushInterval is loaded from configuration, but the WriteBatcher does
	// not read it: buffers are flushed only when a read of the same table,
	// Flush, Commit, or Close forces it.
	FlushInterval time.Duration

	LogLevel  string
	LogFormat string

	// CfgFile optionally names a config file to load via viper; when empty,
	// viper searches the default locations below.
	CfgFile string
}

// DefaultOptions returns sensible defaults for local development.
func DefaultOptions() Options {
	return Options{
		PostgresDSN:   "host=localhost user=postgres password=postgres dbname=graphstore sslmode=disable",
		RedisURL:      "",
		CacheEnabled:  true,
		FlushInterval: 0,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// LoadOptions loads Options from an optional config file, then
// GRAPHSTORE_-prefixed environment variables, layered over DefaultOptions.
//
// Config file search order (when cfgFile is empty):
//  1. $HOME/.graphstore.yaml
//  2. ./.graphstore.yaml
func LoadOptions(cfgFile string) (Options, error) {
	opts := DefaultOptions()

	v := viper.New()
	v.SetEnvPrefix("GRAPHSTORE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".graphstore")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	v.SetDefault("postgres_dsn", opts.PostgresDSN)
	v.SetDefault("redis_url", opts.RedisURL)
	v.SetDefault("cache_enabled", opts.CacheEnabled)
	v.SetDefault("flush_interval", opts.FlushInterval)
	v.SetDefault("log_level", opts.LogLevel)
	v.SetDefault("log_format", opts.LogFormat)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return opts, err
		}
	}

	opts.PostgresDSN = v.GetString("postgres_dsn")
	opts.RedisURL = v.GetString("redis_url")
	opts.CacheEnabled = v.GetBool("cache_enabled")
	opts.FlushInterval = v.GetDuration("flush_interval")
	opts.LogLevel = v.GetString("log_level")
	opts.LogFormat = v.GetString("log_format")
	opts.CfgFile = cfgFile

	return opts, nil
}
