// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package config loads server configuration from a YAML file and flags.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Defaults for server configuration.
const (
	DefaultListenAddr  = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultSessionTTL  = 24 * time.Hour
)

// Config holds server configuration. Precedence, lowest to highest:
// flag defaults, config file, explicitly set flags. DATABASE_URL from the
// environment fills database_url when nothing else provides it.
type Config struct {
	ListenAddr   string        `koanf:"listen_addr"`
	MetricsAddr  string        `koanf:"metrics_addr"`
	DatabaseURL  string        `koanf:"database_url"`
	LogFormat    string        `koanf:"log_format"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// RegisterFlags adds the configuration flags to a flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("listen-addr", DefaultListenAddr, "HTTP listen address")
	flags.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.Duration("session-ttl", DefaultSessionTTL, "session lifetime")
	flags.Bool("cookie-secure", false, "set the Secure attribute on session cookies")
}

// Load builds a Config from an optional YAML file and the given flag set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	// Passing k makes posflag skip unchanged flags whose keys the file
	// already set, so explicit flags win without defaults stomping the file.
	flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	})
	if err := k.Load(flagProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	return &cfg, nil
}
