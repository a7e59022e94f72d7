// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/masterstat/internal/logger"
	"github.com/woozymasta/masterstat/internal/vars"
)

// Output formats for one-shot mode.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// minBufferSize fits the reply header and one record.
const minBufferSize = 12

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Query     Query         `group:"Query Options" env-namespace:"MASTERSTAT"`
	Output    Output        `group:"Output Options" env-namespace:"MASTERSTAT"`
	Server    Server        `group:"Server Options" env-namespace:"MASTERSTAT"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"MASTERSTAT_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"MASTERSTAT_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"MASTERSTAT_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"MASTERSTAT_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Query holds master server query options.
type Query struct {
	// betteralign:ignore

	Masters     []string      `short:"m" long:"master" env:"MASTERS" env-delim:"," description:"Master server address (host:port), repeatable" default:"master.quakeworld.nu:27000" default:"master.quakeservers.net:27000" default:"qwmaster.ocrete.ca:27000" default:"qwmaster.fodquake.net:27000"`
	Timeout     time.Duration `short:"T" long:"timeout" env:"TIMEOUT" description:"Reply timeout per master, 0 waits forever" default:"2s"`
	BufferSize  int           `long:"buffer-size" env:"BUFFER_SIZE" description:"Max accepted reply datagram size in bytes" default:"8192"`
	Concurrency int           `long:"concurrency" env:"CONCURRENCY" description:"Max masters queried at once, 0 for no limit" default:"0"`
}

// Output holds one-shot output options.
type Output struct {
	// betteralign:ignore

	Format  string `short:"f" long:"format" env:"FORMAT" description:"Server list format" choice:"text" choice:"json" default:"text"`
	Country bool   `short:"c" long:"country" env:"COUNTRY" description:"Resolve server country codes with GeoIP"`
}

// Server holds web service configuration.
type Server struct {
	// betteralign:ignore

	Serve      bool          `short:"s" long:"serve" env:"SERVE" description:"Run as a service: poll masters, store results and serve the HTTP API"`
	Address    string        `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken  string        `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Admin authentication token"`
	Interval   time.Duration `short:"i" long:"interval" env:"INTERVAL" description:"Master poll interval" default:"5m"`
	TrustProxy bool          `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
	FakeMaster string        `long:"fake-master" env:"FAKE_MASTER" hidden:"true"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"masterstat.db"`
	PruneStale    time.Duration `long:"prune-stale" env:"PRUNE_STALE" description:"Delete servers not seen within duration and exit"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"masterstat.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// RateLimit holds live query API rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Live queries per client IP within the window" default:"10"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Live query window duration" default:"1m"`
	CacheTTL       time.Duration `long:"cache" env:"CACHE" description:"Reuse a live query result for this long" default:"30s"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return cfg
}

// ParseArgs parses args and environment variables into a validated Config.
func ParseArgs(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if cfg.Version {
		return &cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks option combinations that flag parsing cannot express.
func (c *Config) Validate() error {
	if len(c.Query.Masters) == 0 {
		return errors.New("at least one `-m, --master' is required")
	}
	if c.Query.Timeout < 0 {
		return fmt.Errorf("`-T, --timeout' must not be negative, got %s", c.Query.Timeout)
	}
	if c.Query.BufferSize < minBufferSize {
		return fmt.Errorf("`--buffer-size' must be at least %d bytes, got %d", minBufferSize, c.Query.BufferSize)
	}
	if c.Server.Serve {
		if c.Server.AuthToken == "" {
			return errors.New("required flag `-t, --auth-token' or environment variable `MASTERSTAT_AUTH_TOKEN' was not specified")
		}
		if c.Server.Interval <= 0 {
			return fmt.Errorf("`-i, --interval' must be positive, got %s", c.Server.Interval)
		}
		if c.Query.Timeout <= 0 {
			return fmt.Errorf("`-T, --timeout' must be positive with `-s, --serve', got %s", c.Query.Timeout)
		}
		if c.RateLimit.HardLimitCount <= 0 {
			return fmt.Errorf("`--rate-limit-hard-count' must be positive, got %d", c.RateLimit.HardLimitCount)
		}
		if c.RateLimit.HardLimitWin <= 0 {
			return fmt.Errorf("`--rate-limit-hard-window' must be positive, got %s", c.RateLimit.HardLimitWin)
		}
	}

	return nil
}
