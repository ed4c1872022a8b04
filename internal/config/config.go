// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"beacon/internal/logger"
	"beacon/internal/vars"

	"github.com/jessevdk/go-flags"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Discord Discord       `group:"Discord Options" namespace:"discord" env-namespace:"BEACON_DISCORD"`
	Updater Updater       `group:"Updater Options" namespace:"update" env-namespace:"BEACON_UPDATE"`
	Query   Query         `group:"Game Query Options" namespace:"query" env-namespace:"BEACON_QUERY"`
	Storage Storage       `group:"Storage Options" namespace:"db" env-namespace:"BEACON_DB"`
	GeoIP   GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"BEACON_GEOIP"`
	Logger  logger.Config `group:"Logger Options" namespace:"log" env-namespace:"BEACON_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Discord holds messaging endpoint configuration.
type Discord struct {
	// betteralign:ignore

	Token       string        `short:"t" long:"token" env:"TOKEN" description:"Discord bot token"`
	APIBase     string        `long:"api-base" env:"API_BASE" description:"Discord API base URL" default:"https://discord.com/api/v10"`
	MinInterval time.Duration `long:"min-interval" env:"MIN_INTERVAL" description:"Minimum spacing between API requests" default:"5s"`
	MaxRetries  int           `long:"max-retries" env:"MAX_RETRIES" description:"Attempts per request when throttled" default:"3"`
}

// Updater holds the status update loop configuration.
type Updater struct {
	// betteralign:ignore

	Interval     time.Duration `short:"i" long:"interval" env:"INTERVAL" description:"Status update cycle interval" default:"60s"`
	HistoryLimit int           `long:"history-limit" env:"HISTORY_LIMIT" description:"Player count samples shown on the chart" default:"24"`
}

// Query holds game server query configuration.
type Query struct {
	// betteralign:ignore

	Timeout      time.Duration `long:"timeout" env:"TIMEOUT" description:"Game query timeout" default:"3s"`
	BufferSize   uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"A2S response buffer size" default:"1400"`
	AllowedGames []string      `long:"allowed-game" env:"ALLOWED_GAMES" description:"Restrict queries to these game types (empty allows all)" env-delim:","`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"beacon.db"`
	PruneOrphans  bool          `long:"prune-orphans" description:"Delete history rows whose server config is gone, then exit"`
	TrimHistory   time.Duration `long:"trim-history" description:"Delete history samples older than this duration, then exit"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"beacon.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
	Disable  bool          `long:"disable" env:"DISABLE" description:"Disable country lookups entirely"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help
// flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if cfg.Discord.Token == "" {
		fmt.Fprintln(os.Stderr,
			"Required flag `-t, --discord-token' or environment variable `BEACON_DISCORD_TOKEN` was not specified!")
		os.Exit(1)
	}

	return &cfg
}
