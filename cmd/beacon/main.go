// main is the entry point of the Beacon status updater.
// It initializes the configuration, logger, database, GeoIP provider, and
// starts the update loop publishing game server status to Discord.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"beacon/internal/config"
	"beacon/internal/discord"
	"beacon/internal/fake"
	"beacon/internal/geoip"
	"beacon/internal/logger"
	"beacon/internal/maintenance"
	"beacon/internal/query"
	"beacon/internal/storage"
	"beacon/internal/updater"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Msg("Starting beacon updater...")

	// GeoIP is optional; without it the Location field is simply omitted
	var geoProvider *geoip.Provider
	if !cfg.GeoIP.Disable {
		log.Info().Msg("Checking GeoIP database...")
		if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		provider, err := geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		} else {
			geoProvider = provider
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
		}
	}

	// Database; a store that cannot be prepared is fatal
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Data generation or database maintenance shortcuts
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, store) {
		return
	}

	registry := query.NewRegistry(query.Options{
		Timeout:    cfg.Query.Timeout,
		BufferSize: cfg.Query.BufferSize,
	}, cfg.Query.AllowedGames)

	sender := discord.New(cfg.Discord.Token, cfg.Discord.APIBase,
		cfg.Discord.MinInterval, cfg.Discord.MaxRetries)

	up := updater.New(store, sender, registry, countryResolver(geoProvider), updater.Config{
		Interval:     cfg.Updater.Interval,
		HistoryLimit: cfg.Updater.HistoryLimit,
	})

	up.Start()
	log.Info().
		Dur("interval", cfg.Updater.Interval).
		Msg("Status update loop started")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down, waiting for the running pass...")
	up.Stop()

	log.Info().Msg("Updater exited")
}

// countryResolver keeps a nil *Provider from turning into a non-nil interface.
func countryResolver(p *geoip.Provider) updater.CountryResolver {
	if p == nil {
		return nil
	}
	return p
}
