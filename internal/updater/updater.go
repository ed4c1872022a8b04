// Package updater drives the status update loop: every interval it walks the
// configured servers in order, queries each one, records history, renders the
// chart, and publishes or edits the Discord notification.
package updater

import (
	"context"
	"sync"
	"time"

	"beacon/internal/chart"
	"beacon/internal/models"
	"beacon/internal/notify"
	"beacon/internal/query"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store is the slice of the repository the updater needs: the config list,
// the history window, and the message id column.
type Store interface {
	Configs() ([]models.ServerConfig, error)
	AppendSample(configID int64, count int) error
	RecentSamples(configID int64, limit int) ([]models.PlayerSample, error)
	SetMessageID(configID int64, messageID string) error
}

// Sender publishes or edits one notification message and returns its id.
type Sender interface {
	SendOrUpdate(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, chartPNG []byte, messageID string) (string, error)
}

// CountryResolver maps a server host to an ISO country code, best effort.
type CountryResolver interface {
	Country(host string) string
}

// Config holds the loop parameters.
type Config struct {
	// Interval between update passes.
	Interval time.Duration

	// HistoryLimit is the number of recent samples charted per server.
	HistoryLimit int
}

// Updater owns the tick loop. A single goroutine runs passes back to back, so
// two passes can never race on the same configs; ticks arriving while a pass
// is still running are dropped.
type Updater struct {
	store    Store
	sender   Sender
	registry *query.Registry

	// geo is optional; nil disables the Location field.
	geo CountryResolver

	interval     time.Duration
	historyLimit int

	passMu   sync.Mutex
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New creates an updater. geo may be nil.
func New(store Store, sender Sender, registry *query.Registry, geo CountryResolver, cfg Config) *Updater {
	return &Updater{
		store:        store,
		sender:       sender,
		registry:     registry,
		geo:          geo,
		interval:     cfg.Interval,
		historyLimit: cfg.HistoryLimit,
		shutdown:     make(chan struct{}),
	}
}

// Start launches the loop: an immediate first pass, then one pass per tick.
func (u *Updater) Start() {
	u.wg.Add(1)
	go u.loop()
}

// Stop signals the loop and waits for the current pass to finish.
func (u *Updater) Stop() {
	close(u.shutdown)
	u.wg.Wait()
}

func (u *Updater) loop() {
	defer u.wg.Done()

	ctx := context.Background()
	u.RunPass(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-u.shutdown:
			return
		case <-ticker.C:
			u.RunPass(ctx)
		}
	}
}

// RunPass executes one full iteration over all configured servers. Passes are
// mutually exclusive; a call that overlaps a running pass is skipped. Failures
// of one server never abort the others; a failure to list configs aborts the
// whole pass and the next tick starts clean.
func (u *Updater) RunPass(ctx context.Context) {
	if !u.passMu.TryLock() {
		log.Warn().Msg("Update pass still running, skipping tick")
		return
	}
	defer u.passMu.Unlock()

	logger := log.With().Str("pass_id", uuid.NewString()).Logger()
	start := time.Now()

	configs, err := u.store.Configs()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list server configs, aborting pass")
		return
	}

	logger.Info().Int("servers", len(configs)).Msg("Starting status update pass")

	for _, cfg := range configs {
		if err := u.updateServer(ctx, logger, cfg); err != nil {
			logger.Error().Err(err).
				Int64("config_id", cfg.ID).
				Str("address", cfg.Address()).
				Msg("Server update failed")
		}
	}

	logger.Info().Dur("took", time.Since(start)).Msg("Status update pass finished")
}

// updateServer performs the per-config step: query, history, chart, compose,
// send, persist the message id. A failed query still produces a notification,
// just the error variant without a chart or history sample.
func (u *Updater) updateServer(ctx context.Context, logger zerolog.Logger, cfg models.ServerConfig) error {
	var embed *discordgo.MessageEmbed
	var chartPNG []byte

	if res := u.queryServer(logger, cfg); res != nil {
		if err := u.store.AppendSample(cfg.ID, res.PlayerCount); err != nil {
			// The sample is simply absent from the series; not fatal to the cycle
			logger.Error().Err(err).Int64("config_id", cfg.ID).Msg("Failed to record player sample")
		}

		history, err := u.store.RecentSamples(cfg.ID, u.historyLimit)
		if err != nil {
			logger.Error().Err(err).Int64("config_id", cfg.ID).Msg("Failed to read player history")
		}

		if img, err := chart.Render(history); err != nil {
			logger.Error().Err(err).Int64("config_id", cfg.ID).Msg("Failed to render chart")
		} else {
			chartPNG = img
		}

		var country string
		if u.geo != nil {
			country = u.geo.Country(cfg.ServerIP)
		}

		embed = notify.Status(res, history, country, cfg.MessageInterval)
	} else {
		embed = notify.Error(cfg.Address())
	}

	messageID, err := u.sender.SendOrUpdate(ctx, cfg.ChannelID, embed, chartPNG, cfg.MessageID)
	if err != nil {
		return err
	}

	if messageID != "" && messageID != cfg.MessageID {
		if err := u.store.SetMessageID(cfg.ID, messageID); err != nil {
			return err
		}
		logger.Debug().
			Int64("config_id", cfg.ID).
			Str("message_id", messageID).
			Msg("Stored new notification message id")
	}

	return nil
}

// queryServer resolves the protocol client and queries the live state.
// Unsupported game types and network failures both come back as nil, the
// offline outcome; timeouts are a normal result here, not an exception.
func (u *Updater) queryServer(logger zerolog.Logger, cfg models.ServerConfig) *query.Result {
	q, ok := u.registry.Lookup(cfg.GameType)
	if !ok {
		logger.Warn().
			Int64("config_id", cfg.ID).
			Str("game_type", cfg.GameType).
			Msg("Unsupported or disallowed game type")
		return nil
	}

	res, err := q.Query(cfg.ServerIP, cfg.ServerPort)
	if err != nil {
		logger.Debug().Err(err).
			Int64("config_id", cfg.ID).
			Str("address", cfg.Address()).
			Msg("Game server query failed")
		return nil
	}

	return res
}
