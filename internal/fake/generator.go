// Package fake provides utilities for generating demo server configs and
// player history for development and dashboard screenshots.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"beacon/internal/models"
	"beacon/internal/storage"
)

// GenerateData populates the storage with a specified number of randomized
// server configs, each carrying a day of player-count history.
func GenerateData(store *storage.Repository, count int) {
	games := []string{"dayz", "rust", "valheim", "csgo", "projectzomboid", "minecraft"}

	for i := 0; i < count; i++ {
		cfg := models.ServerConfig{
			GuildID:         fmt.Sprintf("%018d", rand.Int63n(1e17)),
			ChannelID:       fmt.Sprintf("%018d", rand.Int63n(1e17)),
			GameType:        games[rand.Intn(len(games))],
			ServerIP:        fmt.Sprintf("%d.%d.%d.%d", rand.Intn(220)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255)),
			ServerPort:      2302 + rand.Intn(30000),
			MessageInterval: 60,
		}

		id, err := store.CreateConfig(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake config")
			continue
		}

		// A day of hourly observations following a rough day/night curve
		base := rand.Intn(40)
		now := time.Now().UTC()
		for h := 24; h > 0; h-- {
			players := base + rand.Intn(20) - 10
			if h > 6 && h < 14 { // quiet overnight hours
				players /= 3
			}
			if players < 0 {
				players = 0
			}

			ts := now.Add(-time.Duration(h) * time.Hour)
			if err := store.AppendSampleAt(id, players, ts); err != nil {
				log.Warn().Err(err).Int64("config_id", id).Msg("Failed to generate fake sample")
			}
		}

		log.Debug().
			Int64("config_id", id).
			Str("game", cfg.GameType).
			Str("address", cfg.Address()).
			Msg("Generated fake server config")
	}
}
