// Package storage handles the database connection, schema, and data operations
// using SQLite.
package storage

import (
	"database/sql"
	"time"

	"beacon/internal/models"

	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters,
// and ensures the schema exists.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// ensureSchema creates the tables the updater relies on. The dashboard shares
// the same schema, so everything is guarded with IF NOT EXISTS.
func ensureSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS server_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		game_type TEXT NOT NULL,
		server_ip TEXT NOT NULL,
		server_port INTEGER NOT NULL,
		message_id TEXT,
		message_interval INTEGER NOT NULL DEFAULT 60
	);

	CREATE TABLE IF NOT EXISTS player_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server_config_id INTEGER NOT NULL REFERENCES server_configs(id),
		timestamp DATETIME NOT NULL,
		player_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_player_history_config_time
		ON player_history (server_config_id, timestamp);
	`

	_, err := db.Exec(schema)
	return err
}

// Configs retrieves all server configs ordered by id, which fixes the
// processing order of an update pass.
func (r *Repository) Configs() ([]models.ServerConfig, error) {
	rows, err := r.db.Query(`
		SELECT id, guild_id, channel_id, game_type, server_ip, server_port, message_id, message_interval
		FROM server_configs
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var configs []models.ServerConfig
	for rows.Next() {
		var c models.ServerConfig
		var messageID sql.NullString
		if err := rows.Scan(
			&c.ID, &c.GuildID, &c.ChannelID, &c.GameType,
			&c.ServerIP, &c.ServerPort, &messageID, &c.MessageInterval,
		); err != nil {
			return nil, err
		}
		c.MessageID = messageID.String
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return configs, nil
}

// CreateConfig inserts a new server config and returns its id.
// The production CRUD surface lives in the dashboard; this is used by the
// fake data seeder and tests.
func (r *Repository) CreateConfig(c models.ServerConfig) (int64, error) {
	interval := c.MessageInterval
	if interval == 0 {
		interval = 60
	}

	res, err := r.db.Exec(`
		INSERT INTO server_configs (guild_id, channel_id, game_type, server_ip, server_port, message_id, message_interval)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?)
	`, c.GuildID, c.ChannelID, c.GameType, c.ServerIP, c.ServerPort, c.MessageID, interval)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// DeleteConfig removes a server config row. Its history rows become orphans
// until PruneOrphanSamples runs.
func (r *Repository) DeleteConfig(id int64) error {
	_, err := r.db.Exec(`DELETE FROM server_configs WHERE id = ?`, id)
	return err
}

// SetMessageID persists the Discord message identifier for a config, so the
// next cycle edits the existing notification instead of posting a new one.
func (r *Repository) SetMessageID(configID int64, messageID string) error {
	_, err := r.db.Exec(`UPDATE server_configs SET message_id = NULLIF(?, '') WHERE id = ?`,
		messageID, configID)
	return err
}

// AppendSample records a player-count observation for a config.
// The timestamp is assigned here, at write time, in UTC.
func (r *Repository) AppendSample(configID int64, count int) error {
	return r.AppendSampleAt(configID, count, time.Now().UTC())
}

// AppendSampleAt records an observation with an explicit timestamp. Used by
// the demo data seeder; live cycles always stamp at write time.
func (r *Repository) AppendSampleAt(configID int64, count int, ts time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO player_history (server_config_id, timestamp, player_count)
		VALUES (?, ?, ?)
	`, configID, ts, count)
	return err
}

// RecentSamples returns at most limit of the newest samples for a config,
// ordered oldest-first for charting. Older rows may exist beyond the window.
func (r *Repository) RecentSamples(configID int64, limit int) ([]models.PlayerSample, error) {
	rows, err := r.db.Query(`
		SELECT timestamp, player_count
		FROM player_history
		WHERE server_config_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, configID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var samples []models.PlayerSample
	for rows.Next() {
		s := models.PlayerSample{ServerConfigID: configID}
		if err := rows.Scan(&s.Timestamp, &s.PlayerCount); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returns newest-first so LIMIT keeps the right rows; flip for charting
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}

	return samples, nil
}

// PruneOrphanSamples removes history rows whose server config was deleted.
func (r *Repository) PruneOrphanSamples() (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM player_history
		WHERE server_config_id NOT IN (SELECT id FROM server_configs)
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TrimSamples removes history rows older than maxAge. The recent-window read
// contract is unaffected as long as maxAge comfortably exceeds the chart span.
func (r *Repository) TrimSamples(maxAge time.Duration) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM player_history WHERE timestamp < ?`,
		time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
