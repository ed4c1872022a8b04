// Package models defines the data structures persisted in the database and
// shared between the updater components.
package models

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig represents one monitored game server and its notification
// destination. Rows are created and deleted by the dashboard; the updater only
// reads them and rewrites MessageID.
type ServerConfig struct {
	GuildID    string `json:"guild_id"`
	ChannelID  string `json:"channel_id"`
	GameType   string `json:"game_type"`
	ServerIP   string `json:"server_ip"`
	MessageID  string `json:"message_id"` // empty until the first notification is created
	ID         int64  `json:"id"`
	ServerPort int    `json:"server_port"`

	// MessageInterval is the cadence hint shown in the embed footer, in seconds.
	// The updater loop runs on its own global interval.
	MessageInterval int `json:"message_interval"`
}

// Address returns the host:port string queried for this config.
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.ServerIP, strconv.Itoa(c.ServerPort))
}

// PlayerSample is one player-count observation for a server config.
// Rows are append-only; Timestamp is assigned by the store at insert time.
type PlayerSample struct {
	Timestamp      time.Time `json:"timestamp"`
	ServerConfigID int64     `json:"server_config_id"`
	PlayerCount    int       `json:"player_count"`
}
