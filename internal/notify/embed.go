// Package notify composes Discord embed payloads from game query results and
// player history. It is pure; all I/O belongs to the messaging client.
package notify

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"beacon/internal/models"
	"beacon/internal/query"

	"github.com/bwmarrin/discordgo"
)

const (
	// colorOnline is Discord blurple, colorOffline the error red.
	colorOnline  = 0x7289DA
	colorOffline = 0xFF0000

	// fieldLimit is the Discord maximum length of an embed field value.
	fieldLimit = 1024

	// ChartFilename is the attachment name referenced by the status embed.
	ChartFilename = "chart.png"
)

// Status builds the rich embed for a reachable server. The chart image itself
// travels as an attachment; the embed references it by filename. country may
// be empty, intervalSeconds feeds the footer cadence hint.
func Status(res *query.Result, history []models.PlayerSample, country string, intervalSeconds int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎮 %s Server Status", res.Name),
		Description: fmt.Sprintf("Player count trend: `%s`", trendLine(history)),
		Color:       colorOnline,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Image:       &discordgo.MessageEmbedImage{URL: "attachment://" + ChartFilename},
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText(intervalSeconds)},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👥 Players", Value: code(fmt.Sprintf("%d/%d", res.PlayerCount, res.MaxPlayers)), Inline: true},
			{Name: "🗺️ Map", Value: code(orNA(res.Map)), Inline: true},
			{Name: "🏷️ Game", Value: code(orNA(res.Game)), Inline: true},
		},
	}

	if country != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "🌍 Location", Value: code(country), Inline: true,
		})
	}

	if len(res.Players) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("📋 Player List (%d)", res.PlayerCount),
			Value: playerList(res.Players),
		})
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "🔗 Connect", Value: code(res.Connect),
	})

	if res.Version != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "📊 Version", Value: code(res.Version), Inline: true,
		})
	}

	if res.Ping > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "📶 Ping", Value: code(fmt.Sprintf("%dms", res.Ping.Milliseconds())), Inline: true,
		})
	}

	return embed
}

// Error builds the visually distinct embed for an unreachable server.
// It carries the attempted address and no chart.
func Error(address string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Server Status Error",
		Description: fmt.Sprintf("Unable to query the game server at %s", address),
		Color:       colorOffline,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// playerList renders names alphabetically in a code block, truncated to the
// embed field limit with a terminating ellipsis.
func playerList(players []string) string {
	names := make([]string, len(players))
	copy(names, players)
	sort.Strings(names)

	block := "```\n" + strings.Join(names, "\n") + "```"
	if len(block) <= fieldLimit {
		return block
	}

	cut := fieldLimit - 3
	for cut > 0 && !utf8.RuneStart(block[cut]) {
		cut--
	}
	return block[:cut] + "..."
}

// trendLine joins the historical counts oldest-first, mirroring the chart.
func trendLine(history []models.PlayerSample) string {
	if len(history) == 0 {
		return "no data"
	}

	counts := make([]string, len(history))
	for i, s := range history {
		counts[i] = strconv.Itoa(s.PlayerCount)
	}
	return strings.Join(counts, ",")
}

func footerText(intervalSeconds int) string {
	if intervalSeconds == 60 {
		return "Player count updated every minute"
	}
	return fmt.Sprintf("Player count updated every %s", time.Duration(intervalSeconds)*time.Second)
}

func code(s string) string {
	return "`" + s + "`"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
