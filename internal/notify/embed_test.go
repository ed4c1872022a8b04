package notify

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"beacon/internal/models"
	"beacon/internal/query"
)

func onlineResult() *query.Result {
	return &query.Result{
		Name:        "Pripyat Nights",
		Map:         "chernarusplus",
		Game:        "DayZ",
		Version:     "1.25.160000",
		Players:     []string{"zoe", "anton", "Mira"},
		PlayerCount: 3,
		MaxPlayers:  60,
		Ping:        42 * time.Millisecond,
		Connect:     "192.0.2.10:2302",
	}
}

func TestStatusEmbedFields(t *testing.T) {
	history := []models.PlayerSample{
		{Timestamp: time.Now().Add(-2 * time.Minute), PlayerCount: 1},
		{Timestamp: time.Now().Add(-time.Minute), PlayerCount: 2},
		{Timestamp: time.Now(), PlayerCount: 3},
	}

	embed := Status(onlineResult(), history, "DE", 60)

	if embed.Color != colorOnline {
		t.Errorf("expected blurple accent, got %#x", embed.Color)
	}
	if !strings.Contains(embed.Title, "Pripyat Nights") {
		t.Errorf("title missing server name: %q", embed.Title)
	}
	if !strings.Contains(embed.Description, "1,2,3") {
		t.Errorf("description missing trend: %q", embed.Description)
	}
	if embed.Image == nil || embed.Image.URL != "attachment://chart.png" {
		t.Errorf("status embed must reference the chart attachment, got %+v", embed.Image)
	}
	if embed.Footer == nil || embed.Footer.Text != "Player count updated every minute" {
		t.Errorf("unexpected footer: %+v", embed.Footer)
	}

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}

	if values["👥 Players"] != "`3/60`" {
		t.Errorf("players field: %q", values["👥 Players"])
	}
	if values["🗺️ Map"] != "`chernarusplus`" {
		t.Errorf("map field: %q", values["🗺️ Map"])
	}
	if values["🌍 Location"] != "`DE`" {
		t.Errorf("location field: %q", values["🌍 Location"])
	}
	if values["🔗 Connect"] != "`192.0.2.10:2302`" {
		t.Errorf("connect field: %q", values["🔗 Connect"])
	}
	if values["📶 Ping"] != "`42ms`" {
		t.Errorf("ping field: %q", values["📶 Ping"])
	}
}

func TestStatusEmbedPlayerListSorted(t *testing.T) {
	embed := Status(onlineResult(), nil, "", 60)

	var list string
	for _, f := range embed.Fields {
		if strings.HasPrefix(f.Name, "📋 Player List") {
			list = f.Value
		}
	}
	if list == "" {
		t.Fatal("player list field missing")
	}

	// Sorted byte-wise: uppercase before lowercase
	wantOrder := []string{"Mira", "anton", "zoe"}
	last := -1
	for _, name := range wantOrder {
		idx := strings.Index(list, name)
		if idx < 0 {
			t.Fatalf("player %q missing from list %q", name, list)
		}
		if idx < last {
			t.Fatalf("player list not sorted: %q", list)
		}
		last = idx
	}
}

func TestStatusEmbedPlayerListTruncated(t *testing.T) {
	res := onlineResult()
	res.Players = nil
	for i := 0; i < 200; i++ {
		res.Players = append(res.Players, fmt.Sprintf("survivor_with_a_long_name_%03d", i))
	}
	res.PlayerCount = len(res.Players)

	embed := Status(res, nil, "", 60)

	var list string
	for _, f := range embed.Fields {
		if strings.HasPrefix(f.Name, "📋 Player List") {
			list = f.Value
		}
	}

	if len(list) > fieldLimit {
		t.Errorf("player list exceeds field limit: %d", len(list))
	}
	if !strings.HasSuffix(list, "...") {
		t.Errorf("truncated list must end with an ellipsis: %q", list[len(list)-10:])
	}
}

func TestStatusEmbedOmitsEmptyOptionalFields(t *testing.T) {
	res := onlineResult()
	res.Players = nil
	res.Version = ""
	res.Ping = 0

	embed := Status(res, nil, "", 300)

	for _, f := range embed.Fields {
		switch {
		case strings.HasPrefix(f.Name, "📋"):
			t.Error("player list present despite no players")
		case strings.HasPrefix(f.Name, "📊"):
			t.Error("version field present despite empty version")
		case strings.HasPrefix(f.Name, "📶"):
			t.Error("ping field present despite zero ping")
		case strings.HasPrefix(f.Name, "🌍"):
			t.Error("location field present despite unknown country")
		}
	}

	if embed.Footer.Text != "Player count updated every 5m0s" {
		t.Errorf("unexpected footer for 300s interval: %q", embed.Footer.Text)
	}
}

func TestErrorEmbed(t *testing.T) {
	embed := Error("192.0.2.10:2302")

	if embed.Color != colorOffline {
		t.Errorf("error embed must use the red accent, got %#x", embed.Color)
	}
	if !strings.Contains(embed.Description, "192.0.2.10:2302") {
		t.Errorf("error embed must carry the attempted address: %q", embed.Description)
	}
	if embed.Image != nil {
		t.Error("error embed must not reference a chart")
	}
	if len(embed.Fields) != 0 {
		t.Errorf("error embed should have no fields, got %d", len(embed.Fields))
	}
}

func TestTrendLineEmptyHistory(t *testing.T) {
	embed := Status(onlineResult(), nil, "", 60)
	if !strings.Contains(embed.Description, "no data") {
		t.Errorf("empty history should render as no data: %q", embed.Description)
	}
}
