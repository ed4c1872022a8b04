package storage

import (
	"path/filepath"
	"testing"
	"time"

	"beacon/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "beacon.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func testConfig() models.ServerConfig {
	return models.ServerConfig{
		GuildID:         "100000000000000001",
		ChannelID:       "100000000000000002",
		GameType:        "dayz",
		ServerIP:        "192.0.2.10",
		ServerPort:      2302,
		MessageInterval: 60,
	}
}

func TestCreateAndListConfigs(t *testing.T) {
	repo := newTestRepo(t)

	first, err := repo.CreateConfig(testConfig())
	if err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}

	second := testConfig()
	second.ServerPort = 2402
	secondID, err := repo.CreateConfig(second)
	if err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}

	configs, err := repo.Configs()
	if err != nil {
		t.Fatalf("Configs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	if configs[0].ID != first || configs[1].ID != secondID {
		t.Errorf("configs not ordered by id: %d, %d", configs[0].ID, configs[1].ID)
	}
	if configs[0].MessageID != "" {
		t.Errorf("new config should have empty message id, got %q", configs[0].MessageID)
	}
	if configs[1].ServerPort != 2402 {
		t.Errorf("expected port 2402, got %d", configs[1].ServerPort)
	}
}

func TestSetMessageID(t *testing.T) {
	repo := newTestRepo(t)

	id, err := repo.CreateConfig(testConfig())
	if err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}

	if err := repo.SetMessageID(id, "555000111"); err != nil {
		t.Fatalf("SetMessageID: %v", err)
	}

	configs, err := repo.Configs()
	if err != nil {
		t.Fatalf("Configs: %v", err)
	}
	if configs[0].MessageID != "555000111" {
		t.Errorf("expected message id to persist, got %q", configs[0].MessageID)
	}

	// Clearing maps back to NULL and reads back as empty
	if err := repo.SetMessageID(id, ""); err != nil {
		t.Fatalf("SetMessageID clear: %v", err)
	}
	configs, _ = repo.Configs()
	if configs[0].MessageID != "" {
		t.Errorf("expected cleared message id, got %q", configs[0].MessageID)
	}
}

func TestRecentSamplesWindowAndOrder(t *testing.T) {
	repo := newTestRepo(t)

	id, err := repo.CreateConfig(testConfig())
	if err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		if err := repo.AppendSampleAt(id, i, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("AppendSampleAt: %v", err)
		}
	}

	samples, err := repo.RecentSamples(id, 24)
	if err != nil {
		t.Fatalf("RecentSamples: %v", err)
	}
	if len(samples) != 24 {
		t.Fatalf("expected 24 samples, got %d", len(samples))
	}

	// Newest 24 of 30, oldest-first: counts 6..29
	if samples[0].PlayerCount != 6 || samples[23].PlayerCount != 29 {
		t.Errorf("unexpected window: first=%d last=%d", samples[0].PlayerCount, samples[23].PlayerCount)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			t.Fatalf("samples not oldest-first at index %d", i)
		}
	}
}

func TestRecentSamplesEmptyAndUnderLimit(t *testing.T) {
	repo := newTestRepo(t)

	id, err := repo.CreateConfig(testConfig())
	if err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}

	samples, err := repo.RecentSamples(id, 24)
	if err != nil {
		t.Fatalf("RecentSamples on empty history: %v", err)
	}
	if len(samples) != 0 {
		t.Fatalf("expected no samples, got %d", len(samples))
	}

	if err := repo.AppendSample(id, 7); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}

	// Read-your-write: the sample just appended is visible immediately
	samples, err = repo.RecentSamples(id, 24)
	if err != nil {
		t.Fatalf("RecentSamples: %v", err)
	}
	if len(samples) != 1 || samples[0].PlayerCount != 7 {
		t.Fatalf("expected the appended sample back, got %+v", samples)
	}
}

func TestSamplesAreScopedPerConfig(t *testing.T) {
	repo := newTestRepo(t)

	a, _ := repo.CreateConfig(testConfig())
	other := testConfig()
	other.ServerPort = 2502
	b, _ := repo.CreateConfig(other)

	if err := repo.AppendSample(a, 5); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}

	samples, err := repo.RecentSamples(b, 24)
	if err != nil {
		t.Fatalf("RecentSamples: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("config b should have no samples, got %d", len(samples))
	}
}

func TestPruneOrphanSamples(t *testing.T) {
	repo := newTestRepo(t)

	keep, _ := repo.CreateConfig(testConfig())
	gone := testConfig()
	gone.ServerPort = 2602
	goneID, _ := repo.CreateConfig(gone)

	_ = repo.AppendSample(keep, 3)
	_ = repo.AppendSample(goneID, 9)

	if err := repo.DeleteConfig(goneID); err != nil {
		t.Fatalf("DeleteConfig: %v", err)
	}

	deleted, err := repo.PruneOrphanSamples()
	if err != nil {
		t.Fatalf("PruneOrphanSamples: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 orphan deleted, got %d", deleted)
	}

	samples, _ := repo.RecentSamples(keep, 24)
	if len(samples) != 1 {
		t.Errorf("surviving config lost its history, got %d samples", len(samples))
	}
}

func TestTrimSamples(t *testing.T) {
	repo := newTestRepo(t)

	id, _ := repo.CreateConfig(testConfig())

	now := time.Now().UTC()
	_ = repo.AppendSampleAt(id, 1, now.Add(-48*time.Hour))
	_ = repo.AppendSampleAt(id, 2, now.Add(-30*time.Minute))

	deleted, err := repo.TrimSamples(24 * time.Hour)
	if err != nil {
		t.Fatalf("TrimSamples: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 old sample trimmed, got %d", deleted)
	}

	samples, _ := repo.RecentSamples(id, 24)
	if len(samples) != 1 || samples[0].PlayerCount != 2 {
		t.Errorf("expected only the recent sample to survive, got %+v", samples)
	}
}
