package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/facegate/facegate/internal/database"
)

func testEmbedding(id database.Identity, vec []float32) database.StoredEmbedding {
	return database.StoredEmbedding{
		Identity:  id,
		Vector:    vec,
		Strategy:  "embedding",
		Dim:       len(vec),
		CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local),
	}
}

func testEntry(id database.Identity, label string) database.RosterEntry {
	return database.RosterEntry{
		Identity:     id,
		Label:        label,
		RegisteredAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local),
	}
}

func TestStore_Bootstrap(t *testing.T) {
	dir := t.TempDir()
	_, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "roster.csv"))
	if err != nil {
		t.Fatalf("roster.csv not bootstrapped: %v", err)
	}
	if !strings.HasPrefix(string(data), "user_id,label,register_date,register_time") {
		t.Errorf("missing roster header, got %q", data)
	}
}

func TestStore_EnrollAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ctx := context.Background()
	if err := store.Enroll(ctx, testEmbedding("id-1", []float32{1, 2}), testEntry("id-1", "Alice")); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if err := store.Enroll(ctx, testEmbedding("id-2", []float32{3, 4}), testEntry("id-2", "")); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	// A fresh Store must see the same state from disk.
	reloaded, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}

	embeddings, err := reloaded.Embeddings(ctx)
	if err != nil {
		t.Fatalf("Embeddings: %v", err)
	}
	if len(embeddings) != 2 {
		t.Fatalf("expected 2 embeddings after reload, got %d", len(embeddings))
	}
	// Insertion order must survive the round trip (the matcher's tie-break
	// depends on it).
	if embeddings[0].Identity != "id-1" || embeddings[1].Identity != "id-2" {
		t.Errorf("insertion order lost: %v, %v", embeddings[0].Identity, embeddings[1].Identity)
	}
	if embeddings[0].Vector[1] != 2 {
		t.Errorf("vector corrupted: %v", embeddings[0].Vector)
	}

	roster, err := reloaded.Roster(ctx)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(roster) != 2 || roster[0].Label != "Alice" {
		t.Errorf("unexpected roster: %+v", roster)
	}

	has, _ := reloaded.HasIdentity(ctx, "id-1")
	if !has {
		t.Error("HasIdentity lost id-1 after reload")
	}
	has, _ = reloaded.HasIdentity(ctx, "id-9")
	if has {
		t.Error("HasIdentity invented id-9")
	}
}

func TestStore_LegacyThreeColumnRoster(t *testing.T) {
	dir := t.TempDir()
	legacy := "user_id,label,register_date,register_time\nlegacy-1,2023-05-01,08:00:00\n"
	if err := os.WriteFile(filepath.Join(dir, "roster.csv"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	roster, _ := store.Roster(context.Background())
	if len(roster) != 1 || roster[0].Identity != "legacy-1" || roster[0].Label != "" {
		t.Errorf("legacy row not parsed: %+v", roster)
	}
}

func TestStore_Refresh(t *testing.T) {
	dir := t.TempDir()
	a, _ := NewStore(dir)
	b, _ := NewStore(dir)

	ctx := context.Background()
	if err := a.Enroll(ctx, testEmbedding("id-1", []float32{1}), testEntry("id-1", "")); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	// b serves its stale snapshot until told to refresh.
	count, _ := b.Count(ctx)
	if count != 0 {
		t.Errorf("expected stale snapshot before refresh, got count %d", count)
	}
	if err := b.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	count, _ = b.Count(ctx)
	if count != 1 {
		t.Errorf("expected count 1 after refresh, got %d", count)
	}
}

func TestLog_RecordAndReload(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLog(dir)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}

	ctx := context.Background()
	events := []database.AttendanceEvent{
		{Identity: "a", Timestamp: time.Date(2024, 1, 1, 8, 40, 0, 0, time.Local), Direction: database.DirectionEnter},
		{Identity: "a", Timestamp: time.Date(2024, 1, 1, 17, 10, 0, 0, time.Local), Direction: database.DirectionExit},
		{Identity: "b", Timestamp: time.Date(2024, 1, 2, 8, 15, 0, 0, time.Local), Direction: database.DirectionEnter},
	}
	for _, e := range events {
		if err := log.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	reloaded, err := NewLog(dir)
	if err != nil {
		t.Fatalf("reopening log: %v", err)
	}
	day, warnings, err := reloaded.EventsFor(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("EventsFor: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(day) != 2 {
		t.Fatalf("expected 2 events on 2024-01-01, got %d", len(day))
	}
	if day[0].Direction != database.DirectionEnter || day[1].Direction != database.DirectionExit {
		t.Errorf("events out of order: %+v", day)
	}
}

func TestLog_MalformedRowsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		"user_id,date,time,enter_or_exit",
		"a,2024-01-01,08:40:00,enter",
		"b,2024-01-01,banana,enter",
		"c,2024-01-01,09:00:00,sideways",
		"a,2024-01-01,17:10:00,exit",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "events.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	log, err := NewLog(dir)
	if err != nil {
		t.Fatalf("one corrupt row must not block the log: %v", err)
	}

	events, warnings, err := log.EventsFor(context.Background(), "2024-01-01")
	if err != nil {
		t.Fatalf("EventsFor: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 valid events, got %d", len(events))
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 malformed warnings, got %v", warnings)
	}
	if warnings[0].Line != 3 {
		t.Errorf("expected first warning on line 3, got %d", warnings[0].Line)
	}
}

func TestLog_All(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLog(dir)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}

	ctx := context.Background()
	stamps := []time.Time{
		time.Date(2024, 1, 2, 9, 0, 0, 0, time.Local),
		time.Date(2024, 1, 1, 8, 40, 0, 0, time.Local),
	}
	for _, ts := range stamps {
		if err := log.Record(ctx, database.AttendanceEvent{
			Identity: "a", Timestamp: ts, Direction: database.DirectionEnter,
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, warnings, err := log.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events across all dates, got %d", len(all))
	}
	// File order, not time order.
	if !all[0].Timestamp.Equal(stamps[0]) {
		t.Errorf("All must preserve file order, got %v first", all[0].Timestamp)
	}
}

func TestLog_HeaderBootstrap(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewLog(dir); err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "events.csv"))
	if err != nil {
		t.Fatalf("events.csv not bootstrapped: %v", err)
	}
	if !strings.HasPrefix(string(data), "user_id,date,time,enter_or_exit") {
		t.Errorf("missing events header, got %q", data)
	}
}
