package history

import (
	"path/filepath"
	"testing"
	"time"
)

func storeFixture(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRecordAndRecent(t *testing.T) {
	store := storeFixture(t)
	base := time.Now().Add(-time.Hour)

	for i, scene := range []string{"Scene A", "Scene B", "Scene A"} {
		err := store.Record(&SwitchRecord{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Monitor:     0,
			Application: "Google Meet",
			WindowTitle: "meet.google.com/abc-def",
			Scene:       scene,
			Success:     true,
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	records, err := store.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Scene != "Scene A" || records[1].Scene != "Scene B" {
		t.Fatalf("expected newest first, got %q then %q", records[0].Scene, records[1].Scene)
	}
}

func TestStoreRecordDefaultsTimestamp(t *testing.T) {
	store := storeFixture(t)

	rec := &SwitchRecord{Monitor: 0, Application: "Meet", Scene: "Scene A", Success: true}
	if err := store.Record(rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be filled in")
	}
}

func TestStoreTotals(t *testing.T) {
	store := storeFixture(t)
	now := time.Now()

	events := []struct {
		scene   string
		success bool
		age     time.Duration
	}{
		{"Scene A", true, time.Minute},
		{"Scene A", true, 2 * time.Minute},
		{"Scene A", false, 3 * time.Minute},
		{"Scene B", true, 4 * time.Minute},
		{"Scene B", true, 48 * time.Hour}, // outside the window
	}
	for _, e := range events {
		err := store.Record(&SwitchRecord{
			Timestamp:   now.Add(-e.age),
			Application: "Meet",
			Scene:       e.scene,
			Success:     e.success,
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	totals, err := store.Totals(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(totals))
	}
	if totals[0].Scene != "Scene A" || totals[0].Switches != 2 || totals[0].Failures != 1 {
		t.Fatalf("unexpected Scene A summary %+v", totals[0])
	}
	if totals[1].Scene != "Scene B" || totals[1].Switches != 1 {
		t.Fatalf("unexpected Scene B summary %+v", totals[1])
	}
}
