package treelog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/treelog/treelog"
)

func tempLogPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "events.json")
}

func TestJSONFileLog(t *testing.T) {
	t.Run("AppendAndReadBack", func(t *testing.T) {
		path := tempLogPath(t)
		log, err := treelog.NewJSONFileLog(path)
		if err != nil {
			t.Fatalf("failed to open log: %v", err)
		}
		defer func() { _ = log.Close() }()

		ev1 := insertEvent(t, 1, "b1", "a", "A", "", 0)
		ev2 := insertEvent(t, 2, "b1", "b", "B", "", 1)
		if err := log.Append(ev1); err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if err := log.Append(ev2); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		events, err := log.All()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		// Per-device append order is preserved.
		if events[0].ID != ev1.ID || events[1].ID != ev2.ID {
			t.Errorf("append order not preserved: %s, %s", events[0].ID, events[1].ID)
		}
	})

	t.Run("PersistsAcrossReopen", func(t *testing.T) {
		path := tempLogPath(t)
		log, err := treelog.NewJSONFileLog(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := log.Append(insertEvent(t, 1, "b1", "a", "Survives", "", 0)); err != nil {
			t.Fatal(err)
		}
		if err := log.Close(); err != nil {
			t.Fatal(err)
		}

		reopened, err := treelog.NewJSONFileLog(path)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = reopened.Close() }()

		events, err := reopened.All()
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 1 {
			t.Fatalf("expected 1 event after reopen, got %d", len(events))
		}
		payload, err := events[0].DecodePayload()
		if err != nil {
			t.Fatalf("payload did not survive the round trip: %v", err)
		}
		_ = payload
	})

	t.Run("MissingFileIsEmptyLog", func(t *testing.T) {
		log, err := treelog.NewJSONFileLog(tempLogPath(t))
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = log.Close() }()

		events, err := log.All()
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 0 {
			t.Errorf("expected empty log, got %d events", len(events))
		}
	})

	t.Run("EmptyFileIsEmptyLog", func(t *testing.T) {
		path := tempLogPath(t)
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
		log, err := treelog.NewJSONFileLog(path)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = log.Close() }()

		events, err := log.All()
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 0 {
			t.Errorf("expected empty log, got %d events", len(events))
		}
	})

	t.Run("TwoHandlesShareOneFile", func(t *testing.T) {
		// Two opens of the same path model two processes appending;
		// neither append may clobber the other's.
		path := tempLogPath(t)
		first, err := treelog.NewJSONFileLog(path)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = first.Close() }()
		second, err := treelog.NewJSONFileLog(path)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = second.Close() }()

		if err := first.Append(insertEvent(t, 1, "b1", "a", "From first", "", 0)); err != nil {
			t.Fatal(err)
		}
		if err := second.Append(insertEvent(t, 2, "b2", "b", "From second", "", 1)); err != nil {
			t.Fatal(err)
		}

		events, err := first.All()
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 2 {
			t.Fatalf("expected both appends retained, got %d events", len(events))
		}
	})
}

func TestMemoryLog(t *testing.T) {
	log := treelog.NewMemoryLog()
	ev := insertEvent(t, 1, "b1", "a", "A", "", 0)
	if err := log.Append(ev); err != nil {
		t.Fatal(err)
	}

	events, err := log.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != ev.ID {
		t.Fatalf("unexpected events: %+v", events)
	}

	// All hands out a copy, not the backing slice.
	events[0].BatchID = "tampered"
	fresh, _ := log.All()
	if fresh[0].BatchID == "tampered" {
		t.Error("All leaked the internal slice")
	}
}
