package convlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// TestServiceWritesQueuedRecords verifies the async writer persists
// records and fills in missing ids and timestamps.
func TestServiceWritesQueuedRecords(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "conversations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	svc := NewService(store, 0, "")
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	svc.Record(Record{SessionID: "s1", UserMessage: "hello", BotResponse: "hi"})
	svc.Record(Record{SessionID: "s1", UserMessage: "again", BotResponse: "yes"})

	// Cancel triggers the drain path; Stop waits for it.
	cancel()
	svc.Stop()

	records, err := store.All(context.Background(), 0)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, rec := range records {
		if rec.ID == "" {
			t.Error("record id was not filled in")
		}
		if rec.CreatedAt.IsZero() {
			t.Error("record timestamp was not filled in")
		}
	}

	if svc.Dropped() != 0 {
		t.Fatalf("dropped = %d, want 0", svc.Dropped())
	}
}

// TestServiceStopWithoutCancel verifies Stop returns on its own when
// the Start context is never cancelled, draining pending records. The
// interactive chat command relies on this for a clean exit.
func TestServiceStopWithoutCancel(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "conversations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	svc := NewService(store, 0, "")
	svc.Start(context.Background())
	svc.Record(Record{SessionID: "s1", UserMessage: "hello", BotResponse: "hi"})

	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked with an uncancelled parent context")
	}

	records, err := store.All(context.Background(), 0)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

// TestServiceDropsWhenQueueFull verifies overflow beyond the grace
// period increments the dropped counter instead of blocking.
func TestServiceDropsWhenQueueFull(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "conversations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	// Never started, so nothing drains the queue.
	svc := NewService(store, 0, "")
	for i := 0; i < queueCapacity+1; i++ {
		svc.Record(Record{SessionID: "s1", UserMessage: fmt.Sprint(i)})
	}

	if svc.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", svc.Dropped())
	}
}

// TestServiceStartIsIdempotent verifies double Start does not spawn a
// second writer.
func TestServiceStartIsIdempotent(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "conversations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	svc := NewService(store, 0, "")
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	svc.Start(ctx)

	svc.Record(Record{SessionID: "s1", UserMessage: "once"})
	cancel()

	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return; writer count mismatch")
	}
}
