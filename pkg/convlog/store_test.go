package convlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "conversations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(sessionID, message string, at time.Time) Record {
	return Record{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		UserMessage: message,
		BotResponse: "reply to " + message,
		CreatedAt:   at,
	}
}

// TestInsertAndHistory verifies per-session history comes back in
// chronological order with the limit applied to the newest records.
func TestInsertAndHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := testRecord("s1", fmt.Sprintf("message-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := store.Insert(ctx, testRecord("s2", "other session", base)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	records, err := store.History(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// The newest three, oldest first.
	want := []string{"message-2", "message-3", "message-4"}
	for i, w := range want {
		if records[i].UserMessage != w {
			t.Errorf("records[%d] = %q, want %q", i, records[i].UserMessage, w)
		}
	}
	for _, rec := range records {
		if rec.SessionID != "s1" {
			t.Errorf("history leaked record from session %q", rec.SessionID)
		}
	}
}

// TestHistoryDefaultLimit verifies limit <= 0 falls back to 10.
func TestHistoryDefaultLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		if err := store.Insert(ctx, testRecord("s1", fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	records, err := store.History(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("got %d records, want 10", len(records))
	}
}

// TestAll verifies the cross-session dump and its optional cap.
func TestAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		session := fmt.Sprintf("s%d", i%2)
		if err := store.Insert(ctx, testRecord(session, fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	records, err := store.All(ctx, 0)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	if records[0].UserMessage != "m0" || records[3].UserMessage != "m3" {
		t.Fatalf("records out of order: %v", records)
	}

	capped, err := store.All(ctx, 2)
	if err != nil {
		t.Fatalf("all capped: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("got %d capped records, want 2", len(capped))
	}
}

// TestStats verifies the aggregate counters.
func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalConversations != 0 || stats.UniqueSessions != 0 {
		t.Fatalf("empty store stats = %+v", stats)
	}

	now := time.Now()
	for _, session := range []string{"a", "a", "b"} {
		if err := store.Insert(ctx, testRecord(session, "m", now)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalConversations != 3 || stats.UniqueSessions != 2 {
		t.Fatalf("stats = %+v, want 3 total / 2 sessions", stats)
	}
}

// TestDeleteOlderThan verifies retention trimming.
func TestDeleteOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	if err := store.Insert(ctx, testRecord("s1", "old", now.AddDate(0, 0, -100))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, testRecord("s1", "recent", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	removed, err := store.DeleteOlderThan(ctx, now.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	records, err := store.All(ctx, 0)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 1 || records[0].UserMessage != "recent" {
		t.Fatalf("unexpected survivors: %v", records)
	}
}

// TestReopen verifies the database persists across open/close cycles.
func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Insert(context.Background(), testRecord("s1", "survives", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	records, err := store.All(context.Background(), 0)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 1 || records[0].UserMessage != "survives" {
		t.Fatalf("record did not survive reopen: %v", records)
	}
}
