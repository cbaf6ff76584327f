package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestUpsert_Basic(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	l := Letter{
		ParticipantID: 42,
		Username:      "ded",
		FirstName:     "Grand",
		LastName:      "Father",
		Text:          "Dear Santa, I want a book.",
	}
	if err := s.Upsert(ctx, l); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Text != l.Text {
		t.Errorf("text = %q, want %q", got.Text, l.Text)
	}
	if got.Username != l.Username {
		t.Errorf("username = %q, want %q", got.Username, l.Username)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("updated_at not populated")
	}
}

func TestUpsert_ReplacesWholeRecord(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	first := Letter{ParticipantID: 7, Username: "old", Text: "first draft"}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	second := Letter{ParticipantID: 7, Username: "new", Text: "final letter"}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() replace failed: %v", err)
	}

	got, err := s.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Text != "final letter" {
		t.Errorf("text = %q, want %q", got.Text, "final letter")
	}
	if got.Username != "new" {
		t.Errorf("username = %q, want %q (whole record must be replaced)", got.Username, "new")
	}

	// Still exactly one row for the participant
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestUpsert_IdempotentForIdenticalContent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	l := Letter{ParticipantID: 9, Text: "same letter", UpdatedAt: ts}

	if err := s.Upsert(ctx, l); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s.Upsert(ctx, l); err != nil {
		t.Fatalf("Upsert() retry failed: %v", err)
	}

	got, err := s.Get(ctx, 9)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Text != "same letter" {
		t.Errorf("text = %q, want %q", got.Text, "same letter")
	}
	if !got.UpdatedAt.Equal(ts) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, ts)
	}
}

func TestSchema_ParticipantIDUnique(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	// Bypass Upsert's conflict clause: a plain second INSERT for the same
	// participant must be rejected by the table itself.
	insert := `
		INSERT INTO letters
		(participant_id, username, first_name, last_name, letter_text, updated_at)
		VALUES (?, '', '', '', ?, ?)
	`
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, insert, 11, "first", ts); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, insert, 11, "second", ts); err == nil {
		t.Fatal("duplicate participant_id insert succeeded, want constraint violation")
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestGet_Absent(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.Get(context.Background(), 12345)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestExists_ConsistentWithGet(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, 1)
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	if ok {
		t.Error("Exists() = true before any upsert")
	}

	if err := s.Upsert(ctx, Letter{ParticipantID: 1, Text: "hi"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	ok, err = s.Exists(ctx, 1)
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	if !ok {
		t.Error("Exists() = false after upsert")
	}
	if _, err := s.Get(ctx, 1); err != nil {
		t.Errorf("Get() after Exists()=true failed: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	removed, err := s.Delete(ctx, 3)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if removed {
		t.Error("Delete() removed a record that never existed")
	}

	if err := s.Upsert(ctx, Letter{ParticipantID: 3, Text: "bye"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	removed, err = s.Delete(ctx, 3)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !removed {
		t.Error("Delete() = false for an existing record")
	}

	if _, err := s.Get(ctx, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete = %v, want ErrNotFound", err)
	}
}

func TestListAll_OrderAndEmpty(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	letters, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if letters == nil {
		t.Fatal("ListAll() returned nil, want empty slice")
	}
	if len(letters) != 0 {
		t.Fatalf("ListAll() returned %d letters on empty store", len(letters))
	}

	// Insert out of id order
	for _, id := range []int64{30, 10, 20} {
		if err := s.Upsert(ctx, Letter{ParticipantID: id, Text: "t"}); err != nil {
			t.Fatalf("Upsert(%d) failed: %v", id, err)
		}
	}

	letters, err = s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	want := []int64{10, 20, 30}
	if len(letters) != len(want) {
		t.Fatalf("ListAll() returned %d letters, want %d", len(letters), len(want))
	}
	for i, id := range want {
		if letters[i].ParticipantID != id {
			t.Errorf("letters[%d].ParticipantID = %d, want %d", i, letters[i].ParticipantID, id)
		}
	}
}

func TestDurability_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Upsert(ctx, Letter{ParticipantID: 5, Text: "persisted"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, 5)
	if err != nil {
		t.Fatalf("Get() after reopen failed: %v", err)
	}
	if got.Text != "persisted" {
		t.Errorf("text = %q, want %q", got.Text, "persisted")
	}
}
