package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

func TestCreateMessage_DefaultsAndFileRef(t *testing.T) {
	db := newTestDB(t, &domain.Chat{}, &domain.Message{})
	ctx := context.Background()

	m, err := CreateMessage(ctx, db, "c1", "u1", "hello", nil)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == "" || m.Status != domain.StatusSent || m.FileURL != nil {
		t.Fatalf("unexpected message fields: %+v", m)
	}

	url := "https://blob.example.com/c1/x"
	m2, err := CreateMessage(ctx, db, "c1", "u1", "", &url)
	if err != nil {
		t.Fatalf("CreateMessage with file: %v", err)
	}
	if m2.FileURL == nil || *m2.FileURL != url {
		t.Fatalf("file ref not persisted: %+v", m2)
	}
}

func TestListMessages_HistoryOrder(t *testing.T) {
	db := newTestDB(t, &domain.Chat{}, &domain.Message{})
	ctx := context.Background()

	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	seed := []domain.Message{
		{ID: "m2", ChatID: "c1", SenderID: "u1", Text: "second", CreatedAt: base.Add(time.Second)},
		{ID: "m1", ChatID: "c1", SenderID: "u2", Text: "first", CreatedAt: base},
		{ID: "m3", ChatID: "c1", SenderID: "u1", Text: "third", CreatedAt: base.Add(2 * time.Second)},
		{ID: "mx", ChatID: "c2", SenderID: "u3", Text: "other chat", CreatedAt: base},
	}
	for _, m := range seed {
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed %s: %v", m.ID, err)
		}
	}

	hist, err := ListMessages(ctx, db, "c1")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(hist))
	}
	if hist[0].ID != "m1" || hist[1].ID != "m2" || hist[2].ID != "m3" {
		t.Fatalf("history out of order: %#v", hist)
	}
}

func TestGetLastMessage(t *testing.T) {
	db := newTestDB(t, &domain.Chat{}, &domain.Message{})
	ctx := context.Background()

	// Empty chat: no message, no error.
	last, err := GetLastMessage(ctx, db, "c1")
	if err != nil || last != nil {
		t.Fatalf("empty chat: last=%v err=%v", last, err)
	}

	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		m := domain.Message{ID: id, ChatID: "c1", SenderID: "u1", Text: id, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}

		last, err := GetLastMessage(ctx, db, "c1")
		if err != nil {
			t.Fatalf("GetLastMessage after %s: %v", id, err)
		}
		if last == nil || last.ID != id {
			t.Fatalf("last after %s = %+v", id, last)
		}
	}
}
