package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskStore_PutAndURL(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "http://localhost:8080/uploads/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	url, err := s.Put(context.Background(), "chat-1/file-1", []byte("payload"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:8080/uploads/chat-1/file-1" {
		t.Fatalf("unexpected URL: %q", url)
	}

	got, err := os.ReadFile(filepath.Join(dir, "chat-1", "file-1"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestDiskStore_EmptyBlob(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "http://x/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if _, err := s.Put(context.Background(), "k", nil); !errors.Is(err, ErrEmptyBlob) {
		t.Fatalf("expected ErrEmptyBlob, got %v", err)
	}
}

func TestDiskStore_TraversalKeyConfined(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(filepath.Join(dir, "uploads"), "http://x/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	url, err := s.Put(context.Background(), "../../escape", []byte("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://x/uploads/escape" {
		t.Fatalf("key not confined: %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape")); err == nil {
		t.Fatalf("blob escaped the store root")
	}
	if _, err := os.Stat(filepath.Join(dir, "uploads", "escape")); err != nil {
		t.Fatalf("confined blob missing: %v", err)
	}
}

func TestDiskStore_CancelledContext(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "http://x/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "k", []byte("x")); err == nil {
		t.Fatalf("expected context error")
	}
}
