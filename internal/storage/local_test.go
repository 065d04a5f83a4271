package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")

	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TempDir() != dir {
		t.Errorf("expected temp dir %q, got %q", dir, s.TempDir())
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("temp dir not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "published")); err != nil {
		t.Errorf("publish dir not created: %v", err)
	}
}

func TestSaveTempAndLoadTemp(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	payload := []byte("media payload")
	path, err := s.SaveTemp(ctx, "audio-1", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("SaveTemp failed: %v", err)
	}
	if !strings.Contains(filepath.Base(path), "audio-1") {
		t.Errorf("expected filename to carry the base name, got %q", path)
	}

	rc, err := s.LoadTemp(ctx, path)
	if err != nil {
		t.Fatalf("LoadTemp failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read temp file: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected %q, got %q", payload, got)
	}
}

func TestSaveTemp_CancelledContext(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.SaveTemp(ctx, "audio-1", bytes.NewReader(nil)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestLoadTemp_MissingFile(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.LoadTemp(context.Background(), filepath.Join(s.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCleanupTemp(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	p1, err := s.SaveTemp(ctx, "a", bytes.NewReader([]byte("1")))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := s.SaveTemp(ctx, "b", bytes.NewReader([]byte("2")))
	if err != nil {
		t.Fatal(err)
	}

	// Missing paths are tolerated, existing ones removed.
	missing := filepath.Join(s.TempDir(), "already-gone")
	if err := s.CleanupTemp(ctx, []string{p1, missing, p2}); err != nil {
		t.Fatalf("CleanupTemp failed: %v", err)
	}

	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %q to be removed", p)
		}
	}
}

func TestPut(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	payload := []byte("final mp4 bytes")
	url, err := s.Put(ctx, "videos/42-abc.mp4", bytes.NewReader(payload), "video/mp4")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := os.ReadFile(url)
	if err != nil {
		t.Fatalf("published artifact unreadable: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected %q, got %q", payload, got)
	}
	if !strings.Contains(url, "published") {
		t.Errorf("expected artifact under publish dir, got %q", url)
	}
}
