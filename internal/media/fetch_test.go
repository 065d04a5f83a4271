package media

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// dirScratch is a minimal Scratch writing into a test directory.
type dirScratch struct {
	dir string
}

func (s dirScratch) SaveTemp(_ context.Context, name string, data io.Reader) (string, error) {
	f, err := os.CreateTemp(s.dir, name+"_*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, data); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func TestDataURLFetcher_Fetch(t *testing.T) {
	fetcher := NewDataURLFetcher(dirScratch{dir: t.TempDir()})
	ctx := context.Background()

	payload := []byte("fake media bytes")
	ref := "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	path, err := fetcher.Fetch(ctx, "audio-1", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fetched file: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected payload %q, got %q", payload, got)
	}
	if filepath.Dir(path) == "" {
		t.Error("expected file under scratch directory")
	}
}

func TestDataURLFetcher_RejectsNonDataReferences(t *testing.T) {
	fetcher := NewDataURLFetcher(dirScratch{dir: t.TempDir()})
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
	}{
		{"http URL", "http://example.com/video.mp4"},
		{"https URL", "https://example.com/video.mp4"},
		{"blob URL", "blob:https://example.com/9a2f"},
		{"bare path", "/tmp/video.mp4"},
		{"data without base64 marker", "data:video/mp4,rawbytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetcher.Fetch(ctx, "video-1", tt.ref)
			if !errors.Is(err, ErrUnsupportedReference) {
				t.Errorf("expected ErrUnsupportedReference, got %v", err)
			}
		})
	}
}

func TestDataURLFetcher_DecodeErrors(t *testing.T) {
	fetcher := NewDataURLFetcher(dirScratch{dir: t.TempDir()})
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
	}{
		{"invalid base64", "data:audio/mpeg;base64,!!!not-base64!!!"},
		{"missing separator", "data:audio/mpeg;base64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetcher.Fetch(ctx, "audio-1", tt.ref)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}
