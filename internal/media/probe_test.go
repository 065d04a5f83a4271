package media

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestNewFFprobeProber_DefaultPath(t *testing.T) {
	p := NewFFprobeProber("")
	if p.ffprobePath != "ffprobe" {
		t.Errorf("expected default path 'ffprobe', got %q", p.ffprobePath)
	}
}

func TestDuration(t *testing.T) {
	skipIfNoFFmpeg(t)

	tmpDir := t.TempDir()
	videoPath := filepath.Join(tmpDir, "video.mp4")
	createTestVideo(t, videoPath, 2.0)

	p := NewFFprobeProber("")
	duration, err := p.Duration(context.Background(), videoPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if duration < 1.8 || duration > 2.2 {
		t.Errorf("expected duration ~2.0s, got %.2fs", duration)
	}
}

func TestDuration_MissingFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	p := NewFFprobeProber("")
	_, err := p.Duration(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	if !errors.Is(err, ErrProbe) {
		t.Errorf("expected ErrProbe, got %v", err)
	}
}
