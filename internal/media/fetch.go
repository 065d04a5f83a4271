// Package media materializes input payloads, probes durations, plans the
// loop count, and drives the ffmpeg composition that produces the final MP4.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Static errors for media reference handling.
var (
	// ErrUnsupportedReference is returned when a media reference is not an
	// inline data: payload.
	ErrUnsupportedReference = errors.New("unsupported media reference")
	// ErrDecode is returned when an inline payload cannot be decoded into bytes.
	ErrDecode = errors.New("failed to decode media payload")
)

// Scratch is the slice of the storage port the fetcher needs: a place to
// materialize payload bytes as uniquely named local files.
type Scratch interface {
	SaveTemp(ctx context.Context, name string, data io.Reader) (string, error)
}

// DataURLFetcher materializes inline data: payloads into temporary local
// files. Any other reference scheme is rejected; this version accepts only
// fully self-contained payloads.
type DataURLFetcher struct {
	scratch Scratch
}

// NewDataURLFetcher creates a new DataURLFetcher writing into the given scratch store.
func NewDataURLFetcher(scratch Scratch) *DataURLFetcher {
	return &DataURLFetcher{scratch: scratch}
}

// Fetch decodes the payload and writes it to a temporary file named after
// the hint. The caller owns the returned path and must delete it.
func (f *DataURLFetcher) Fetch(ctx context.Context, name, ref string) (string, error) {
	if strings.HasPrefix(ref, "blob:") {
		return "", fmt.Errorf("%w: blob URLs are not supported, upload media as base64 data URLs", ErrUnsupportedReference)
	}

	payload, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", fmt.Errorf("%w: only base64 data URLs are supported in this version", ErrUnsupportedReference)
	}

	meta, encoded, ok := strings.Cut(payload, ",")
	if !ok {
		return "", fmt.Errorf("%w: missing payload separator", ErrDecode)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", fmt.Errorf("%w: payload must be base64 encoded", ErrUnsupportedReference)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	path, err := f.scratch.SaveTemp(ctx, name, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("save payload: %w", err)
	}
	return path, nil
}
