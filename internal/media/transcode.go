package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ErrTranscodeTimeout marks transcode failures caused by the deadline expiring.
var ErrTranscodeTimeout = errors.New("transcode deadline exceeded")

// TranscodeError represents a failed ffmpeg composition, including the
// engine's diagnostic output. The stderr text is surfaced verbatim to the
// job record; malformed inputs, unsupported codecs and disk exhaustion all
// report through here.
type TranscodeError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// FFmpegTranscoder produces the final MP4 using the ffmpeg CLI.
type FFmpegTranscoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// scratchDir is where output files are created.
	scratchDir string
	// timeout bounds a single composition run. Zero disables the deadline.
	timeout time.Duration
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder writing outputs under
// scratchDir. If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegTranscoder(ffmpegPath, scratchDir string, timeout time.Duration) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegTranscoder{
		ffmpegPath: ffmpegPath,
		scratchDir: scratchDir,
		timeout:    timeout,
	}
}

// Compose loops the video input loopCount times, scales/pads each branch to
// 1920x1080, concatenates the branches, muxes the audio track, and trims
// the result to targetSec. Returns the output file path; the caller owns it
// and must delete it.
//
// The loop is a processing-graph branch count: the video file is referenced
// loopCount times as an input, never duplicated on disk.
func (t *FFmpegTranscoder) Compose(ctx context.Context, videoPath, audioPath string, loopCount int, targetSec float64) (string, error) {
	if loopCount < 1 {
		return "", fmt.Errorf("%w: loop count %d", ErrInvalidMedia, loopCount)
	}

	out, err := os.CreateTemp(t.scratchDir, "compose-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	outputPath := out.Name()
	if err := out.Close(); err != nil {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("close output file: %w", err)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	args := t.composeArgs(videoPath, audioPath, loopCount, targetSec, outputPath)

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outputPath)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &TranscodeError{
				Args:   args,
				Stderr: stderr.String(),
				Err:    fmt.Errorf("%w after %s", ErrTranscodeTimeout, t.timeout),
			}
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return "", &TranscodeError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return outputPath, nil
}

// composeArgs builds the full ffmpeg argument list for one composition.
func (t *FFmpegTranscoder) composeArgs(videoPath, audioPath string, loopCount int, targetSec float64, outputPath string) []string {
	args := make([]string, 0, 2*loopCount+20)
	args = append(args, "-y")
	for i := 0; i < loopCount; i++ {
		args = append(args, "-i", videoPath)
	}
	args = append(args, "-i", audioPath)
	args = append(args,
		"-filter_complex", composeGraph(loopCount).String(),
		"-map", "["+videoOutPad+"]",
		"-map", "["+audioOutPad+"]",
		"-c:v", "libx264", // Video codec
		"-c:a", "aac", // Audio codec
		"-pix_fmt", "yuv420p", // Pixel format for compatibility
		"-t", fmt.Sprintf("%.3f", targetSec), // Trim to the audio length
		outputPath,
	)
	return args
}
