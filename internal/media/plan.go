package media

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMedia is returned when a media duration cannot produce a valid plan.
var ErrInvalidMedia = errors.New("invalid media duration")

// Plan describes how the composition is built from the two input durations.
type Plan struct {
	// LoopCount is how many times the video input is repeated so its total
	// length reaches or exceeds the audio length. Always at least 1.
	LoopCount int
	// TargetDuration is the output length in seconds. The output is trimmed
	// to exactly the audio length even if the last repetition overshoots.
	TargetDuration float64
}

// NewPlan computes the loop count and target duration for the composition.
// The planner always favors exact audio-length output over exact
// loop-boundary alignment: the final repetition is truncated.
func NewPlan(audioSec, videoSec float64) (Plan, error) {
	if !validDuration(audioSec) {
		return Plan{}, fmt.Errorf("%w: audio duration %v", ErrInvalidMedia, audioSec)
	}
	if !validDuration(videoSec) {
		return Plan{}, fmt.Errorf("%w: video duration %v", ErrInvalidMedia, videoSec)
	}

	loops := int(math.Ceil(audioSec / videoSec))
	if loops < 1 {
		loops = 1
	}

	return Plan{
		LoopCount:      loops,
		TargetDuration: audioSec,
	}, nil
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}
