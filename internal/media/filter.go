package media

import (
	"fmt"
	"strings"
)

// Output geometry. Fixed at 1080p for playback compatibility with the
// YouTube upload flow the service feeds.
const (
	outputWidth  = 1920
	outputHeight = 1080
)

// filter is a single named ffmpeg filter with its argument string.
type filter struct {
	name string
	args string
}

func (f filter) String() string {
	if f.args == "" {
		return f.name
	}
	return f.name + "=" + f.args
}

// chain is one filtergraph chain: labeled input pads, a comma-joined filter
// sequence, and labeled output pads. Building the graph from these typed
// values keeps pad labels consistent as the loop count grows.
type chain struct {
	inputs  []string
	filters []filter
	outputs []string
}

func (c chain) String() string {
	var b strings.Builder
	for _, in := range c.inputs {
		fmt.Fprintf(&b, "[%s]", in)
	}
	parts := make([]string, len(c.filters))
	for i, f := range c.filters {
		parts[i] = f.String()
	}
	b.WriteString(strings.Join(parts, ","))
	for _, out := range c.outputs {
		fmt.Fprintf(&b, "[%s]", out)
	}
	return b.String()
}

// graph is a full -filter_complex description, serialized with ";" between chains.
type graph []chain

func (g graph) String() string {
	parts := make([]string, len(g))
	for i, c := range g {
		parts[i] = c.String()
	}
	return strings.Join(parts, ";")
}

// Graph output pad labels mapped by -map in the transcode invocation.
const (
	videoOutPad = "outv"
	audioOutPad = "outa"
)

// composeGraph builds the filtergraph for looping the video input loopCount
// times over one audio input. Inputs 0..loopCount-1 are the video file
// repeated; input loopCount is the audio file. Each video branch is scaled
// to fit the output geometry preserving aspect ratio, padded to exactly
// that geometry centered, then all branches are concatenated and muxed with
// the audio stream.
func composeGraph(loopCount int) graph {
	g := make(graph, 0, loopCount+2)

	concatIns := make([]string, 0, loopCount)
	for i := 0; i < loopCount; i++ {
		out := fmt.Sprintf("v%d", i)
		g = append(g, chain{
			inputs: []string{fmt.Sprintf("%d:v", i)},
			filters: []filter{
				{name: "scale", args: fmt.Sprintf("%d:%d:force_original_aspect_ratio=decrease", outputWidth, outputHeight)},
				{name: "pad", args: fmt.Sprintf("%d:%d:(ow-iw)/2:(oh-ih)/2", outputWidth, outputHeight)},
			},
			outputs: []string{out},
		})
		concatIns = append(concatIns, out)
	}

	g = append(g, chain{
		inputs:  concatIns,
		filters: []filter{{name: "concat", args: fmt.Sprintf("n=%d:v=1:a=0", loopCount)}},
		outputs: []string{"vout"},
	})

	g = append(g, chain{
		inputs:  []string{"vout", fmt.Sprintf("%d:a", loopCount)},
		filters: []filter{{name: "concat", args: "n=1:v=1:a=1"}},
		outputs: []string{videoOutPad, audioOutPad},
	})

	return g
}
