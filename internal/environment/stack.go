package environment

import (
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/region"
	"word2latex/internal/scanner"
)

// minArgsGap is how far past the first blank line the stop marker must be
// before that first paragraph is taken as the environment's argument.
const minArgsGap = 10

// WrapStack wraps text between a descriptor's legacy start keyword and the
// next stop marker into its environment. Environments may nest. Instances
// without a stop marker are left alone and reported as a warning. Stop
// markers that are left over afterwards are removed.
func WrapStack(text string, ds []Descriptor) string {
	var starts []region.StartMarker
	byTag := make(map[string]Descriptor)
	stops := append([]string(nil), region.StopMarkers...)

	for _, d := range ds {
		marker := d.legacyStart()
		if marker == "" {
			continue
		}
		if _, dup := byTag[d.Tag()]; dup {
			continue
		}
		byTag[d.Tag()] = d
		starts = append(starts, region.StartMarker{Tag: d.Tag(), Marker: marker})
		if end := d.legacyEnd(); end != "" {
			stops = append(stops, end)
		}
	}
	if len(starts) == 0 {
		return text
	}

	finished, _ := region.Stack(text, starts, stops)

	// Splice from the back so that earlier instances keep their start
	// offsets; only the ends of enclosing instances move.
	for i := len(finished) - 1; i >= 0; i-- {
		inst := finished[i]
		stopEnd := inst.End + len(inst.Stop)

		var delta int
		text, delta = wrapInstance(text, inst, byTag[inst.Tag])
		for j := 0; j < i; j++ {
			if finished[j].End >= stopEnd {
				finished[j].End += delta
			}
		}
	}

	return region.RemoveStopMarkers(text, region.StopMarkers)
}

// wrapInstance replaces one matched instance and returns the new text with
// the change in length.
func wrapInstance(text string, inst region.Instance, d Descriptor) (string, int) {
	if inst.Start >= inst.End {
		return text, 0
	}

	bodyStart := inst.StartEnd
	head := `\begin{` + d.Tag() + `}`
	if d.HasExtraArgs {
		blank := scanner.FindNth(text, "\n\n", 1, inst.StartEnd)
		switch {
		case blank >= 0 && blank < inst.End && inst.End-blank >= minArgsGap:
			head = d.opening(strings.TrimSpace(text[inst.StartEnd:blank]))
			bodyStart = blank
		case d.Suffix != "":
			head = d.opening("")
		}
	}

	block := "\n" + head + "\n" + strings.TrimSpace(text[bodyStart:inst.End]) + "\n" + d.closing() + "\n"
	oldLen := inst.End + len(inst.Stop) - inst.Start

	logger.Debug("marked environment wrapped",
		logger.String("environment", inst.Tag), logger.Int("offset", inst.Start))
	return text[:inst.Start] + block + text[inst.End+len(inst.Stop):], len(block) - oldLen
}
