package region

import (
	"sort"
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/scanner"
	"word2latex/internal/types"
)

// Span is a paired begin/end occurrence. Outer covers both markers, Inner
// only the text between them.
type Span struct {
	Outer types.Region
	Inner types.Region
}

// NthEnvironment pairs the n-th occurrence of begin with the n-th
// occurrence of end. It returns false when either marker runs out or the
// end marker precedes the begin marker.
func NthEnvironment(text, begin, end string, n int) (Span, bool) {
	b := scanner.FindNth(text, begin, n, 0)
	if b < 0 {
		return Span{}, false
	}
	e := scanner.FindNth(text, end, n, 0)
	if e < 0 || e < b+len(begin) {
		return Span{}, false
	}

	innerStart := b + len(begin)
	return Span{
		Outer: types.Region{Text: text[b : e+len(end)], Start: b, End: e + len(end)},
		Inner: types.Region{Text: text[innerStart:e], Start: innerStart, End: e},
	}, true
}

// NextEnvironment finds the first begin marker at or after from and the
// first end marker after it.
func NextEnvironment(text, begin, end string, from int) (Span, bool) {
	b := scanner.FindNth(text, begin, 1, from)
	if b < 0 {
		return Span{}, false
	}
	innerStart := b + len(begin)
	e := scanner.FindNth(text, end, 1, innerStart)
	if e < 0 {
		return Span{}, false
	}
	return Span{
		Outer: types.Region{Text: text[b : e+len(end)], Start: b, End: e + len(end)},
		Inner: types.Region{Text: text[innerStart:e], Start: innerStart, End: e},
	}, true
}

// InEnvironment reports whether index lies inside a \begin{env}...\end{env}
// block.
func InEnvironment(text, env string, index int) bool {
	if index < 0 || index > len(text) {
		return false
	}
	begin := `\begin{` + env + `}`
	end := `\end{` + env + `}`
	return scanner.MarkerDepth(text, index, begin, end) > 0
}

// StopMarkers close the innermost open environment in the stack matcher.
var StopMarkers = []string{"◾", "▨", "◺"}

// StartMarker is a keyword that opens an environment of kind Tag.
type StartMarker struct {
	Tag    string
	Marker string
}

// Instance is one environment found by Stack. Start and StartEnd delimit
// the start keyword, End is the offset of the stop marker and Stop the
// marker text.
type Instance struct {
	Tag      string
	Start    int
	StartEnd int
	End      int
	Stop     string
}

// Stack matches interleaved environments. From a cursor it repeatedly takes
// whichever start keyword occurs first; a stop marker found before the next
// start closes the innermost open instance. Instances still open when the
// text runs out are returned separately and logged; stop markers with
// nothing open are ignored.
//
// Finished instances are ordered by start offset.
func Stack(text string, starts []StartMarker, stops []string) (finished, unterminated []Instance) {
	var open []Instance

	cursor := 0
	for cursor <= len(text) {
		s, marker := earliestStart(text, starts, cursor)
		p, stop := earliest(text, stops, cursor)

		if s < 0 && p < 0 {
			break
		}

		if p >= 0 && (s < 0 || p < s) {
			if n := len(open); n > 0 {
				inst := open[n-1]
				open = open[:n-1]
				inst.End = p
				inst.Stop = stop
				finished = append(finished, inst)
			}
			cursor = p + len(stop)
			continue
		}

		open = append(open, Instance{
			Tag:      marker.Tag,
			Start:    s,
			StartEnd: s + len(marker.Marker),
		})
		cursor = s + len(marker.Marker)
	}

	if len(open) > 0 {
		logger.Warn("unterminated environments ignored",
			logger.Int("count", len(open)), logger.String("first", open[0].Tag),
			logger.Int("offset", open[0].Start))
	}

	sort.SliceStable(finished, func(a, b int) bool { return finished[a].Start < finished[b].Start })
	return finished, open
}

func earliestStart(text string, starts []StartMarker, from int) (int, StartMarker) {
	best := -1
	var found StartMarker
	for _, m := range starts {
		if m.Marker == "" {
			continue
		}
		at := scanner.FindNth(text, m.Marker, 1, from)
		if at >= 0 && (best < 0 || at < best) {
			best, found = at, m
		}
	}
	return best, found
}

func earliest(text string, needles []string, from int) (int, string) {
	best := -1
	var found string
	for _, n := range needles {
		if n == "" {
			continue
		}
		at := scanner.FindNth(text, n, 1, from)
		if at >= 0 && (best < 0 || at < best) {
			best, found = at, n
		}
	}
	return best, found
}

// RemoveStopMarkers deletes every stop marker left in text.
func RemoveStopMarkers(text string, stops []string) string {
	for _, s := range stops {
		if s != "" {
			text = strings.ReplaceAll(text, s, "")
		}
	}
	return text
}
