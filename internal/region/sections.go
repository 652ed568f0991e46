package region

import "strings"

// MaxSectionDepth is the deepest \sub...section level searched.
const MaxSectionDepth = 6

func sectionKeyword(depth int) string {
	return `\` + strings.Repeat("sub", depth) + `section{`
}

// NextSection returns the offset of the first sectioning command at or
// after from, up to maxDepth levels of "sub". It returns len(text) when there
// is none.
func NextSection(text string, from, maxDepth int) int {
	if maxDepth < 0 {
		maxDepth = 0
	}
	if from < 0 {
		from = 0
	}
	if from > len(text) {
		return len(text)
	}

	lowest := len(text)
	for d := 0; d <= maxDepth; d++ {
		if at := strings.Index(text[from:], sectionKeyword(d)); at >= 0 && from+at < lowest {
			lowest = from + at
		}
	}
	return lowest
}

// PreviousSection returns the offset of the last sectioning command that
// starts before before, or 0 when there is none.
func PreviousSection(text string, before, maxDepth int) int {
	if maxDepth < 0 {
		maxDepth = 0
	}
	if before > len(text) || before < 0 {
		before = len(text)
	}

	highest := 0
	for d := 0; d <= maxDepth; d++ {
		if at := strings.LastIndex(text[:before], sectionKeyword(d)); at > highest {
			highest = at
		}
	}
	return highest
}
