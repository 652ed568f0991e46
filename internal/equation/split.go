package equation

import (
	"strings"

	"word2latex/internal/region"
	"word2latex/internal/scanner"
)

// Breakers are the relational operators an equation line may be split
// before.
var Breakers = []string{
	`\not\subset`, `\subseteq`, `\subset`,
	`\leq`, `\geq`, `\neq`, `\approx`,
	"=", "<", ">",
}

// Split breaks line into several lines when its relative length exceeds
// max. Segments start at top-level relational operators and are packed
// greedily; a line always keeps at least two segments before a new one is
// started. It returns false when no split happens.
func Split(line string, max int) ([]string, bool) {
	line = strings.TrimSpace(line)
	if max < 1 || Length(line) <= max {
		return nil, false
	}

	segments := segment(line)
	if len(segments) < 2 {
		return nil, false
	}

	var (
		lines   []string
		current []string
	)
	for _, seg := range segments {
		current = append(current, seg)
		if len(current) >= 2 && Length(strings.Join(current, "")) > max {
			lines = append(lines, strings.Join(current[:len(current)-1], ""))
			current = []string{seg}
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, ""))
	}

	if len(lines) < 2 {
		return nil, false
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines, true
}

// segment cuts line before every top-level breaker.
func segment(line string) []string {
	var segments []string
	start := 0
	from := 0
	for {
		at, op := scanner.FindTopLevel(line, from, Breakers)
		if at < 0 {
			break
		}
		if at > start {
			segments = append(segments, line[start:at])
			start = at
		}
		from = at + len(op)
	}
	return append(segments, line[start:])
}

// SplitAll rewrites every display equation `\[...\]` whose relative length
// exceeds max into brace groups, one per line, so that a following
// alignment pass turns it into an align* block.
func SplitAll(text string, max int) string {
	if max < 1 {
		return text
	}

	cursor := 0
	for {
		open := scanner.FindNth(text, region.DisplayOpen, 1, cursor)
		if open < 0 {
			return text
		}
		bodyStart := open + len(region.DisplayOpen)
		close := scanner.FindNth(text, region.DisplayClose, 1, bodyStart)
		if close < 0 {
			return text
		}

		body := text[bodyStart:close]
		lines, ok := Split(body, max)
		if !ok || strings.HasPrefix(strings.TrimSpace(body), "{") {
			cursor = close + len(region.DisplayClose)
			continue
		}

		var sb strings.Builder
		for _, l := range lines {
			sb.WriteString("{" + l + "}")
		}
		replaced := sb.String()
		text = text[:bodyStart] + replaced + text[close:]
		cursor = bodyStart + len(replaced) + len(region.DisplayClose)
	}
}
