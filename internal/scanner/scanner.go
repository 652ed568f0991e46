// Package scanner provides the low-level bracket primitives every rewrite
// pass is built on: nesting depth at an index, matching closers, outer
// bracket pairing and n-th occurrence search.
//
// A backslash escapes the character that follows it, so `\{` and `\}`
// never change the depth. The escape is consumed left to right, which
// means `\\{` is a line break followed by a real opener.
package scanner

import (
	"fmt"
	"sort"
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/types"
)

// EndOfText asks Depth for the depth after the last character.
const EndOfText = -1

// Options controls a depth scan.
type Options struct {
	// Open and Close are the delimiters; "{" and "}" when empty.
	Open  string
	Close string
	// NoEscape disables backslash escaping. Escaping only applies to
	// single-character delimiters.
	NoEscape bool
	// From is the offset the scan starts at.
	From int
}

func (o Options) delimiters() (string, string) {
	open, close := o.Open, o.Close
	if open == "" {
		open = "{"
	}
	if close == "" {
		close = "}"
	}
	return open, close
}

// Depth returns the brace depth of text[0:index], counting unescaped
// openers minus unescaped closers.
func Depth(text string, index int) (int, error) {
	return DepthWith(text, index, Options{})
}

// DepthWith returns the depth of text[opts.From:index] for the configured
// delimiters. index == EndOfText returns the depth of the whole remainder.
// An index outside the text, or before From, is a contract violation and
// yields an ErrOutOfBounds error.
func DepthWith(text string, index int, opts Options) (int, error) {
	if index == EndOfText {
		index = len(text)
	}
	if opts.From < 0 || opts.From > len(text) || index < opts.From || index > len(text) {
		return 0, types.NewAppErrorWithDetails(types.ErrOutOfBounds,
			"bracket scan never reaches target index",
			formatRange(index, opts.From, len(text)), nil)
	}

	open, close := opts.delimiters()
	escape := !opts.NoEscape && len(open) == 1 && len(close) == 1

	depth := 0
	for i := opts.From; i < index; i++ {
		if escape && text[i] == '\\' {
			i++
			continue
		}
		switch {
		case strings.HasPrefix(text[i:], open):
			depth++
			i += len(open) - 1
		case strings.HasPrefix(text[i:], close):
			depth--
			i += len(close) - 1
		}
	}
	return depth, nil
}

// FindNth returns the index of the n-th non-overlapping occurrence of needle
// in haystack at or after from. n is 1-based and values below 1 count as 1.
// It returns -1 when there are fewer than n occurrences.
func FindNth(haystack, needle string, n, from int) int {
	if needle == "" || from > len(haystack) {
		return -1
	}
	if from < 0 {
		from = 0
	}
	if n < 1 {
		n = 1
	}

	pos := from
	for {
		idx := strings.Index(haystack[pos:], needle)
		if idx < 0 {
			return -1
		}
		if n == 1 {
			return pos + idx
		}
		n--
		pos += idx + len(needle)
	}
}

// RFindNth returns the index of the n-th occurrence of needle counted
// backwards from the end of haystack[start:end]. An end below zero means the
// end of the haystack.
func RFindNth(haystack, needle string, n, start, end int) int {
	if end < 0 || end > len(haystack) {
		end = len(haystack)
	}
	if start < 0 {
		start = 0
	}
	if needle == "" || start > end {
		return -1
	}
	if n < 1 {
		n = 1
	}

	window := haystack[start:end]
	for {
		idx := strings.LastIndex(window, needle)
		if idx < 0 {
			return -1
		}
		if n == 1 {
			return start + idx
		}
		n--
		window = window[:idx]
	}
}

// MarkerDepth computes the depth at index for multi-character markers such
// as `\begin` / `\end` by counting the occurrences of each marker starting
// before index.
func MarkerDepth(text string, index int, open, close string) int {
	return countBefore(text, index, open, false) - countBefore(text, index, close, false)
}

// CommandDepth is MarkerDepth for control words: an occurrence only counts
// when it is not followed by another letter, so `\left` ignores
// `\leftarrow`.
func CommandDepth(text string, index int, open, close string) int {
	return countBefore(text, index, open, true) - countBefore(text, index, close, true)
}

func countBefore(text string, index int, marker string, word bool) int {
	if index < 0 || index > len(text) {
		index = len(text)
	}

	count := 0
	for n := 1; ; n++ {
		at := FindNth(text, marker, n, 0)
		if at < 0 || at >= index {
			return count
		}
		if word && !CommandBoundary(text, at+len(marker)) {
			continue
		}
		count++
	}
}

// CommandBoundary reports whether a control word ending at end is complete,
// i.e. the next byte is not an ASCII letter.
func CommandBoundary(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	return !isLetter(text[end])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// MatchingBrace returns the index of the brace closing the "{" at open, or
// -1 when text[open] is not an opener or the group never closes.
func MatchingBrace(text string, open int) int {
	if open < 0 || open >= len(text) || text[open] != '{' {
		return -1
	}

	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// CommandEnd returns the closing brace of the first argument of the command
// starting at at, e.g. the "}" of `\textbf{...}`. It returns -1 when the
// command has no braced argument.
func CommandEnd(text string, at int) int {
	if at < 0 || at >= len(text) {
		return -1
	}
	open := strings.IndexByte(text[at:], '{')
	if open < 0 {
		return -1
	}
	return MatchingBrace(text, at+open)
}

// FindTopLevel returns the earliest occurrence at or after from of any of
// the needles that sits at brace depth zero, together with the needle that
// matched. Needles starting with a backslash are control words and must end
// on a command boundary. It returns -1 and "" when nothing matches.
func FindTopLevel(text string, from int, needles []string) (int, string) {
	depth := 0
	for i := 0; i < len(text); i++ {
		if i >= from && depth == 0 {
			for _, n := range needles {
				if n == "" || !strings.HasPrefix(text[i:], n) {
					continue
				}
				if n[0] == '\\' && isLetter(n[len(n)-1]) && !CommandBoundary(text, i+len(n)) {
					continue
				}
				return i, n
			}
		}

		switch text[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return -1, ""
}

// Pair is a matched opener/closer offset pair.
type Pair struct {
	Open  int
	Close int
}

// Pairs matches every unescaped open/close byte in text with a stack.
// Orphaned closers and unclosed openers are logged and left out.
func Pairs(text string, open, close byte) []Pair {
	return pair(text, open, close, false)
}

// OuterPairs is Pairs restricted to brackets whose own nesting level is
// zero, so "{a{b}c}{d}" yields the two outer groups only.
func OuterPairs(text string, open, close byte) []Pair {
	return pair(text, open, close, true)
}

func pair(text string, open, close byte, outerOnly bool) []Pair {
	var (
		stack []int
		pairs []Pair
	)

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case open:
			stack = append(stack, i)
		case close:
			if len(stack) == 0 {
				logger.Warn("unbalanced brackets: too many closing brackets",
					logger.Int("offset", i), logger.String("bracket", string(close)))
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !outerOnly || len(stack) == 0 {
				pairs = append(pairs, Pair{Open: start, Close: i})
			}
		}
	}

	if len(stack) > 0 {
		logger.Warn("unbalanced brackets: too many opening brackets",
			logger.Int("unclosed", len(stack)), logger.Int("first_offset", stack[0]))
	}

	sort.Slice(pairs, func(a, b int) bool { return pairs[a].Open < pairs[b].Open })
	return pairs
}

// OuterGroups returns the contents of the top-level brace groups of text.
func OuterGroups(text string) []string {
	pairs := OuterPairs(text, '{', '}')
	groups := make([]string, 0, len(pairs))
	for _, p := range pairs {
		groups = append(groups, text[p.Open+1:p.Close])
	}
	return groups
}

// Balanced reports whether every unescaped brace in text is matched and the
// depth never drops below zero.
func Balanced(text string) bool {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func formatRange(index, from, length int) string {
	return fmt.Sprintf("index=%d from=%d len=%d", index, from, length)
}
