// Package region locates semantic spans in converter output: alignment
// blocks, paired begin/end environments and interleaved marker-delimited
// environments. Detectors never mutate text; they return offsets into the
// text they were given and report "not found" with a false flag.
package region

import (
	"strings"

	"word2latex/internal/scanner"
	"word2latex/internal/types"
)

const (
	DisplayOpen  = `\[`
	DisplayClose = `\]`

	matrixBegin = `\begin{matrix}`
	matrixEnd   = `\end{matrix}`
	commentMark = `\#`
)

// DetectAlign finds the first alignment region starting at or after from.
//
// An alignment region is display math whose opener is immediately followed
// by a brace group, `\[{...}{...}\]`. Inside it, brace groups and
// whitespace are skipped; the first other character found at depth zero
// means either the converter left the last row as a bare matrix, or this
// is not an alignment block at all. The rest up to the next `\]` is checked
// with ValidMatrix: a valid tail is wrapped in braces and the region
// accepted, anything else abandons this opener and the scan goes on.
//
// A closing `\]` reached with unbalanced braces abandons the opener.
//
// The returned Region spans from `\[` through `\]` in text; its Text is the
// captured block including any injected braces.
func DetectAlign(text string, from int) (types.Region, bool) {
	if from < 0 {
		from = 0
	}

	var (
		inside        bool
		depth         int
		start         int
		afterOpener   bool
		prevBackslash bool
	)

	for i := from; i < len(text); i++ {
		c := text[i]

		if afterOpener {
			afterOpener = false
			if c != '{' {
				inside = false
			}
		}

		if inside {
			switch {
			case c == '\\':
			case prevBackslash && (c == '[' || c == ']'):
			case !prevBackslash && c == '{':
				depth++
			case !prevBackslash && c == '}':
				depth--
			case isSpace(c):
			case depth <= 0:
				closer := scanner.FindNth(text, DisplayClose, 1, i)
				if closer < 0 {
					return types.Region{}, false
				}
				if ValidMatrix(text[i-1 : closer]) {
					captured := text[start:i-1] + "{" + text[i-1:closer] + "}" + DisplayClose
					return types.Region{Text: captured, Start: start, End: closer + len(DisplayClose)}, true
				}
				inside = false
			}
		}

		if prevBackslash {
			switch {
			case c == '[':
				inside = true
				depth = 0
				start = i - 1
				afterOpener = true
			case c == ']' && inside && depth == 0:
				return types.Region{Text: text[start : i+1], Start: start, End: i + 1}, true
			case c == ']' && inside:
				// unbalanced groups: leave the block alone
				inside = false
			}
		}
		prevBackslash = c == '\\'
	}
	return types.Region{}, false
}

// Inner returns the part of an alignment region between `\[` and `\]`.
func Inner(r types.Region) string {
	s := strings.TrimPrefix(r.Text, DisplayOpen)
	return strings.TrimSuffix(s, DisplayClose)
}

// CheckStartMatrix recognises the converter's one-row matrix that carries an
// equation number comment:
//
//	\begin{matrix}x + 1 = 2\ \#(4) \\ \end{matrix}
//
// It returns the equation before the `\#` marker and the comment up to the
// row break. ok is false when text is not such a block: it must start and
// end with the matrix declarations, and the last `\#` must sit outside any
// \left/\right pair, at matrix depth one and brace depth zero.
func CheckStartMatrix(text string) (equation, comment string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, matrixBegin) {
		return "", "", false
	}
	if strings.LastIndex(text, matrixEnd) != len(text)-len(matrixEnd) || len(text) < len(matrixBegin)+len(matrixEnd) {
		return "", "", false
	}

	hash := strings.LastIndex(text, commentMark)
	if hash < len(matrixBegin) {
		return "", "", false
	}
	if scanner.CommandDepth(text, hash, `\left`, `\right`) != 0 {
		return "", "", false
	}
	if scanner.MarkerDepth(text, hash, `\begin`, `\end`) != 1 {
		return "", "", false
	}
	if d, err := scanner.Depth(text, hash); err != nil || d != 0 {
		return "", "", false
	}

	rest := text[hash+len(commentMark):]
	if br := strings.Index(rest, `\\`); br >= 0 {
		comment = rest[:br]
	} else {
		comment = strings.TrimSuffix(rest, matrixEnd)
	}

	return trimControlSpace(text[len(matrixBegin):hash]), strings.TrimSpace(comment), true
}

// ValidMatrix reports whether text is a comment-carrying matrix block as
// accepted by CheckStartMatrix.
func ValidMatrix(text string) bool {
	_, _, ok := CheckStartMatrix(text)
	return ok
}

// trimControlSpace trims whitespace and a dangling `\ ` control space the
// converter leaves before the comment marker.
func trimControlSpace(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, `\`) && !strings.HasSuffix(s, `\\`) {
		s = strings.TrimSpace(s[:len(s)-1])
	}
	return s
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}
