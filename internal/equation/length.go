// Package equation turns the converter's matrix-based multi-line equations
// into align* bodies: it measures equation lines, splits long ones at
// relational operators and inserts alignment markers.
package equation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"word2latex/internal/scanner"
)

// namedFunctions keep their letters when measured; every other control word
// counts as a single character.
var namedFunctions = map[string]bool{
	"sin": true, "cos": true, "tan": true, "csc": true, "sec": true, "cot": true,
	"arcsin": true, "arccos": true, "arctan": true,
	"sinh": true, "cosh": true, "tanh": true, "coth": true,
	"log": true, "ln": true, "sqrt": true,
}

var matrixKinds = []string{"matrix", "bmatrix", "pmatrix", "vmatrix"}

// Length returns the relative length of an equation line. Fractions count
// as their longer side, matrices as their longest row, named functions as
// their name and other control words as one character. Whitespace is free
// and a comma counts twice.
func Length(text string) int {
	return measure(strings.ToLower(text), true)
}

func measure(text string, collapse bool) int {
	if collapse {
		text = collapseFractions(text)
		for _, kind := range matrixKinds {
			text = collapseMatrices(text, kind)
		}
	}

	var sb strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\\':
			j := i + 1
			for j < len(text) && isLower(text[j]) {
				j++
			}
			if j == i+1 {
				// control symbol such as \, or \{
				end := i + 2
				if end > len(text) {
					end = len(text)
				}
				sb.WriteString(text[i:end])
				i = end
				continue
			}
			if word := text[i+1 : j]; namedFunctions[word] {
				sb.WriteString(word)
			} else {
				sb.WriteByte('j')
			}
			i = j
		case c == ',':
			sb.WriteString(",,")
			i++
		default:
			r, size := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(r) {
				sb.WriteString(text[i : i+size])
			}
			i += size
		}
	}
	return utf8.RuneCountInString(sb.String())
}

// collapseFractions replaces every \frac{a}{b} with whichever side
// measures longer. Sides are measured without collapsing, and fractions
// nested in the chosen side are collapsed by later iterations.
func collapseFractions(text string) string {
	from := 0
	for {
		at := scanner.FindNth(text, `\frac`, 1, from)
		if at < 0 {
			return text
		}
		num, den, end, ok := fractionArgs(text, at+len(`\frac`))
		if !ok {
			from = at + len(`\frac`)
			continue
		}
		side := num
		if measure(den, false) > measure(num, false) {
			side = den
		}
		text = text[:at] + side + text[end:]
		from = at
	}
}

// fractionArgs reads two braced arguments starting at pos. end is the
// offset after the second closing brace.
func fractionArgs(text string, pos int) (num, den string, end int, ok bool) {
	first := skipSpaces(text, pos)
	firstEnd := scanner.MatchingBrace(text, first)
	if firstEnd < 0 {
		return "", "", 0, false
	}
	second := skipSpaces(text, firstEnd+1)
	secondEnd := scanner.MatchingBrace(text, second)
	if secondEnd < 0 {
		return "", "", 0, false
	}
	return text[first+1 : firstEnd], text[second+1 : secondEnd], secondEnd + 1, true
}

func skipSpaces(text string, pos int) int {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\n' || text[pos] == '\t') {
		pos++
	}
	return pos
}

// collapseMatrices replaces each matrix environment of the given kind with
// placeholder characters as long as its longest row.
func collapseMatrices(text, kind string) string {
	begin := `\begin{` + kind + `}`
	end := `\end{` + kind + `}`

	from := 0
	for {
		b := scanner.FindNth(text, begin, 1, from)
		if b < 0 {
			return text
		}
		e := scanner.FindNth(text, end, 1, b+len(begin))
		if e < 0 {
			return text
		}

		longest := 0
		body := strings.ReplaceAll(text[b+len(begin):e], "\n", "")
		for _, row := range strings.Split(body, `\\`) {
			if n := measure(row, false); n > longest {
				longest = n
			}
		}
		text = text[:b] + strings.Repeat("a", longest) + text[e+len(end):]
		from = b + longest
	}
}

func isLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}
