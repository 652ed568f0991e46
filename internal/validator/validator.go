// Package validator checks repaired LaTeX for structural mistakes that
// would stop the engine: environments that are never closed and display or
// inline math delimiters without a partner.
package validator

import (
	"fmt"
	"strings"
)

// Kinds of issues.
const (
	KindEnvironment = "environment"
	KindMath        = "math"
)

// rawEnvironments have bodies LaTeX does not parse.
var rawEnvironments = []string{"verbatim", "lstlisting", "minted", "comment"}

// Issue is one structural problem.
type Issue struct {
	Offset  int
	Line    int
	Column  int
	Kind    string
	Message string
}

type open struct {
	name   string
	offset int
}

// Check scans content once and returns the issues in document order of
// detection. Comments and raw environment bodies are skipped.
func Check(content string) []Issue {
	var issues []Issue
	report := func(pos int, kind, msg string) {
		line, col := getLineAndColumn(content, pos)
		issues = append(issues, Issue{Offset: pos, Line: line, Column: col, Kind: kind, Message: msg})
	}

	var envs []open
	var math *open

	for i := 0; i < len(content); i++ {
		switch c := content[i]; {
		case c == '%' && !escaped(content, i):
			if nl := strings.IndexByte(content[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(content)
			}

		case c == '\\' && !escaped(content, i) && i+1 < len(content):
			next := content[i+1]
			switch {
			case next == '(' || next == '[':
				if math != nil {
					report(i, KindMath, fmt.Sprintf("math delimiter '\\%c' opened inside '\\%s'", next, math.name))
				}
				math = &open{name: string(next), offset: i}
				i++
			case next == ')' || next == ']':
				want := map[byte]string{')': "(", ']': "["}[next]
				if math == nil || math.name != want {
					report(i, KindMath, fmt.Sprintf("unmatched closing math delimiter '\\%c'", next))
				} else {
					math = nil
				}
				i++
			case strings.HasPrefix(content[i:], `\verb`) && i+6 < len(content) && !isLetter(content[i+5]):
				start := i + 5
				if content[start] == '*' {
					start++
				}
				delim := content[start]
				if end := strings.IndexByte(content[start+1:], delim); end >= 0 {
					i = start + 1 + end
				} else {
					i = start
				}
			case strings.HasPrefix(content[i:], `\begin{`):
				name, end, ok := envName(content, i+len(`\begin{`))
				if !ok {
					continue
				}
				if isRaw(name) {
					closeTag := `\end{` + name + `}`
					at := strings.Index(content[end:], closeTag)
					if at < 0 {
						report(i, KindEnvironment, fmt.Sprintf("unmatched \\begin{%s} without corresponding \\end{%s}", name, name))
						return issues
					}
					i = end + at + len(closeTag) - 1
					continue
				}
				envs = append(envs, open{name: name, offset: i})
				i = end - 1
			case strings.HasPrefix(content[i:], `\end{`):
				name, end, ok := envName(content, i+len(`\end{`))
				if !ok {
					continue
				}
				found := false
				for j := len(envs) - 1; j >= 0; j-- {
					if envs[j].name == name {
						for _, inner := range envs[j+1:] {
							report(inner.offset, KindEnvironment,
								fmt.Sprintf("\\begin{%s} closed by \\end{%s}", inner.name, name))
						}
						envs = envs[:j]
						found = true
						break
					}
				}
				if !found {
					report(i, KindEnvironment, fmt.Sprintf("unmatched \\end{%s} without corresponding \\begin{%s}", name, name))
				}
				i = end - 1
			default:
				// skip the escaped character
				i++
			}
		}
	}

	if math != nil {
		report(math.offset, KindMath, fmt.Sprintf("unmatched opening math delimiter '\\%s'", math.name))
	}
	for _, env := range envs {
		report(env.offset, KindEnvironment, fmt.Sprintf("unmatched \\begin{%s} without corresponding \\end{%s}", env.name, env.name))
	}
	return issues
}

// envName reads the environment name starting at from and returns it with
// the offset just past the closing brace.
func envName(content string, from int) (string, int, bool) {
	end := strings.IndexByte(content[from:], '}')
	if end < 0 {
		return "", 0, false
	}
	name := content[from : from+end]
	if name == "" || strings.ContainsAny(name, "{\n\\") {
		return "", 0, false
	}
	return name, from + end + 1, true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isRaw(name string) bool {
	for _, r := range rawEnvironments {
		if name == r {
			return true
		}
	}
	return false
}

// escaped reports whether the byte at pos is preceded by an odd number of
// backslashes.
func escaped(content string, pos int) bool {
	n := 0
	for j := pos - 1; j >= 0 && content[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// getLineAndColumn converts a byte position to line and column numbers.
func getLineAndColumn(content string, pos int) (int, int) {
	if pos < 0 || pos > len(content) {
		return 1, 1
	}

	line := 1
	lastNewline := -1
	for i := 0; i < pos; i++ {
		if content[i] == '\n' {
			line++
			lastNewline = i
		}
	}
	return line, pos - lastNewline
}
