package transform

import (
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/region"
	"word2latex/internal/scanner"
)

// headingLadder lists the sectioning commands from the outermost down.
var headingLadder = []string{
	"part", "chapter", "section", "subsection", "subsubsection", "paragraph", "subparagraph",
}

const tableOfContents = `\tableofcontents`

// nextHeading returns the offset of the first unescaped sectioning command
// at or after from and its index in headingLadder, or -1.
func nextHeading(text string, from int) (int, int) {
	for i := from; i < len(text); i++ {
		if text[i] != '\\' {
			continue
		}
		if escapedAt(text, i) {
			continue
		}
		if level := headingAt(text, i); level >= 0 {
			return i, level
		}
	}
	return -1, -1
}

// headingAt reports which sectioning command starts at the backslash at i.
// The name must be followed by an argument, a star or an optional argument.
func headingAt(text string, i int) int {
	for level, name := range headingLadder {
		end := i + 1 + len(name)
		if end >= len(text) || !strings.HasPrefix(text[i+1:], name) {
			continue
		}
		switch text[end] {
		case '{', '*', '[':
			return level
		}
	}
	return -1
}

func escapedAt(text string, pos int) bool {
	n := 0
	for j := pos - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// PromoteHeadings moves every heading up by levels, so with one level a
// section becomes a chapter and a subsection a section. Headings never
// rise above \part.
func PromoteHeadings(text string, levels int) string {
	if levels <= 0 {
		return text
	}
	var sb strings.Builder
	cursor, count := 0, 0
	for {
		at, level := nextHeading(text, cursor)
		if at < 0 {
			break
		}
		target := level - levels
		if target < 0 {
			target = 0
		}
		sb.WriteString(text[cursor:at])
		sb.WriteString(`\` + headingLadder[target])
		cursor = at + 1 + len(headingLadder[level])
		count++
	}
	if count == 0 {
		return text
	}
	sb.WriteString(text[cursor:])
	logger.Debug("headings promoted", logger.Int("count", count), logger.Int("levels", levels))
	return sb.String()
}

// InsertTableOfContents puts \tableofcontents before the first heading, or
// after \maketitle when the document has none. A document that already
// has a table of contents is returned unchanged.
func InsertTableOfContents(text string) string {
	if strings.Contains(text, tableOfContents) {
		return text
	}
	toc := tableOfContents + "\n\n"
	if at, _ := nextHeading(text, 0); at >= 0 {
		return text[:at] + toc + text[at:]
	}
	if at := strings.Index(text, `\maketitle`); at >= 0 {
		at += len(`\maketitle`)
		return text[:at] + "\n\n" + toc + strings.TrimLeft(text[at:], "\n")
	}
	return toc + text
}

// WrapAbstract turns the first heading titled "Abstract" and the text up
// to the next heading into an abstract environment. Without a following
// heading the abstract ends at the first blank line.
func WrapAbstract(text string) string {
	if strings.Contains(text, `\begin{abstract}`) {
		return text
	}

	cursor := 0
	for {
		at, level := nextHeading(text, cursor)
		if at < 0 {
			return text
		}
		cursor = at + 1
		open := at + 1 + len(headingLadder[level])
		if text[open] == '*' {
			open++
		}
		if open >= len(text) || text[open] != '{' {
			continue
		}
		titleEnd := scanner.MatchingBrace(text, open)
		if titleEnd < 0 || !strings.EqualFold(strings.TrimSpace(text[open+1:titleEnd]), "abstract") {
			continue
		}

		start := titleEnd + 1
		if strings.HasPrefix(text[start:], `\label{`) {
			if end := scanner.MatchingBrace(text, start+len(`\label`)); end >= 0 {
				start = end + 1
			}
		}

		stop, _ := nextHeading(text, start)
		if stop < 0 {
			stop = abstractEnd(text, start)
		}
		body := strings.TrimSpace(text[start:stop])
		if !scanner.Balanced(body) {
			logger.Debug("abstract left alone: unbalanced braces", logger.Int("offset", at))
			return text
		}

		block := "\\begin{abstract}\n" + body + "\n\\end{abstract}\n\n"
		return text[:at] + block + strings.TrimLeft(text[stop:], "\n")
	}
}

// abstractEnd returns the first blank line after the paragraph that starts
// at or after from.
func abstractEnd(text string, from int) int {
	i := from
	for i < len(text) && (text[i] == '\n' || text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if end := strings.Index(text[i:], "\n\n"); end >= 0 {
		return i + end
	}
	return len(text)
}

// CenterTikz puts every free-standing tikzpicture into a centred figure.
func CenterTikz(text, float string) string {
	const (
		begin = `\begin{tikzpicture}`
		end   = `\end{tikzpicture}`
	)
	if float == "" {
		float = "h"
	}

	cursor := 0
	for {
		span, ok := region.NextEnvironment(text, begin, end, cursor)
		if !ok {
			return text
		}
		if skipImage(text, span.Outer.Start) {
			cursor = span.Outer.End
			continue
		}
		block := "\\begin{figure}[" + float + "]\n\\centering\n" + span.Outer.Text + "\n\\end{figure}"
		text = text[:span.Outer.Start] + block + text[span.Outer.End:]
		cursor = span.Outer.Start + len(block)
	}
}

// UnquoteLists removes quote environments whose whole body is a single
// itemize or enumerate list.
func UnquoteLists(text string) string {
	const (
		begin = `\begin{quote}`
		end   = `\end{quote}`
	)

	cursor := 0
	for {
		span, ok := region.NextEnvironment(text, begin, end, cursor)
		if !ok {
			return text
		}
		inner := strings.TrimSpace(span.Inner.Text)
		if strings.Contains(inner, begin) || !singleList(inner) {
			cursor = span.Outer.End
			continue
		}
		text = text[:span.Outer.Start] + inner + text[span.Outer.End:]
		cursor = span.Outer.Start + len(inner)
	}
}

// singleList reports whether s is exactly one list environment.
func singleList(s string) bool {
	for _, env := range []string{"itemize", "enumerate"} {
		begin := `\begin{` + env + `}`
		end := `\end{` + env + `}`
		if !strings.HasPrefix(s, begin) {
			continue
		}
		depth := 0
		for i := 0; i < len(s); i++ {
			switch {
			case strings.HasPrefix(s[i:], begin):
				depth++
				i += len(begin) - 1
			case strings.HasPrefix(s[i:], end):
				depth--
				i += len(end) - 1
				if depth == 0 {
					return i == len(s)-1
				}
			}
		}
		return false
	}
	return false
}

var typographicQuotes = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'",
)

// RegularVerbatimQuotes replaces typographic quotes inside verbatim, listing
// and minted bodies with their ASCII forms.
func RegularVerbatimQuotes(text string) string {
	for _, env := range []string{"verbatim", "lstlisting", "minted"} {
		begin := `\begin{` + env + `}`
		end := `\end{` + env + `}`
		cursor := 0
		for {
			span, ok := region.NextEnvironment(text, begin, end, cursor)
			if !ok {
				break
			}
			inner := typographicQuotes.Replace(span.Inner.Text)
			text = text[:span.Inner.Start] + inner + text[span.Inner.End:]
			cursor = span.Inner.Start + len(inner) + len(end)
		}
	}
	return text
}
