package transform

import (
	"strings"

	"word2latex/internal/logger"
)

const (
	documentBegin = `\begin{document}`
	documentEnd   = `\end{document}`
	// endGuard keeps the end of the body away from every pattern so passes
	// that look past a match never run off the text.
	endGuard = "\n\n\n\n\n\n\u00f2\u00f7\u00f6\u00e6\U0001FB35\U0001FB36\t\U0001FB37"

	packageAnchor  = "\\usepackage{iftex}\n"
	sectionNumbers = `\setcounter{secnumdepth}{-\maxdimen} % remove section numbering`
	defaultFont    = `\usepackage{lmodern}`
)

// minimalPreamble replaces the converter's preamble in erase mode.
const minimalPreamble = `\documentclass[fontsize=11pt]{article}
\usepackage{amsmath, amssymb}
\usepackage{lmodern, iftex}
\usepackage[utf8]{inputenc}
\usepackage{array}
\usepackage{graphicx}
\setlength{\parindent}{0pt}
\setlength{\parskip}{6pt plus 2pt minus 1pt}
\usepackage{mathtools}
`

// document is a standalone file split around its body.
type document struct {
	// Preamble runs up to and including \begin{document}.
	Preamble string
	Body     string
	// Tail starts at \end{document}.
	Tail     string
	Fragment bool
}

// splitDocument isolates the body. Text without a document environment is
// treated as a fragment that is all body.
func splitDocument(text string) document {
	b := strings.Index(text, documentBegin)
	if b < 0 {
		return document{Body: text, Fragment: true}
	}
	start := b + len(documentBegin)
	e := strings.Index(text[start:], documentEnd)
	if e < 0 {
		logger.Warn("document has no \\end{document}; treating the rest as body")
		return document{Preamble: text[:start], Body: text[start:], Tail: "\n" + documentEnd + "\n"}
	}
	e += start
	return document{Preamble: text[:start], Body: text[start:e], Tail: text[e:]}
}

// addGuard appends the end guard; removeGuard takes it out again.
func addGuard(body string) string {
	return body + endGuard
}

func removeGuard(body string) string {
	return strings.Replace(body, endGuard, "", 1)
}

// PreambleOptions configures RewritePreamble.
type PreambleOptions struct {
	Erase       bool
	Extra       string
	BibPackage  string
	BibFile     string
	ReplaceFont bool
	NoSecNum    bool
	HideComment bool
}

// RewritePreamble inserts the extra preamble text after the package anchor,
// restores section numbering and drops the default font as configured. In
// erase mode the preamble is replaced by a minimal one that keeps only the
// title, author and date.
func RewritePreamble(preamble string, opts PreambleOptions) string {
	insert := opts.Extra
	if opts.BibFile != "" {
		if opts.BibPackage != "" {
			insert += "\n" + opts.BibPackage
		}
		insert += "\n\\addbibresource{" + opts.BibFile + "}\n\n"
	}

	var out string
	if opts.Erase {
		out = minimalPreamble + insert + authorInfo(preamble) + "\n" + documentBegin
	} else {
		out = insertAfter(preamble, packageAnchor, insert)
		if !opts.NoSecNum {
			out = strings.Replace(out, sectionNumbers, "\n", 1)
		}
		if opts.ReplaceFont {
			out = strings.Replace(out, defaultFont, "", 1)
		}
	}
	if opts.HideComment {
		out = RemoveComments(out)
	}
	return out
}

// insertAfter places add right after needle, or before \begin{document}
// when needle is missing.
func insertAfter(text, needle, add string) string {
	if add == "" {
		return text
	}
	if i := strings.Index(text, needle); i >= 0 {
		i += len(needle)
		return text[:i] + add + text[i:]
	}
	if i := strings.LastIndex(text, documentBegin); i >= 0 {
		return text[:i] + add + "\n" + text[i:]
	}
	return text + add
}

// authorInfo extracts the \title, \author and \date lines of a preamble.
func authorInfo(preamble string) string {
	var sb strings.Builder
	for _, field := range []string{"title", "author", "date"} {
		cmd := `\` + field + `{`
		at := strings.Index(preamble, cmd)
		if at < 0 {
			continue
		}
		end := strings.IndexByte(preamble[at:], '\n')
		if end < 0 {
			end = len(preamble) - at
		}
		sb.WriteString(preamble[at:at+end] + "\n")
	}
	return sb.String()
}

// RemoveComments drops comment-only lines and trailing comments. An
// escaped percent sign is kept.
func RemoveComments(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "%") {
			continue
		}
		if i := commentStart(line); i >= 0 {
			line = strings.TrimRight(line[:i], " \t")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func commentStart(line string) int {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '%':
			return i
		}
	}
	return -1
}

// conditionMarker starts the condition list at the end of a preamble line.
const conditionMarker = "%?"

// ConditionalPreamble keeps a line ending in `%? key !other` only when
// every listed condition holds: key must be true and other false. Keys
// missing from conds count as true. The marker is removed from kept lines.
func ConditionalPreamble(text string, conds map[string]bool) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		at := commentStart(line)
		if at < 0 || !strings.HasPrefix(line[at:], conditionMarker) {
			out = append(out, line)
			continue
		}
		if !conditionsHold(line[at+len(conditionMarker):], conds) {
			logger.Debug("preamble line dropped", logger.String("line", strings.TrimSpace(line[:at])))
			continue
		}
		out = append(out, strings.TrimRight(line[:at], " \t"))
	}
	return strings.Join(out, "\n")
}

func conditionsHold(list string, conds map[string]bool) bool {
	for _, key := range strings.Fields(list) {
		want := true
		if strings.HasPrefix(key, "!") {
			want, key = false, key[1:]
		}
		value, ok := conds[key]
		if !ok {
			value = true
		}
		if value != want {
			return false
		}
	}
	return true
}

// ChangeDocumentClass replaces the first \documentclass line.
func ChangeDocumentClass(text, class string) string {
	at := strings.Index(text, `\documentclass`)
	if at < 0 {
		return text
	}
	end := strings.IndexByte(text[at:], '\n')
	if end < 0 {
		end = len(text) - at
	}
	return text[:at] + class + text[at+end:]
}

// fillEmpty fills the first empty `\field{}` with value.
func fillEmpty(text, field, value string) string {
	if value == "" {
		return text
	}
	return strings.Replace(text, `\`+field+`{}`, `\`+field+`{`+value+`}`, 1)
}
