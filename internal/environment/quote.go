package environment

import (
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/region"
	"word2latex/internal/scanner"
	"word2latex/internal/types"
)

const (
	quoteBegin = "\\begin{quote}\n"
	quoteEnd   = "\n\\end{quote}"
	boldOpen   = `\textbf{`
)

var (
	dashes     = []string{"-", "–", "—"}
	listStarts = []string{`\begin{enumerate}`, `\begin{itemize}`}
)

// QuoteToEnvironment rewrites every quote block whose content starts with a
// bold label beginning with the descriptor's alias, e.g.
//
//	\begin{quote}
//	\textbf{Definition: Groups} A group is ...
//	\end{quote}
//
// The text after the colon becomes the extra argument. Blocks that do not
// match are skipped. A label with more than one colon is an error.
func QuoteToEnvironment(text string, d Descriptor) (string, error) {
	n := 1
	for {
		span, ok := region.NthEnvironment(text, quoteBegin, quoteEnd, n)
		if !ok {
			return text, nil
		}

		during := span.Inner.Text
		if !strings.HasPrefix(during, boldOpen) {
			n++
			continue
		}
		declEnd := scanner.MatchingBrace(during, len(boldOpen)-1)
		if declEnd < 0 {
			n++
			continue
		}
		label := during[len(boldOpen):declEnd]
		if !strings.HasPrefix(label, d.alias()) {
			n++
			continue
		}

		parts := strings.Split(label, ":")
		if len(parts) > 2 {
			return text, types.NewAppErrorWithDetails(types.ErrMalformedLabel,
				"environment label has more than one colon", label, nil)
		}
		title := ""
		if len(parts) == 2 {
			title = strings.ReplaceAll(strings.TrimSpace(parts[1]), "\n", " ")
		}

		body := strings.TrimSpace(during[declEnd+1:])
		block := d.opening(title) + "\n" + body + "\n" + d.closing()
		text = text[:span.Outer.Start] + block + text[span.Outer.End:]

		logger.Debug("quote block wrapped",
			logger.String("environment", d.Tag()), logger.Int("offset", span.Outer.Start))
	}
}

// WrapHeadings rewrites paragraphs introduced by a bold heading of the form
// `\textbf{Alias - Title}` into the descriptor's environment with Title as
// the argument. The heading must start a paragraph. The environment runs to
// the next blank line that is not followed by display math, a lower-case
// continuation or a list; without such a blank line the occurrence is left
// alone. When that blank line is more than maxSpan bytes
// past the heading, the occurrence is left alone. A maxSpan below one
// disables the limit.
func WrapHeadings(text string, d Descriptor, maxSpan int) string {
	keyword := boldOpen + d.alias() + " "

	n := 1
	for {
		start := scanner.FindNth(text, keyword, n, 0)
		if start < 0 {
			return text
		}

		after := start + len(keyword)
		dash := leadingDash(text[after:])
		if dash == "" || (start != 0 && (start < 2 || text[start-2:start] != "\n\n")) {
			n++
			continue
		}
		end := scanner.MatchingBrace(text, start+len(boldOpen)-1)
		if end < 0 {
			n++
			continue
		}

		stop := paragraphEnd(text, end+1)
		if stop < 0 {
			logger.Debug("environment heading skipped: no paragraph end",
				logger.String("environment", d.Tag()), logger.Int("offset", start))
			n++
			continue
		}
		if maxSpan >= 1 && stop-end > maxSpan {
			logger.Warn("environment heading skipped: paragraph too long",
				logger.String("environment", d.Tag()), logger.Int("offset", start),
				logger.Int("span", stop-end))
			n++
			continue
		}

		title := strings.TrimSpace(text[after+len(dash) : end])
		title = strings.TrimSpace(strings.TrimSuffix(title, ":"))
		body := strings.TrimSpace(text[end+1 : stop])
		block := d.opening(title) + "\n" + body + "\n" + d.closing()
		text = text[:start] + block + text[stop:]
	}
}

func leadingDash(s string) string {
	for _, d := range dashes {
		if strings.HasPrefix(s, d) {
			return d
		}
	}
	return ""
}

// paragraphEnd returns the offset of the blank line ending the paragraph
// that continues at from, or -1 when the text ends first.
func paragraphEnd(text string, from int) int {
	skip := 1
	for {
		nl := scanner.FindNth(text, "\n\n", skip, from)
		if nl < 0 {
			return -1
		}
		if continues(text[nl+2:]) {
			skip++
			continue
		}
		return nl
	}
}

func continues(rest string) bool {
	if strings.HasPrefix(rest, `\[`) {
		return true
	}
	if rest != "" && rest[0] >= 'a' && rest[0] <= 'z' {
		return true
	}
	for _, s := range listStarts {
		if strings.HasPrefix(rest, s) {
			return true
		}
	}
	return false
}
