package transform

import (
	"strings"

	"word2latex/internal/scanner"
)

const texttt = `\texttt{`

// texttt escapes that must survive the cleanup.
const keptEscapes = "_&$%#{}"

// FixTexttt cleans every \texttt argument and then merges directly adjacent
// \texttt runs.
func FixTexttt(text string) string {
	cursor := 0
	for {
		at := scanner.FindNth(text, texttt, 1, cursor)
		if at < 0 {
			break
		}
		open := at + len(texttt) - 1
		end := scanner.MatchingBrace(text, open)
		if end < 0 {
			break
		}
		inner := cleanTexttt(text[open+1 : end])
		text = text[:open+1] + inner + text[end:]
		cursor = open + 1 + len(inner)
	}
	return CombineTexttt(text)
}

// cleanTexttt unwraps the bracket groups the converter emits, `{[}` and
// `{]}`, and drops backslashes that escape nothing meaningful. Control words
// and the special-character escapes are kept.
func cleanTexttt(inner string) string {
	inner = strings.NewReplacer("{[}", "[", "{]}", "]", "â€“", "-").Replace(inner)

	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 < len(inner) {
			next := inner[i+1]
			if strings.IndexByte(keptEscapes, next) >= 0 || isASCIILetter(rune(next)) {
				sb.WriteByte(c)
				sb.WriteByte(next)
				i++
				continue
			}
		}
	}
	return sb.String()
}

// CombineTexttt merges `\texttt{a}\texttt{b}` into `\texttt{ab}`.
func CombineTexttt(text string) string {
	cursor := 0
	for {
		at := scanner.FindNth(text, texttt, 1, cursor)
		if at < 0 {
			return text
		}
		end := scanner.MatchingBrace(text, at+len(texttt)-1)
		if end < 0 {
			return text
		}
		if strings.HasPrefix(text[end+1:], texttt) {
			text = text[:end] + text[end+1+len(texttt):]
			cursor = at
			continue
		}
		cursor = end + 1
	}
}
