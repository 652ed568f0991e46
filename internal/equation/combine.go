package equation

import (
	"strings"

	"word2latex/internal/scanner"
)

// Combine merges consecutive env blocks separated only by spaces and
// newlines into one block, joining their bodies with a row break.
func Combine(text, env string) string {
	begin := `\begin{` + env + `}`
	end := `\end{` + env + `}`

	n := 1
	for {
		e := scanner.FindNth(text, end, n, 0)
		if e < 0 {
			return text
		}
		next := scanner.FindNth(text, begin, 1, e+len(end))
		if next < 0 {
			return text
		}
		if strings.Trim(text[e+len(end):next], " \n") != "" {
			n++
			continue
		}
		text = strings.TrimRight(text[:e], " \n") + ` \\` + text[next+len(begin):]
	}
}
