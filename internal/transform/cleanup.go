package transform

import (
	"sort"
	"strings"
	"unicode/utf8"

	"word2latex/internal/logger"
	"word2latex/internal/region"
	"word2latex/internal/scanner"
)

// RemoveHypertargets unwraps `\hypertarget{id}{%\n\section{T}\label{id}}`
// into `\section{T}`, dropping the labels inside the wrapper.
func RemoveHypertargets(text string) string {
	const marker = `\hypertarget{`

	cursor := 0
	for {
		at := scanner.FindNth(text, marker, 1, cursor)
		if at < 0 {
			return text
		}
		idEnd := scanner.MatchingBrace(text, at+len(marker)-1)
		if idEnd < 0 || idEnd+1 >= len(text) || text[idEnd+1] != '{' {
			cursor = at + len(marker)
			continue
		}
		bodyEnd := scanner.MatchingBrace(text, idEnd+1)
		if bodyEnd < 0 {
			cursor = at + len(marker)
			continue
		}

		body := text[idEnd+2 : bodyEnd]
		body = strings.TrimPrefix(body, "%")
		body = strings.TrimPrefix(body, "\n")
		body = removeCommand(body, `\label{`)

		text = text[:at] + body + text[bodyEnd+1:]
		cursor = at + len(body)
	}
}

// removeCommand deletes every occurrence of a one-argument command such as
// `\label{...}`, argument included.
func removeCommand(text, command string) string {
	cursor := 0
	for {
		at := scanner.FindNth(text, command, 1, cursor)
		if at < 0 {
			return text
		}
		end := scanner.MatchingBrace(text, at+len(command)-1)
		if end < 0 {
			return text
		}
		text = text[:at] + text[end+1:]
		cursor = at
	}
}

// ForbidImages comments out every \includegraphics.
func ForbidImages(text string) string {
	const cmd = `\includegraphics`
	var sb strings.Builder
	cursor := 0
	for {
		at := scanner.FindNth(text, cmd, 1, cursor)
		if at < 0 {
			sb.WriteString(text[cursor:])
			return sb.String()
		}
		sb.WriteString(text[cursor:at])
		if !strings.HasSuffix(strings.TrimRight(text[:at], " "), "%") {
			sb.WriteString("% ")
		}
		sb.WriteString(cmd)
		cursor = at + len(cmd)
	}
}

// vectorArrows are the arrow accents Word puts over vector names; the
// second is the UTF-8 arrow read back as Windows-1252.
var vectorArrows = []string{`\overset{⃑}`, `\overset{âƒ‘}`}

// FixVectors turns arrow-accented vectors into bold symbols.
func FixVectors(text string) string {
	for _, a := range vectorArrows {
		text = strings.ReplaceAll(text, a, `\mathbf`)
	}
	return text
}

// Proofs converts italic "Proof." openers and end-of-proof squares into a
// proof environment.
func Proofs(text string, special bool) string {
	opener := `\begin{proof}`
	if special {
		opener += "{}{}"
	}
	r := strings.NewReplacer(
		`\emph{Proof.}`, opener,
		`\[\blacksquare\]`, `\end{proof}`,
		`\blacksquare\]`, `\] \end{proof}`,
		`\(\blacksquare\)`, `\end{proof}`,
		`\blacksquare\)`, `\) \end{proof}`,
		`~◻`, `\end{proof}`,
		"□", `\end{proof}`,
		"◻", `\end{proof}`,
	)
	return r.Replace(text)
}

// ApplyReplacements performs literal replacements in sorted key order so
// the result does not depend on map iteration.
func ApplyReplacements(text string, replacements map[string]string) string {
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		text = strings.ReplaceAll(text, k, replacements[k])
	}
	return text
}

// FixPrimes collapses superscripted apostrophes into plain primes.
func FixPrimes(text string) string {
	return strings.NewReplacer(`^{'''}`, `'''`, `^{''}`, `''`, `^{'}`, `'`).Replace(text)
}

// FixDerivatives rewrites `\text{dx}` as `\text{d}x` for single letters.
func FixDerivatives(text string) string {
	const open = `\text{d`
	cursor := 0
	for {
		at := scanner.FindNth(text, open, 1, cursor)
		if at < 0 {
			return text
		}
		rest := text[at+len(open):]
		r, size := utf8.DecodeRuneInString(rest)
		if size > 0 && (isASCIILetter(r) || r == 'θ') && strings.HasPrefix(rest[size:], "}") {
			text = text[:at] + `\text{d}` + rest[:size] + rest[size+1:]
		}
		cursor = at + len(open)
	}
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// DollarSignEquations replaces \( \) with $ and \[ \] with $$. An escaped
// backslash, as in the row break `\\[2pt]`, is left alone.
func DollarSignEquations(text string) string {
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' || i+1 >= len(text) {
			sb.WriteByte(text[i])
			continue
		}
		switch text[i+1] {
		case '(', ')':
			sb.WriteString("$")
		case '[', ']':
			sb.WriteString("$$")
		default:
			sb.WriteString(text[i : i+2])
		}
		i++
	}
	return sb.String()
}

// greekLetters maps the Greek characters that show up inside \text to math
// commands.
var greekLetters = map[string]string{
	"α": `\alpha`, "β": `\beta`, "γ": `\gamma`, "δ": `\delta`, "ϵ": `\epsilon`,
	"λ": `\lambda`, "θ": `\theta`, "ϑ": `\vartheta`, "π": `\pi`, "Ω": `\Omega`,
	"ε": `\varepsilon`, "Λ": `\Lambda`, "Δ": `\Delta`, "μ": `\mu`, "ν": `\nu`,
	"ξ": `\xi`, "ρ": `\rho`,
}

// shortWords may stay inside \text even though they are short.
var shortWords = map[string]bool{
	"is": true, "be": true, "do": true, "go": true, "hi": true,
	"of": true, "so": true, "or": true, "oh": true, "d": true,
}

// FixTextGreek unwraps \text groups that hold Greek letters or one or two
// stray characters, rewriting the letters as math commands.
func FixTextGreek(text string) string {
	const open = `\text{`
	cursor := 0
	for {
		at := scanner.FindNth(text, open, 1, cursor)
		if at < 0 {
			return text
		}
		end := scanner.MatchingBrace(text, at+len(open)-1)
		if end < 0 {
			return text
		}

		inner := text[at+len(open) : end]
		if !needsUnwrap(inner) {
			cursor = at + len(open)
			continue
		}
		for g, cmd := range greekLetters {
			inner = strings.ReplaceAll(inner, g, cmd+" ")
		}
		text = text[:at] + inner + text[end+1:]
		cursor = at + len(inner)
	}
}

func needsUnwrap(inner string) bool {
	for g := range greekLetters {
		if strings.Contains(inner, g) {
			return true
		}
	}
	if inner == "" || utf8.RuneCountInString(inner) >= 3 {
		return false
	}
	return !shortWords[inner]
}

// LimitSubsections demotes sectioning deeper than limit levels of "sub" to
// that depth.
func LimitSubsections(text string, limit int) string {
	if limit < 0 {
		return text
	}
	for d := region.MaxSectionDepth; d > limit; d-- {
		from := `\` + strings.Repeat("sub", d) + `section{`
		to := `\` + strings.Repeat("sub", limit) + `section{`
		text = strings.ReplaceAll(text, from, to)
	}
	return text
}

var vulgarFractions = []struct {
	char     string
	num, den string
}{
	{"½", "1", "2"}, {"⅓", "1", "3"}, {"⅔", "2", "3"}, {"¼", "1", "4"}, {"¾", "3", "4"},
	{"⅕", "1", "5"}, {"⅖", "2", "5"}, {"⅗", "3", "5"}, {"⅘", "4", "5"}, {"⅙", "1", "6"},
	{"⅚", "5", "6"}, {"⅐", "1", "7"}, {"⅛", "1", "8"}, {"⅜", "3", "8"}, {"⅝", "5", "8"},
	{"⅞", "7", "8"}, {"⅑", "1", "9"}, {"⅒", "1", "10"},
}

var mathEnvironments = []string{"align", "align*", "equation", "equation*", "gather", "gather*"}

// ReplaceUnicodeFractions rewrites vulgar fraction characters as \frac,
// wrapping them in inline math when they occur in running text.
func ReplaceUnicodeFractions(text string) string {
	for _, f := range vulgarFractions {
		frac := `\frac{` + f.num + `}{` + f.den + `}`
		cursor := 0
		for {
			at := scanner.FindNth(text, f.char, 1, cursor)
			if at < 0 {
				break
			}
			repl := frac
			if !inMath(text, at) {
				repl = `\(` + frac + `\)`
			}
			text = text[:at] + repl + text[at+len(f.char):]
			cursor = at + len(repl)
		}
	}
	return text
}

func inMath(text string, index int) bool {
	if scanner.MarkerDepth(text, index, `\(`, `\)`) > 0 || scanner.MarkerDepth(text, index, `\[`, `\]`) > 0 {
		return true
	}
	for _, env := range mathEnvironments {
		if region.InEnvironment(text, env, index) {
			return true
		}
	}
	return false
}

// LinkEquationReferences turns "Equation (4)" into "Equation \eqref{eq:4}"
// for every label key emitted by the alignment pass.
func LinkEquationReferences(text string, keys []string) string {
	for _, key := range keys {
		for _, word := range []string{"Equation", "equation", "Eq.", "eq."} {
			from := word + " (" + key + ")"
			to := word + ` \eqref{eq:` + key + `}`
			if strings.Contains(text, from) {
				text = strings.ReplaceAll(text, from, to)
				logger.Debug("equation reference linked", logger.String("label", "eq:"+key))
			}
		}
	}
	return text
}
