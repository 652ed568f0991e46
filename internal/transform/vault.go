package transform

import (
	"fmt"
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/region"
)

// Vault hides the bodies of literal environments behind opaque tokens so
// that later stages cannot rewrite them, and puts them back afterwards.
type Vault struct {
	bodies   map[string]string
	order    []string
	bib      string
	bibToken string
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{bodies: make(map[string]string)}
}

func vaultToken(n int) string {
	return fmt.Sprintf("<<<W2L_VERBATIM_%d>>>", n)
}

// Conceal replaces the body of every env block in text with a token. The
// begin and end markers stay in place. When bibKeyword is set, the first
// block inside a \section{bibKeyword} is also kept as bibliography data.
func (v *Vault) Conceal(text, env, bibKeyword string) string {
	begin := `\begin{` + env + `}`
	end := `\end{` + env + `}`
	bibHeading := `\section{` + bibKeyword + `}`

	cursor := 0
	for {
		span, ok := region.NextEnvironment(text, begin, end, cursor)
		if !ok {
			break
		}

		body := span.Inner.Text
		token := vaultToken(len(v.order))
		if bibKeyword != "" && v.bib == "" {
			sec := region.PreviousSection(text, span.Outer.Start, 0)
			if strings.HasPrefix(text[sec:], bibHeading) {
				v.bib = strings.Trim(body, "\n")
				v.bibToken = token
			}
		}

		v.bodies[token] = body
		v.order = append(v.order, token)
		text = text[:span.Inner.Start] + token + text[span.Inner.End:]
		cursor = span.Inner.Start + len(token) + len(end)
	}

	logger.Debug("verbatim bodies concealed",
		logger.String("environment", env), logger.Int("count", len(v.order)))
	return text
}

// Restore puts every concealed body back.
func (v *Vault) Restore(text string) string {
	for _, token := range v.order {
		text = strings.Replace(text, token, v.bodies[token], 1)
	}
	return text
}

// Missing returns the tokens that no longer occur in text. The
// bibliography block is expected to go away with its section.
func (v *Vault) Missing(text string) []string {
	var missing []string
	for _, token := range v.order {
		if token == v.bibToken {
			continue
		}
		if !strings.Contains(text, token) {
			missing = append(missing, token)
		}
	}
	return missing
}

// Bibliography returns the captured bibliography block, if any.
func (v *Vault) Bibliography() string {
	return v.bib
}

// Len returns the number of concealed bodies.
func (v *Vault) Len() int {
	return len(v.order)
}
