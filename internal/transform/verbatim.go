package transform

import (
	"strings"

	"word2latex/internal/logger"
)

const (
	verbatimBegin = `\begin{verbatim}`
	verbatimEnd   = `\end{verbatim}`
)

// VerbatimToListing rewrites verbatim blocks for the listings or minted
// package. It reports false when nothing was converted; minted needs a
// language and is skipped without one.
func VerbatimToListing(text, plugin, lang, options string) (string, bool) {
	if !strings.Contains(text, verbatimBegin) {
		return text, false
	}

	var begin string
	switch plugin {
	case PluginListings:
		var opts []string
		if lang != "" {
			opts = append(opts, "language="+lang)
		}
		if options != "" {
			opts = append(opts, options)
		}
		begin = `\begin{lstlisting}`
		if len(opts) > 0 {
			begin += "[" + strings.Join(opts, ",") + "]"
		}
	case PluginMinted:
		if lang == "" {
			logger.Warn("minted needs a language; verbatim blocks left as they are")
			return text, false
		}
		begin = `\begin{minted}`
		if options != "" {
			begin += "[" + options + "]"
		}
		begin += "{" + lang + "}"
	default:
		return text, false
	}

	text = strings.ReplaceAll(text, verbatimBegin, begin)
	text = strings.ReplaceAll(text, verbatimEnd, `\end{`+plugin+`}`)
	return text, true
}
