package transform

import (
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/region"
	"word2latex/internal/scanner"
)

// CitationOptions configures Citations.
type CitationOptions struct {
	Mode    string
	Command string
	// KeepParens leaves the parentheses around the emitted citation.
	KeepParens bool
	NoSecNum   bool
}

// RemoveBibliographySection deletes the last \section{keyword} together
// with its body. It returns the new text and the offset the section was
// at, or -1 when there is none.
func RemoveBibliographySection(text, keyword string) (string, int) {
	heading := `\section{` + keyword + `}`
	at := strings.LastIndex(text, heading)
	if at < 0 {
		return text, -1
	}
	next := region.NextSection(text, at+len(heading), 0)
	return text[:at] + "\n\n" + text[next:], at
}

// BibKeys returns the entry keys of a BibTeX database in file order.
func BibKeys(bib string) []string {
	var keys []string
	cursor := 0
	for {
		at := scanner.FindNth(bib, "@", 1, cursor)
		if at < 0 {
			return keys
		}
		cursor = at + 1
		if d, err := scanner.Depth(bib, at); err != nil || d > 0 {
			continue
		}
		open := strings.IndexByte(bib[at:], '{')
		if open < 0 {
			return keys
		}
		kind := strings.ToLower(strings.TrimSpace(bib[at+1 : at+open]))
		if kind == "comment" || kind == "string" || kind == "preamble" {
			continue
		}
		rest := bib[at+open+1:]
		comma := strings.IndexByte(rest, ',')
		if comma < 0 {
			continue
		}
		if key := strings.TrimSpace(rest[:comma]); key != "" && !strings.ContainsAny(key, "{}\n") {
			keys = append(keys, key)
		}
	}
}

// Citations rewrites parenthesised author keys into citation commands. It
// recognises a single key, a comma separated list of keys, and a key with
// a page in the style selected by Mode.
func Citations(text string, keys []string, opts CitationOptions) string {
	if len(keys) == 0 {
		return text
	}
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	command := opts.Command
	if command == "" {
		command = "cite"
	}

	var sb strings.Builder
	cursor := 0
	converted := 0
	for {
		open := strings.IndexByte(text[cursor:], '(')
		if open < 0 {
			sb.WriteString(text[cursor:])
			break
		}
		open += cursor
		end := strings.IndexAny(text[open+1:], ")\n(")
		if end < 0 || text[open+1+end] != ')' || (open > 0 && text[open-1] == '\\') {
			sb.WriteString(text[cursor : open+1])
			cursor = open + 1
			continue
		}
		end += open + 1

		cite, ok := citation(text[open+1:end], known, opts.Mode)
		sb.WriteString(text[cursor:open])
		switch {
		case !ok:
			sb.WriteString(text[open : end+1])
		case opts.KeepParens:
			sb.WriteString(`(\` + command + cite + `)`)
			converted++
		default:
			sb.WriteString(`\` + command + cite)
			converted++
		}
		cursor = end + 1
	}

	logger.Debug("citations converted", logger.Int("count", converted))
	return sb.String()
}

// citation parses the inside of one parenthesis. It returns the argument
// part of the citation command, e.g. "[12]{key}".
func citation(inner string, known map[string]bool, mode string) (string, bool) {
	inner = strings.TrimSpace(inner)
	if known[inner] {
		return "{" + inner + "}", true
	}

	if parts := strings.Split(inner, ","); len(parts) > 1 {
		all := true
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if !known[parts[i]] {
				all = false
				break
			}
		}
		if all {
			return "{" + strings.Join(parts, ",") + "}", true
		}
	}

	var key, page string
	switch mode {
	case CitationAPA1:
		if i := strings.Index(inner, ","); i >= 0 {
			key, page = inner[:i], strings.TrimSpace(inner[i+1:])
		}
	case CitationAPA2:
		if i := strings.Index(inner, ", p. "); i >= 0 {
			key, page = inner[:i], strings.TrimSpace(inner[i+len(", p. "):])
		}
	default:
		if i := strings.LastIndex(inner, " "); i >= 0 {
			key, page = inner[:i], strings.TrimSpace(inner[i+1:])
		}
	}
	if !known[key] || page == "" {
		return "", false
	}
	return "[" + page + "]{" + key + "}", true
}

// printBibliography is the command placed where the bibliography section
// was.
func printBibliography(noSecNum bool) string {
	cmd := "\\medskip\n\\printbibliography"
	if !noSecNum {
		cmd += "[heading=bibnumbered]"
	}
	return cmd
}

// ApplyCitations removes the bibliography section, converts the citations
// against the keys found in bib and prints the bibliography in place of the
// section. It reports false when the document has no bibliography section.
func ApplyCitations(text, keyword, bib string, opts CitationOptions) (string, bool) {
	stripped, at := RemoveBibliographySection(text, keyword)
	if at < 0 {
		return text, false
	}
	if strings.TrimSpace(bib) == "" {
		logger.Warn("bibliography section found but no bibliography data; citations skipped",
			logger.String("section", keyword))
		return text, false
	}

	keys := BibKeys(bib)
	stripped = stripped[:at] + "\n" + printBibliography(opts.NoSecNum) + stripped[at:]
	return Citations(stripped, keys, opts), true
}
