package equation

import (
	"fmt"
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/region"
	"word2latex/internal/scanner"
	"word2latex/internal/types"
)

// CommentMode selects what happens to the `\#` comment the converter puts
// after an equation, usually its number.
type CommentMode int

const (
	// CommentNone leaves matrix rows untouched.
	CommentNone CommentMode = iota
	// CommentAlign renders the comment in a second alignment column.
	CommentAlign
	// CommentShortInterText puts the comment on a \shortintertext line above.
	CommentShortInterText
	// CommentTag renders the comment as the equation tag.
	CommentTag
	// CommentHidden drops the comment; with labels on, the equation is
	// numbered automatically and labelled.
	CommentHidden
)

var commentModeNames = map[CommentMode]string{
	CommentNone:           "",
	CommentAlign:          "align",
	CommentShortInterText: "shortintertext",
	CommentTag:            "tag",
	CommentHidden:         "hidden",
}

func (m CommentMode) String() string {
	if s, ok := commentModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("CommentMode(%d)", int(m))
}

// ParseCommentMode maps a configuration value to a CommentMode.
func ParseCommentMode(s string) (CommentMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for mode, name := range commentModeNames {
		if name == s {
			return mode, nil
		}
	}
	if s == "none" {
		return CommentNone, nil
	}
	return CommentNone, types.NewAppErrorWithDetails(types.ErrConfig,
		"unknown equation comment mode", s, nil)
}

// tiers lists the alignment operators by precedence. Within a tier the
// earliest occurrence wins.
var tiers = [][]string{
	{"="},
	{"<", ">", `\leq`, `\geq`, `\approx`},
	{`\not\subset`, `\subseteq`, `\subset`},
	{`\neq`},
}

// Options configures a Rewriter.
type Options struct {
	AutoAlign      bool
	MaxLineLength  int
	Comments       CommentMode
	LabelEquations bool
}

// Rewriter converts alignment regions into align* environments and records
// the equation labels it emits.
type Rewriter struct {
	opts   Options
	labels *Labels
}

// NewRewriter creates a Rewriter. A nil labels table gets a fresh one.
func NewRewriter(opts Options, labels *Labels) *Rewriter {
	if labels == nil {
		labels = NewLabels()
	}
	return &Rewriter{opts: opts, labels: labels}
}

// Labels returns the label table shared by this rewriter.
func (r *Rewriter) Labels() *Labels {
	return r.labels
}

// Environment returns the environment emitted around rewritten regions.
// Automatic numbering needs a numbered environment.
func (r *Rewriter) Environment() string {
	if r.autoNumbered() {
		return "align"
	}
	return "align*"
}

func (r *Rewriter) autoNumbered() bool {
	return r.opts.Comments == CommentHidden && r.opts.LabelEquations
}

// Process converts the inside of an alignment region, `{...}{...}`, into
// align body lines joined by ` \\` and a newline.
func (r *Rewriter) Process(inner string) string {
	inner = strings.ReplaceAll(inner, "\n", "")

	var lines []string
	for _, group := range scanner.OuterGroups(inner) {
		if r.opts.MaxLineLength >= 1 {
			if split, ok := Split(group, r.opts.MaxLineLength); ok {
				lines = append(lines, split...)
				continue
			}
		}
		lines = append(lines, group)
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, r.Align(line))
	}
	return strings.Join(out, " \\\\\n")
}

// Align inserts the alignment marker into one equation line and applies the
// comment mode. Without auto alignment the line is prefixed with "& " and
// any comment is dropped. Otherwise "&" goes before the earliest top-level
// operator of the highest-ranked tier present, or at the start.
func (r *Rewriter) Align(line string) string {
	comment := ""
	if r.opts.Comments != CommentNone {
		if eq, c, ok := region.CheckStartMatrix(line); ok {
			line, comment = eq, c
		}
	}

	if !r.opts.AutoAlign {
		return "& " + line
	}

	aligned := "&" + line
	for _, tier := range tiers {
		if at, _ := scanner.FindTopLevel(line, 0, tier); at >= 0 {
			aligned = line[:at] + "&" + line[at:]
			break
		}
	}
	return r.decorate(aligned, comment)
}

func (r *Rewriter) decorate(aligned, comment string) string {
	switch r.opts.Comments {
	case CommentAlign:
		if comment != "" {
			return aligned + " && " + comment
		}
	case CommentShortInterText:
		if comment != "" {
			return `\shortintertext{` + comment + "}\n" + aligned
		}
	case CommentTag:
		if comment == "" {
			return aligned
		}
		tag := tagText(comment)
		aligned += ` \tag{` + tag + `}`
		if r.opts.LabelEquations {
			aligned += ` \label{` + r.labels.Claim(tag) + `}`
		}
	case CommentHidden:
		if !r.opts.LabelEquations {
			return aligned
		}
		if comment == "" {
			return aligned + ` \nonumber`
		}
		aligned += ` \label{` + r.labels.Claim(tagText(comment)) + `}`
	}
	return aligned
}

// tagText strips the parentheses Word puts around equation numbers.
func tagText(comment string) string {
	c := strings.TrimSpace(comment)
	if strings.HasPrefix(c, "(") && strings.HasSuffix(c, ")") && len(c) >= 2 {
		c = strings.TrimSpace(c[1 : len(c)-1])
	}
	return c
}

// ReplaceNext rewrites the first alignment region at or after from. It
// returns the new text, the offset just past the emitted environment and
// whether a region was found. One newline directly before the region is
// absorbed into the environment's leading newline.
func (r *Rewriter) ReplaceNext(text string, from int) (string, int, bool) {
	found, ok := region.DetectAlign(text, from)
	if !ok {
		return text, len(text), false
	}

	body := strings.TrimSpace(r.Process(region.Inner(found)))
	env := r.Environment()

	prefix := text[:found.Start]
	lead := ""
	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, "\n")
		lead = "\n"
	}
	block := lead + `\begin{` + env + "}\n" + body + "\n" + `\end{` + env + "}\n"

	logger.Debug("alignment region rewritten",
		logger.Int("offset", found.Start), logger.Int("length", found.Len()))
	return prefix + block + text[found.End:], len(prefix) + len(block), true
}

// ReplaceAll rewrites every alignment region in text. Each iteration resumes
// after the block it emitted, so regions are never revisited.
func (r *Rewriter) ReplaceAll(text string) string {
	cursor := 0
	for {
		next, end, ok := r.ReplaceNext(text, cursor)
		if !ok {
			return next
		}
		text, cursor = next, end
	}
}

// Labels records the equation labels emitted during a repair. Claiming a
// key twice yields a suffixed label (eq:4, eq:4-2, ...) and a warning.
type Labels struct {
	counts map[string]int
	order  []string
	dups   int
}

// NewLabels creates an empty label table.
func NewLabels() *Labels {
	return &Labels{counts: make(map[string]int)}
}

// Claim registers key and returns the unique label to emit for it.
func (l *Labels) Claim(key string) string {
	key = labelKey(key)
	l.counts[key]++
	label := "eq:" + key
	if n := l.counts[key]; n > 1 {
		label = fmt.Sprintf("eq:%s-%d", key, n)
		l.dups++
		logger.Warn("duplicate equation label renamed",
			logger.String("label", "eq:"+key), logger.String("renamed", label))
	}
	l.order = append(l.order, label)
	return label
}

// Has reports whether key was claimed at least once.
func (l *Labels) Has(key string) bool {
	return l.counts[labelKey(key)] > 0
}

// All returns the emitted labels in order.
func (l *Labels) All() []string {
	return append([]string(nil), l.order...)
}

// Keys returns the distinct claimed keys in first-claim order.
func (l *Labels) Keys() []string {
	var keys []string
	for _, label := range l.order {
		key := strings.TrimPrefix(label, "eq:")
		if l.counts[key] > 0 && !contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Duplicates returns how many claims had to be renamed.
func (l *Labels) Duplicates() int {
	return l.dups
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// labelKey keeps label keys to characters LaTeX accepts in \label.
func labelKey(s string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == ':', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('-')
		}
	}
	if sb.Len() == 0 {
		return "x"
	}
	return sb.String()
}
