package transform

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"word2latex/internal/logger"
	"word2latex/internal/region"
	"word2latex/internal/scanner"
)

const (
	longtableBegin = `\begin{longtable}`
	longtableEnd   = `\end{longtable}`
	minipageOpen   = "\\begin{minipage}[b]{\\linewidth}\\raggedright\n"
	minipageClose  = `\end{minipage}`
)

var ruleCommands = []string{`\toprule`, `\midrule`, `\bottomrule`, `\hline`, `\cline`}

// TableOptions configures EliminateLongtables.
type TableOptions struct {
	// Figuring turns a following "Table N: caption" paragraph into a
	// caption and label.
	Figuring bool
	Float    string
	// PageWidth is the total column width in em.
	PageWidth int
}

// EliminateLongtables replaces every longtable with a table/tabular pair.
// It returns the new text and the numbers of the captioned tables.
func EliminateLongtables(text string, opts TableOptions) (string, []string) {
	var numbers []string
	cursor := 0
	for {
		span, ok := region.NextEnvironment(text, longtableBegin, longtableEnd, cursor)
		if !ok {
			break
		}

		after := text[span.Outer.End:]
		var label, caption string
		if opts.Figuring {
			if num, capt, rest, found := floatCaption(after, "Table"); found {
				label = `\label{table:p` + num + `}`
				caption = capt
				after = "\n" + rest
				numbers = append(numbers, num)
			}
		}

		table := rebuildTable(span.Inner.Text, label, caption, opts)
		text = text[:span.Outer.Start] + table + after
		cursor = span.Outer.Start + len(table)
	}
	if n := strings.Count(text, longtableBegin); n > 0 {
		logger.Warn("longtable left unconverted", logger.Int("count", n))
	}
	return text, numbers
}

// rebuildTable turns the inside of one longtable into a floating tabular.
func rebuildTable(inner, label, caption string, opts TableOptions) string {
	headers := tableHeaders(inner)
	rows := tableRows(inner)

	columns := len(headers)
	if columns == 0 && len(rows) > 0 {
		columns = len(splitCells(strings.TrimSuffix(rows[0], `\\`)))
	}
	widths := columnWidths(headers, rows, columns, opts.PageWidth)

	var sb strings.Builder
	float := opts.Float
	if float == "" {
		float = "h"
	}
	sb.WriteString(`\begin{table}[` + float + "]\n\\centering\n")
	sb.WriteString(`\begin{tabular}{` + widths + "}\n\\hline\n")
	if len(headers) > 0 {
		sb.WriteString(strings.Join(headers, " & ") + ` \\ \hline` + "\n")
	}
	for _, row := range rows {
		sb.WriteString(row + "\n")
	}
	if len(rows) > 0 {
		sb.WriteString("\\hline\n")
	}
	sb.WriteString("\\end{tabular}\n")
	if caption != "" {
		sb.WriteString(`\caption{` + caption + "}\n")
	}
	if label != "" {
		sb.WriteString(label + "\n")
	}
	sb.WriteString("\\end{table}\n")

	return strings.NewReplacer(`\[`, `\(`, `\]`, `\)`).Replace(sb.String())
}

// tableHeaders collects the header cells, either from minipage blocks or
// from the row between the top and middle rules.
func tableHeaders(inner string) []string {
	head := inner
	if i := strings.Index(inner, `\endhead`); i >= 0 {
		head = inner[:i]
	}
	if i := strings.Index(head, `\endfirsthead`); i >= 0 {
		head = head[:i]
	}

	var headers []string
	for n := 1; ; n++ {
		span, ok := region.NthEnvironment(head, minipageOpen, minipageClose, n)
		if !ok {
			break
		}
		headers = append(headers, strings.TrimSpace(span.Inner.Text))
	}
	if len(headers) > 0 {
		return headers
	}

	top := strings.Index(head, `\toprule`)
	mid := strings.Index(head, `\midrule`)
	if top < 0 || mid < top {
		return nil
	}
	row := head[top:mid]
	if nl := strings.IndexByte(row, '\n'); nl >= 0 {
		row = row[nl+1:]
	} else {
		return nil
	}
	row = strings.TrimSuffix(strings.TrimSpace(row), `\\`)
	if strings.TrimSpace(row) == "" {
		return nil
	}
	return splitCells(row)
}

// tableRows returns the body rows, one per line, with rule lines dropped.
func tableRows(inner string) []string {
	body, found := "", false
	for _, marker := range []string{`\endlastfoot`, `\endhead`} {
		if i := strings.LastIndex(inner, marker); i >= 0 {
			body, found = inner[i+len(marker):], true
			break
		}
	}
	if !found {
		switch {
		case strings.Contains(inner, `\midrule`):
			body = inner[strings.Index(inner, `\midrule`):]
		case strings.Contains(inner, "\n"):
			body = inner[strings.Index(inner, "\n")+1:]
		}
	}

	var rows []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isRuleLine(line) {
			continue
		}
		if strings.HasPrefix(line, "@{}") || strings.HasPrefix(line, ">{") {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

func isRuleLine(line string) bool {
	for _, r := range ruleCommands {
		if strings.HasPrefix(line, r) {
			return true
		}
	}
	return false
}

// splitCells splits a row at its top-level ampersands.
func splitCells(row string) []string {
	var cells []string
	start := 0
	for i := 0; i < len(row); i++ {
		if row[i] != '&' || (i > 0 && row[i-1] == '\\') {
			continue
		}
		if d, err := scanner.Depth(row, i); err == nil && d == 0 {
			cells = append(cells, strings.TrimSpace(row[start:i]))
			start = i + 1
		}
	}
	return append(cells, strings.TrimSpace(row[start:]))
}

// columnWidths sizes m{} columns in proportion to the longest cell of each
// column. A single column is centred.
func columnWidths(headers, rows []string, columns, pageWidth int) string {
	if columns <= 1 {
		return "|c|"
	}
	if pageWidth < columns {
		pageWidth = defaultPageWidth
	}

	longest := make([]int, columns)
	measure := func(cells []string) {
		for i, c := range cells {
			if i < columns {
				if n := utf8.RuneCountInString(c); n > longest[i] {
					longest[i] = n
				}
			}
		}
	}
	measure(headers)
	for _, r := range rows {
		measure(splitCells(strings.TrimSuffix(r, `\\`)))
	}

	total := 0
	for _, n := range longest {
		total += n
	}

	var sb strings.Builder
	sb.WriteString("|")
	for _, n := range longest {
		w := pageWidth / columns
		if total > 0 {
			w = pageWidth * n / total
		}
		if w < 1 {
			w = 1
		}
		sb.WriteString(fmt.Sprintf("m{%dem}|", w))
	}
	return sb.String()
}

// RuleLongtables adds \hline after every row of each longtable except the
// header row and the last row.
func RuleLongtables(text string) string {
	cursor := 0
	for {
		span, ok := region.NextEnvironment(text, longtableBegin, longtableEnd, cursor)
		if !ok {
			return text
		}
		inner := ruleRows(span.Inner.Text)
		text = text[:span.Inner.Start] + inner + text[span.Inner.End:]
		cursor = span.Inner.Start + len(inner) + len(longtableEnd)
	}
}

func ruleRows(inner string) string {
	count := strings.Count(inner, `\\`)
	if count < 3 {
		return inner
	}
	var sb strings.Builder
	seen := 0
	for {
		i := strings.Index(inner, `\\`)
		if i < 0 {
			sb.WriteString(inner)
			return sb.String()
		}
		seen++
		sb.WriteString(inner[:i+2])
		if seen > 1 && seen < count && !strings.HasPrefix(strings.TrimLeft(inner[i+2:], " "), `\hline`) {
			sb.WriteString(` \hline`)
		}
		inner = inner[i+2:]
	}
}
