package transform

import (
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/region"
	"word2latex/internal/scanner"
)

const includeGraphics = `\includegraphics`

// FigureOptions configures WrapFigures.
type FigureOptions struct {
	// Figuring turns a following "Figure N: caption" paragraph into a
	// caption and label. Without it every image is only centred.
	Figuring bool
	Float    string
}

// WrapFigures puts every free-standing \includegraphics line into a figure
// or center environment and links "Figure N" mentions to the captioned
// figures. It returns the figure numbers it labelled.
func WrapFigures(text string, opts FigureOptions) (string, []string) {
	float := opts.Float
	if float == "" {
		float = "h"
	}

	var numbers []string
	cursor := 0
	for {
		at := scanner.FindNth(text, includeGraphics, 1, cursor)
		if at < 0 {
			break
		}
		if skipImage(text, at) {
			cursor = at + len(includeGraphics)
			continue
		}

		lineEnd := strings.IndexByte(text[at:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += at
		}
		image := strings.TrimRight(text[at:lineEnd], " ")
		after := text[lineEnd:]

		var block string
		num, caption, rest, found := "", "", after, false
		if opts.Figuring {
			num, caption, rest, found = floatCaption(after, "Figure")
		}
		if found {
			block = "\n\\begin{figure}[" + float + "]\n\\centering\n" + image +
				"\n\\caption{" + caption + "}\n\\label{fig:p" + num + "}\n\\end{figure}\n"
			after = "\n" + rest
			numbers = append(numbers, num)
		} else {
			block = "\n\\begin{center}\n" + image + "\n\\end{center}\n"
		}

		text = text[:at] + block + after
		cursor = at + len(block)
	}

	if len(numbers) > 0 {
		text = linkReferences(text, []string{"Figure", "figure", "Fig.", "fig."}, "fig:p", numbers)
		logger.Debug("figures labelled", logger.Int("count", len(numbers)))
	}
	return text, numbers
}

// skipImage reports whether the image at index is commented out or already
// sits in a float or centred block.
func skipImage(text string, index int) bool {
	lineStart := strings.LastIndexByte(text[:index], '\n') + 1
	if strings.Contains(text[lineStart:index], "%") {
		return true
	}
	for _, env := range []string{"figure", "figure*", "center", "table", "wrapfigure", "minipage"} {
		if region.InEnvironment(text, env, index) {
			return true
		}
	}
	return false
}

// LinkTableReferences turns "Table N" mentions into references to the
// tables captioned by EliminateLongtables.
func LinkTableReferences(text string, numbers []string) string {
	if len(numbers) == 0 {
		return text
	}
	return linkReferences(text, []string{"Table", "table"}, "table:p", numbers)
}
