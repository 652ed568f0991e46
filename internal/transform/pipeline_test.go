package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"word2latex/internal/environment"
	"word2latex/internal/equation"
	"word2latex/internal/types"
)

const verbatimBlock = "\\begin{verbatim}\n\\[{x=y}\\] (doe) ½ \\text{α} f^{'}\n\\end{verbatim}"

func TestRepair_Fragment(t *testing.T) {
	input := "Intro\n\\[{\\begin{matrix}a=b\\#(1)\\\\\\end{matrix}}\\]\n" +
		"See Equation (1).\n" + verbatimBlock + "\n"

	res, err := New(DefaultOptions()).Repair(input)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "\\label{eq:1}")
	assert.Contains(t, res.Text, "See Equation \\eqref{eq:1}.")
	assert.Contains(t, res.Text, verbatimBlock, "verbatim bodies must come back byte for byte")
	assert.NotContains(t, res.Text, "W2L_VERBATIM")
	assert.NotContains(t, res.Text, endGuard)
	assert.NotContains(t, res.Text, "\\documentclass")
	assert.Equal(t, []string{"eq:1"}, res.Labels)
	assert.Empty(t, res.BibFile)
	assert.Empty(t, res.Warnings)
}

func TestRepair_AlignmentIsIdempotent(t *testing.T) {
	opts := DefaultOptions()
	opts.Equations.LabelEquations = false
	input := "\\[{a = b}{c = d}\\]\n"

	p := New(opts)
	first, err := p.Repair(input)
	require.NoError(t, err)
	second, err := p.Repair(first.Text)
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
	assert.Contains(t, first.Text, "\\begin{align*}\na &= b \\\\\nc &= d\n\\end{align*}")
}

func TestRepair_FullDocument(t *testing.T) {
	input := converterPreamble + "\n" +
		"Text (doe).\n\n" +
		"\\section{Bibliography}\n\\begin{verbatim}\n@book{doe, title={T}}\n\\end{verbatim}\n" +
		"\\end{document}\n"

	opts := DefaultOptions()
	opts.DefaultAuthor = "Ada"
	opts.StartOfDocText = "\\maketitle"
	res, err := New(opts).Repair(input)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Text, "\\documentclass[12pt]{article}\n"))
	assert.Contains(t, res.Text, "\\addbibresource{citations.bib}")
	assert.Contains(t, res.Text, "\\author{Ada}")
	assert.Contains(t, res.Text, "\\begin{document}\n\\maketitle\n\n")
	assert.Contains(t, res.Text, "Text \\cite{doe}.")
	assert.Contains(t, res.Text, "\\printbibliography[heading=bibnumbered]")
	assert.NotContains(t, res.Text, "\\section{Bibliography}")
	assert.True(t, strings.HasSuffix(res.Text, "\\end{document}\n"))
	assert.Equal(t, "citations.bib", res.BibFile)
	assert.Equal(t, "@book{doe, title={T}}", res.BibData)
	assert.Empty(t, res.Warnings)
}

func TestRepair_Environments(t *testing.T) {
	opts := DefaultOptions()
	opts.Environments = []environment.Descriptor{{Name: "Definition", HasExtraArgs: true, ArgStyle: environment.ArgBracket}}
	input := "\\begin{quote}\n\\textbf{Definition: Group} A set.\n\\end{quote}\n"

	res, err := New(opts).Repair(input)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "\\begin{definition}[Group]\nA set.\n\\end{definition}")
}

func TestRepair_MalformedLabel(t *testing.T) {
	opts := DefaultOptions()
	opts.Environments = []environment.Descriptor{{Name: "Definition", HasExtraArgs: true}}
	input := "\\begin{quote}\n\\textbf{Definition: a: b} body\n\\end{quote}"

	res, err := New(opts).Repair(input)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, types.IsCode(err, types.ErrMalformedLabel))
}

func TestRepair_WarningsCarryStage(t *testing.T) {
	res, err := New(DefaultOptions()).Repair("Text {oops\n")
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, "balance", res.Warnings[len(res.Warnings)-1].Stage)
}

func TestRepair_DisabledStages(t *testing.T) {
	opts := Options{Equations: equation.Options{}}
	input := "\\[{a=b}\\] f^{'} \\text{α} ½"

	res, err := New(opts).Repair(input)
	require.NoError(t, err)
	assert.Equal(t, input, res.Text)
}

func TestRepair_ValidateReportsUnclosedEnvironment(t *testing.T) {
	res, err := New(DefaultOptions()).Repair("Text\n\\begin{figure}\nx\n")
	require.NoError(t, err)

	var found bool
	for _, w := range res.Warnings {
		if w.Stage == "validate" {
			found = true
			assert.Contains(t, w.Message, "\\begin{figure}")
		}
	}
	assert.True(t, found, "expected a validate warning, got %v", res.Warnings)
}

func TestRepair_UnbalancedAlignmentIsKept(t *testing.T) {
	input := "Broken \\[{x = y\\] text\n"
	res, err := New(DefaultOptions()).Repair(input)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "\\[{x = y\\]")
	assert.NotContains(t, res.Text, "\\begin{align*}")
}

func TestRepair_DocumentStructure(t *testing.T) {
	opts := DefaultOptions()
	opts.TableOfContents = true
	opts.HeaderLevel = -1
	opts.DocumentClass = "\\documentclass{report}"
	opts.ExtraPreamble = "\\usepackage{longtable} %? contains_longtable\n" +
		"\\usepackage{geometry} %? small_margins\n" +
		"\\usepackage{csquotes} %? !citations_enabled\n"
	opts.Conditions = map[string]bool{"small_margins": false}

	input := converterPreamble + "\n" +
		"\\section{Abstract}\\label{abstract}\n\nWe study things.\n\n" +
		"\\section{Intro}\n\\begin{quote}\n\\begin{itemize}\n\\item one\n\\end{itemize}\n\\end{quote}\n" +
		"\\begin{tikzpicture}\\draw (0,0) -- (1,0);\\end{tikzpicture}\n" +
		"\\begin{verbatim}\nsay(“hi”)\n\\end{verbatim}\n" +
		"\\end{document}\n"

	res, err := New(opts).Repair(input)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "\\tableofcontents\n\n\\begin{abstract}\nWe study things.\n\\end{abstract}\n\n\\chapter{Intro}")
	assert.Contains(t, res.Text, "\\chapter{Intro}\n\\begin{itemize}\n\\item one\n\\end{itemize}\n")
	assert.Contains(t, res.Text, "\\begin{figure}[H]\n\\centering\n\\begin{tikzpicture}")
	assert.Contains(t, res.Text, "say(\"hi\")")
	assert.Contains(t, res.Text, "\\usepackage{csquotes}\n")
	assert.NotContains(t, res.Text, "geometry")
	assert.NotContains(t, res.Text, "\\usepackage{longtable}")
	assert.NotContains(t, res.Text, "%?")
	assert.Empty(t, res.Warnings)
}

func TestRepair_ChaptersInArticleWarns(t *testing.T) {
	opts := DefaultOptions()
	opts.HeaderLevel = -1
	res, err := New(opts).Repair("\\section{A}\ntext\n")
	require.NoError(t, err)

	assert.Contains(t, res.Text, "\\chapter{A}")
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, "chapters", res.Warnings[0].Stage)
}
