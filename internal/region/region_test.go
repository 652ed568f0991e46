package region

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"word2latex/internal/logger"
)

func TestDetectAlign(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		from      int
		wantOK    bool
		wantText  string
		wantStart int
	}{
		{
			name:      "brace groups",
			text:      `you are not \[{9 + 10 = 21}{420 + 69 = 222}\] real`,
			wantOK:    true,
			wantText:  `\[{9 + 10 = 21}{420 + 69 = 222}\]`,
			wantStart: 12,
		},
		{
			name:   "plain display math is not an alignment",
			text:   `a \[x = 1\] b`,
			wantOK: false,
		},
		{
			name:      "false region skipped for the next one",
			text:      `\[{a}+b\] then \[{c}\]`,
			wantOK:    true,
			wantText:  `\[{c}\]`,
			wantStart: 15,
		},
		{
			name:      "whitespace between groups",
			text:      "\\[{a}\n {b}\\]",
			wantOK:    true,
			wantText:  "\\[{a}\n {b}\\]",
			wantStart: 0,
		},
		{
			name:   "from skips earlier regions",
			text:   `\[{a}\] \[{b}\]`,
			from:   2,
			wantOK: true,
			// the second opener
			wantText:  `\[{b}\]`,
			wantStart: 8,
		},
		{
			name:   "unterminated opener",
			text:   `text \[{\begin{matrix}x\#(1)\\\end{matrix}} and no closer`,
			wantOK: false,
		},
		{
			name:   "unclosed group",
			text:   `before \[{a = b\] after`,
			wantOK: false,
		},
		{
			name:   "extra closing brace",
			text:   `\[{a}}\]`,
			wantOK: false,
		},
		{
			name:      "unbalanced block skipped for the next one",
			text:      `\[{x = y\] and \[{z}\]`,
			wantOK:    true,
			wantText:  `\[{z}\]`,
			wantStart: 15,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectAlign(tt.text, tt.from)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantStart, got.Start)
			assert.Equal(t, tt.text[got.Start:got.End], tt.wantText)
		})
	}
}

func TestDetectAlign_BareTrailingMatrix(t *testing.T) {
	text := "before\n\\[{\\begin{matrix}\n9 + 10 = 21\\ \\#(4) \\\\\n\\end{matrix}\n}\\begin{matrix}\n42 + 534r\\#(67) \\\\\n\\end{matrix}\\]\nafter"

	got, ok := DetectAlign(text, 0)
	require.True(t, ok)
	assert.Equal(t, strings.Index(text, `\[`), got.Start)
	assert.Equal(t, strings.Index(text, `\]`)+2, got.End)
	assert.True(t, strings.HasSuffix(got.Text, "\\end{matrix}}\\]"), got.Text)
	assert.Contains(t, got.Text, "}{\\begin{matrix}\n42 + 534r")
}

func TestDetectAlign_RejectsBareTailWithoutComment(t *testing.T) {
	text := `\[{a = b}\begin{matrix}c\end{matrix}\]`
	_, ok := DetectAlign(text, 0)
	assert.False(t, ok)
}

func TestDetectAlign_NestedBracesInComment(t *testing.T) {
	// Braces and display-math closers inside the comment must not end the
	// region early or unbalance it.
	text := `\[{\begin{matrix}x = y\#{(\text{see {2}})}\\\end{matrix}}\]`
	got, ok := DetectAlign(text, 0)
	require.True(t, ok)
	assert.Equal(t, text, got.Text)

	eq, comment, ok := CheckStartMatrix(Inner(got)[1 : len(Inner(got))-1])
	require.True(t, ok)
	assert.Equal(t, "x = y", eq)
	assert.Equal(t, `{(\text{see {2}})}`, comment)
}

func TestCheckStartMatrix(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantOK      bool
		wantEq      string
		wantComment string
	}{
		{
			name:        "control space before comment",
			text:        `\begin{matrix}9+10=21\ \#(4)\\\end{matrix}`,
			wantOK:      true,
			wantEq:      "9+10=21",
			wantComment: "(4)",
		},
		{
			name:        "surrounding whitespace",
			text:        "  \\begin{matrix}\n a + b \\# 5 \\\\\n\\end{matrix}\n",
			wantOK:      true,
			wantEq:      "a + b",
			wantComment: "5",
		},
		{
			name:        "no row break",
			text:        `\begin{matrix}a\#b\end{matrix}`,
			wantOK:      true,
			wantEq:      "a",
			wantComment: "b",
		},
		{
			name:   "missing comment marker",
			text:   `\begin{matrix}a = b\\\end{matrix}`,
			wantOK: false,
		},
		{
			name:   "does not start with matrix",
			text:   `x\begin{matrix}a\#b\\\end{matrix}`,
			wantOK: false,
		},
		{
			name:   "trailing text after matrix",
			text:   `\begin{matrix}a\#b\\\end{matrix} x`,
			wantOK: false,
		},
		{
			name:   "marker inside left right",
			text:   `\begin{matrix}\left(a\#b\right)\\\end{matrix}`,
			wantOK: false,
		},
		{
			name:   "marker inside nested environment",
			text:   `\begin{matrix}\begin{cases}a\#b\end{cases}\\\end{matrix}`,
			wantOK: false,
		},
		{
			name:        "leftarrow is not a left delimiter",
			text:        `\begin{matrix}a\leftarrow b\#(2)\\\end{matrix}`,
			wantOK:      true,
			wantEq:      `a\leftarrow b`,
			wantComment: "(2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, comment, ok := CheckStartMatrix(tt.text)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantEq, eq)
			assert.Equal(t, tt.wantComment, comment)
			assert.Equal(t, tt.wantOK, ValidMatrix(tt.text))
		})
	}
}

func TestNthEnvironment(t *testing.T) {
	text := "\\begin{quote}\nA\n\\end{quote} x \\begin{quote}\nB\n\\end{quote}"

	first, ok := NthEnvironment(text, "\\begin{quote}\n", "\n\\end{quote}", 1)
	require.True(t, ok)
	assert.Equal(t, "A", first.Inner.Text)
	assert.Equal(t, 0, first.Outer.Start)

	second, ok := NthEnvironment(text, "\\begin{quote}\n", "\n\\end{quote}", 2)
	require.True(t, ok)
	assert.Equal(t, "B", second.Inner.Text)
	assert.Equal(t, len(text), second.Outer.End)

	_, ok = NthEnvironment(text, "\\begin{quote}\n", "\n\\end{quote}", 3)
	assert.False(t, ok)

	_, ok = NthEnvironment(`\end{x}\begin{x}`, `\begin{x}`, `\end{x}`, 1)
	assert.False(t, ok)
}

func TestNextEnvironment(t *testing.T) {
	text := `\begin{verbatim}a\end{verbatim}\begin{verbatim}b\end{verbatim}`
	span, ok := NextEnvironment(text, `\begin{verbatim}`, `\end{verbatim}`, 1)
	require.True(t, ok)
	assert.Equal(t, "b", span.Inner.Text)

	_, ok = NextEnvironment(text, `\begin{verbatim}`, `\end{verbatim}`, span.Outer.End)
	assert.False(t, ok)
}

func TestInEnvironment(t *testing.T) {
	text := `a \begin{proof} b \end{proof} c`
	assert.False(t, InEnvironment(text, "proof", 0))
	assert.True(t, InEnvironment(text, "proof", strings.Index(text, " b ")+1))
	assert.False(t, InEnvironment(text, "proof", strings.Index(text, "c")))
}

func TestStack(t *testing.T) {
	starts := []StartMarker{
		{Tag: "theorem", Marker: "Theorem."},
		{Tag: "proof", Marker: "Proof."},
	}
	text := "Theorem. T body Proof. P body ◾ rest ▨ tail"

	finished, unterminated := Stack(text, starts, StopMarkers)
	require.Len(t, finished, 2)
	assert.Empty(t, unterminated)

	assert.Equal(t, "theorem", finished[0].Tag)
	assert.Equal(t, 0, finished[0].Start)
	assert.Equal(t, strings.Index(text, "▨"), finished[0].End)
	assert.Equal(t, "▨", finished[0].Stop)

	assert.Equal(t, "proof", finished[1].Tag)
	assert.Equal(t, strings.Index(text, "Proof."), finished[1].Start)
	assert.Equal(t, strings.Index(text, "Proof.")+len("Proof."), finished[1].StartEnd)
	assert.Equal(t, strings.Index(text, "◾"), finished[1].End)
}

func TestStack_Unterminated(t *testing.T) {
	rec := logger.NewRecorder(nil)
	prev := logger.SetGlobalLogger(rec)
	defer logger.SetGlobalLogger(prev)

	starts := []StartMarker{{Tag: "lemma", Marker: "Lemma."}}
	text := "◾ Lemma. one ◾ Lemma. never closed"

	finished, unterminated := Stack(text, starts, StopMarkers)
	require.Len(t, finished, 1)
	require.Len(t, unterminated, 1)
	assert.Equal(t, strings.LastIndex(text, "Lemma."), unterminated[0].Start)
	assert.Len(t, rec.Warnings(), 1)
}

func TestRemoveStopMarkers(t *testing.T) {
	assert.Equal(t, "a b c", RemoveStopMarkers("a◾ b▨ c◺", StopMarkers))
}

func TestSections(t *testing.T) {
	text := `\section{A} x \subsection{B} y \section{C}`

	assert.Equal(t, strings.Index(text, `\subsection`), NextSection(text, 1, MaxSectionDepth))
	assert.Equal(t, strings.LastIndex(text, `\section`), NextSection(text, 1, 0))
	assert.Equal(t, len(text), NextSection(text, len(text)-2, MaxSectionDepth))

	assert.Equal(t, strings.Index(text, `\subsection`), PreviousSection(text, strings.Index(text, "y"), MaxSectionDepth))
	assert.Equal(t, 0, PreviousSection(text, strings.Index(text, "y"), 0))
}
