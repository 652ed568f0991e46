package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromoteHeadings(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		levels int
		want   string
	}{
		{
			name:   "one level",
			in:     "\\section{A}\\label{a}\n\\subsection*{B}\n\\paragraph[s]{C}",
			levels: 1,
			want:   "\\chapter{A}\\label{a}\n\\section*{B}\n\\subsubsection[s]{C}",
		},
		{
			name:   "two levels clamp at part",
			in:     "\\chapter{A}\n\\section{B}\n\\subsection{C}",
			levels: 2,
			want:   "\\part{A}\n\\part{B}\n\\chapter{C}",
		},
		{
			name:   "escaped and unrelated commands kept",
			in:     "\\\\section{x} \\sectionmark \\subparagraph{y}",
			levels: 1,
			want:   "\\\\section{x} \\sectionmark \\paragraph{y}",
		},
		{
			name:   "zero levels",
			in:     "\\section{A}",
			levels: 0,
			want:   "\\section{A}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PromoteHeadings(tt.in, tt.levels))
		})
	}
}

func TestInsertTableOfContents(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "before first heading",
			in:   "\\maketitle\n\nIntro text\n\n\\section{One}\n\\section{Two}",
			want: "\\maketitle\n\nIntro text\n\n\\tableofcontents\n\n\\section{One}\n\\section{Two}",
		},
		{
			name: "after title without headings",
			in:   "\\maketitle\nBody",
			want: "\\maketitle\n\n\\tableofcontents\n\nBody",
		},
		{
			name: "at start",
			in:   "Body",
			want: "\\tableofcontents\n\nBody",
		},
		{
			name: "already present",
			in:   "\\tableofcontents\n\\section{A}",
			want: "\\tableofcontents\n\\section{A}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InsertTableOfContents(tt.in))
		})
	}
}

func TestWrapAbstract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "runs to next heading",
			in:   "\\section{Abstract}\\label{abstract}\n\nWe study x.\n\nMore.\n\n\\section{Intro}\nText",
			want: "\\begin{abstract}\nWe study x.\n\nMore.\n\\end{abstract}\n\n\\section{Intro}\nText",
		},
		{
			name: "case insensitive starred heading without successor",
			in:   "\\subsection*{ ABSTRACT }\nShort summary.\n\nBody text.",
			want: "\\begin{abstract}\nShort summary.\n\\end{abstract}\n\nBody text.",
		},
		{
			name: "only the first abstract heading",
			in:   "\\section{Intro}\nx\n\\section{Abstract}\ny\n\\section{Abstract}\nz",
			want: "\\section{Intro}\nx\n\\begin{abstract}\ny\n\\end{abstract}\n\n\\section{Abstract}\nz",
		},
		{
			name: "existing abstract environment",
			in:   "\\begin{abstract}a\\end{abstract}\n\\section{Abstract}\nb",
			want: "\\begin{abstract}a\\end{abstract}\n\\section{Abstract}\nb",
		},
		{
			name: "unbalanced body left alone",
			in:   "\\hypertarget{a}{%\n\\section{Abstract}\nx}\n\\section{B}",
			want: "\\hypertarget{a}{%\n\\section{Abstract}\nx}\n\\section{B}",
		},
		{
			name: "no abstract heading",
			in:   "\\section{Summary}\nx",
			want: "\\section{Summary}\nx",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapAbstract(tt.in))
		})
	}
}

func TestCenterTikz(t *testing.T) {
	pic := "\\begin{tikzpicture}\\draw (0,0) -- (1,1);\\end{tikzpicture}"

	assert.Equal(t,
		"a\n\\begin{figure}[H]\n\\centering\n"+pic+"\n\\end{figure}\nb",
		CenterTikz("a\n"+pic+"\nb", "H"))

	assert.Equal(t,
		"\\begin{figure}[h]\n\\centering\n"+pic+"\n\\end{figure}",
		CenterTikz(pic, ""))

	placed := "\\begin{figure}\n" + pic + "\n\\end{figure}"
	assert.Equal(t, placed, CenterTikz(placed, "H"))

	commented := "% " + pic
	assert.Equal(t, commented, CenterTikz(commented, "H"))
}

func TestUnquoteLists(t *testing.T) {
	list := "\\begin{itemize}\n\\item a\n\\begin{itemize}\n\\item b\n\\end{itemize}\n\\end{itemize}"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "nested itemize",
			in:   "x\n\\begin{quote}\n" + list + "\n\\end{quote}\ny",
			want: "x\n" + list + "\ny",
		},
		{
			name: "enumerate",
			in:   "\\begin{quote}\\begin{enumerate}\\item a\\end{enumerate}\\end{quote}",
			want: "\\begin{enumerate}\\item a\\end{enumerate}",
		},
		{
			name: "text around the list kept quoted",
			in:   "\\begin{quote}\nSaid:\n\\begin{itemize}\\item a\\end{itemize}\n\\end{quote}",
			want: "\\begin{quote}\nSaid:\n\\begin{itemize}\\item a\\end{itemize}\n\\end{quote}",
		},
		{
			name: "two lists kept quoted",
			in:   "\\begin{quote}\\begin{itemize}\\item a\\end{itemize} \\begin{itemize}\\item b\\end{itemize}\\end{quote}",
			want: "\\begin{quote}\\begin{itemize}\\item a\\end{itemize} \\begin{itemize}\\item b\\end{itemize}\\end{quote}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnquoteLists(tt.in))
		})
	}
}

func TestRegularVerbatimQuotes(t *testing.T) {
	in := "“prose”\n\\begin{verbatim}\nprint(“hi”, ‘x’)\n\\end{verbatim}\n" +
		"\\begin{minted}{python}\ns = „a”\n\\end{minted}\n‘tail’"
	want := "“prose”\n\\begin{verbatim}\nprint(\"hi\", 'x')\n\\end{verbatim}\n" +
		"\\begin{minted}{python}\ns = \"a\"\n\\end{minted}\n‘tail’"

	assert.Equal(t, want, RegularVerbatimQuotes(in))
}
