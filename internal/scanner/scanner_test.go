package scanner

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"word2latex/internal/logger"
	"word2latex/internal/types"
)

// quickConfig returns the configuration for property-based tests
func quickConfig() *quick.Config {
	return &quick.Config{
		MaxCount: 200,
		Rand:     rand.New(rand.NewSource(42)),
	}
}

// bracketText is random text drawn from the characters that matter to the
// scanner.
type bracketText string

func (bracketText) Generate(r *rand.Rand, size int) reflect.Value {
	alphabet := []byte{'{', '}', '\\', 'a', ' ', '='}
	n := r.Intn(size + 1)
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return reflect.ValueOf(bracketText(b))
}

func TestDepth(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		index int
		want  int
	}{
		{"empty", "", 0, 0},
		{"before opener", "{a}", 0, 0},
		{"after opener", "{a}", 1, 1},
		{"after closer", "{a}", 3, 0},
		{"nested", "{{x}}", 2, 2},
		{"escaped opener", `\{a`, 3, 0},
		{"escaped closer", `{\}`, 3, 1},
		{"line break then opener", `\\{`, 3, 1},
		{"end of text", "{{}", EndOfText, 1},
		{"negative depth", "}}", 2, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Depth(tt.text, tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepthWith(t *testing.T) {
	t.Run("from offset", func(t *testing.T) {
		got, err := DepthWith("{{{a", 4, Options{From: 2})
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	})

	t.Run("square brackets", func(t *testing.T) {
		got, err := DepthWith("[a[b]", EndOfText, Options{Open: "[", Close: "]"})
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	})

	t.Run("no escape", func(t *testing.T) {
		got, err := DepthWith(`\{`, EndOfText, Options{NoEscape: true})
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	})

	t.Run("word markers ignore escapes", func(t *testing.T) {
		text := `\begin{matrix}a\end{matrix}\begin{matrix}`
		got, err := DepthWith(text, EndOfText, Options{Open: `\begin`, Close: `\end`})
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	})
}

func TestDepth_OutOfBounds(t *testing.T) {
	tests := []struct {
		name  string
		index int
		opts  Options
	}{
		{"past end", 10, Options{}},
		{"negative", -2, Options{}},
		{"before from", 1, Options{From: 2}},
		{"from past end", EndOfText, Options{From: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DepthWith("{abc}", tt.index, tt.opts)
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.ErrOutOfBounds), "unexpected error %v", err)
		})
	}
}

func TestProperty_DepthStepsByOne(t *testing.T) {
	property := func(s bracketText) bool {
		text := string(s)
		prev := 0
		for i := 0; i <= len(text); i++ {
			d, err := Depth(text, i)
			if err != nil {
				return false
			}
			if diff := d - prev; diff < -1 || diff > 1 {
				return false
			}
			prev = d
		}
		final, err := Depth(text, EndOfText)
		return err == nil && final == prev
	}

	if err := quick.Check(property, quickConfig()); err != nil {
		t.Error(err)
	}
}

func TestProperty_OuterPairsAreTopLevel(t *testing.T) {
	prev := logger.SetGlobalLogger(logger.NewRecorder(nil))
	defer logger.SetGlobalLogger(prev)

	property := func(s bracketText) bool {
		text := string(s)
		for _, p := range OuterPairs(text, '{', '}') {
			if text[p.Open] != '{' || text[p.Close] != '}' || p.Close <= p.Open {
				return false
			}
			if MatchingBrace(text, p.Open) != p.Close {
				return false
			}
		}
		return true
	}

	if err := quick.Check(property, quickConfig()); err != nil {
		t.Error(err)
	}
}

func TestFindNth(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   string
		n        int
		from     int
		want     int
	}{
		{"first", "abcabc", "b", 1, 0, 1},
		{"second", "abcabc", "b", 2, 0, 4},
		{"missing third", "abcabc", "b", 3, 0, -1},
		{"zero normalizes to one", "abcabc", "b", 0, 0, 1},
		{"negative normalizes to one", "abcabc", "b", -4, 0, 1},
		{"from offset", "abcabc", "a", 1, 1, 3},
		{"non overlapping", "aaaa", "aa", 2, 0, 2},
		{"empty needle", "abc", "", 1, 0, -1},
		{"from past end", "abc", "a", 1, 9, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindNth(tt.haystack, tt.needle, tt.n, tt.from); got != tt.want {
				t.Errorf("FindNth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRFindNth(t *testing.T) {
	text := "x=1, x=2, x=3"
	assert.Equal(t, 10, RFindNth(text, "x", 1, 0, -1))
	assert.Equal(t, 5, RFindNth(text, "x", 2, 0, -1))
	assert.Equal(t, 0, RFindNth(text, "x", 2, 0, 9))
	assert.Equal(t, -1, RFindNth(text, "x", 4, 0, -1))
	assert.Equal(t, -1, RFindNth(text, "x", 1, 1, 4))
}

func TestMarkerAndCommandDepth(t *testing.T) {
	text := `\begin{matrix}\left(a\leftarrow b\right)\#x\end{matrix}`
	hash := strings.Index(text, `\#`)

	assert.Equal(t, 1, MarkerDepth(text, hash, `\begin`, `\end`))
	assert.Equal(t, 0, MarkerDepth(text, len(text), `\begin`, `\end`))
	assert.Equal(t, 0, CommandDepth(text, hash, `\left`, `\right`))

	inside := strings.Index(text, "(a") + 1
	assert.Equal(t, 1, CommandDepth(text, inside, `\left`, `\right`))
	// MarkerDepth has no word boundary, so \leftarrow counts as an opener.
	assert.Equal(t, 1, MarkerDepth(text, hash, `\left`, `\right`))
}

func TestMatchingBrace(t *testing.T) {
	tests := []struct {
		name string
		text string
		open int
		want int
	}{
		{"simple", "{abc}", 0, 4},
		{"nested", "{a{b}c}d", 0, 6},
		{"escaped closer", `{a\}b}`, 0, 5},
		{"inner group", "{a{b}c}", 2, 4},
		{"not an opener", "abc", 0, -1},
		{"unbalanced", "{a{b}", 0, -1},
		{"out of range", "{}", 5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchingBrace(tt.text, tt.open); got != tt.want {
				t.Errorf("MatchingBrace() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommandEnd(t *testing.T) {
	text := `see \textbf{Theorem {1}} here`
	at := strings.Index(text, `\textbf`)
	end := CommandEnd(text, at)
	require.Greater(t, end, 0)
	assert.Equal(t, `\textbf{Theorem {1}}`, text[at:end+1])
	assert.Equal(t, -1, CommandEnd(`\par`, 0))
}

func TestFindTopLevel(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		needles   []string
		wantIndex int
		wantMatch string
	}{
		{"top level equals", "a=b", []string{"="}, 1, "="},
		{"nested equals skipped", "{a=b}=c", []string{"="}, 5, "="},
		{"control word boundary", `a\subseteq b`, []string{`\subset`}, -1, ""},
		{"full control word", `a\subseteq b`, []string{`\subseteq`}, 1, `\subseteq`},
		{"not subset earliest", `a\not\subset b`, []string{`\subset`, `\not\subset`}, 1, `\not\subset`},
		{"escaped equals", `a\=b`, []string{"="}, -1, ""},
		{"earliest of many", "a<b=c", []string{"=", "<"}, 1, "<"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, match := FindTopLevel(tt.text, 0, tt.needles)
			assert.Equal(t, tt.wantIndex, idx)
			assert.Equal(t, tt.wantMatch, match)
		})
	}

	idx, _ := FindTopLevel("a=b=c", 2, []string{"="})
	assert.Equal(t, 3, idx)
}

func TestOuterGroups(t *testing.T) {
	assert.Equal(t, []string{"a{b}c", "d"}, OuterGroups("{a{b}c}{d}"))
	assert.Equal(t, []string{`x\}y`}, OuterGroups(`{x\}y}`))
	assert.Empty(t, OuterGroups("plain"))
}

func TestPairs(t *testing.T) {
	got := Pairs("{a{b}c}{d}", '{', '}')
	want := []Pair{{0, 6}, {2, 4}, {7, 9}}
	assert.Equal(t, want, got)

	outer := OuterPairs("{a{b}c}{d}", '{', '}')
	assert.Equal(t, []Pair{{0, 6}, {7, 9}}, outer)
}

func TestPairs_Unbalanced(t *testing.T) {
	rec := logger.NewRecorder(nil)
	prev := logger.SetGlobalLogger(rec)
	defer logger.SetGlobalLogger(prev)

	got := OuterPairs("}{a}{", '{', '}')
	assert.Equal(t, []Pair{{1, 3}}, got)

	warnings := rec.Warnings()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Message, "too many closing")
	assert.Contains(t, warnings[1].Message, "too many opening")
}

func TestBalanced(t *testing.T) {
	assert.True(t, Balanced(`{a\}{b}}`))
	assert.True(t, Balanced(""))
	assert.False(t, Balanced("}{"))
	assert.False(t, Balanced("{{}"))
}
