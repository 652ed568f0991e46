// Package environment rewrites stylised Word blocks, such as a quote that
// starts with a bold "Definition:" label, into declared LaTeX environments.
package environment

import (
	"sort"
	"strings"
)

// ArgStyle is the bracket style used for an environment's extra argument.
type ArgStyle string

const (
	ArgBracket ArgStyle = "bracket"
	ArgBrace   ArgStyle = "brace"
)

// DefaultPriority is the priority given to descriptors that do not set one.
const DefaultPriority = 3

// Descriptor describes how a stylised block maps to a LaTeX environment.
type Descriptor struct {
	// Name is the environment name; its lower-cased form is the LaTeX tag.
	Name string `json:"name" mapstructure:"name"`
	// Alias is the label the author writes in Word. Empty means Name.
	Alias string `json:"alias,omitempty" mapstructure:"alias"`
	// Start and End are the legacy marker keywords. An empty Start
	// disables marker based wrapping for this descriptor.
	Start          string   `json:"start,omitempty" mapstructure:"start"`
	End            string   `json:"end,omitempty" mapstructure:"end"`
	Encapsulation  string   `json:"encapsulation,omitempty" mapstructure:"encapsulation"`
	InitialNewline bool     `json:"initial_newline,omitempty" mapstructure:"initial_newline"`
	Priority       int      `json:"priority" mapstructure:"priority"`
	HasExtraArgs   bool     `json:"has_extra_args" mapstructure:"has_extra_args"`
	ArgStyle       ArgStyle `json:"arg_style,omitempty" mapstructure:"arg_style"`
	// Prefix is written right after \begin{tag}, Suffix after the argument.
	Prefix string `json:"prefix,omitempty" mapstructure:"prefix"`
	Suffix string `json:"suffix,omitempty" mapstructure:"suffix"`
}

// Tag returns the LaTeX environment name.
func (d Descriptor) Tag() string {
	return strings.ToLower(d.Name)
}

func (d Descriptor) alias() string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Name
}

func (d Descriptor) brackets() (string, string) {
	if d.ArgStyle == ArgBrace {
		return "{", "}"
	}
	return "[", "]"
}

// opening renders \begin{tag} with prefix, argument and suffix. A bracket
// style prefix already fills the optional argument, so title is dropped.
func (d Descriptor) opening(title string) string {
	s := `\begin{` + d.Tag() + `}` + d.Prefix
	if d.HasExtraArgs && !(d.Prefix != "" && d.ArgStyle != ArgBrace) {
		open, close := d.brackets()
		s += open + title + close
	}
	return s + d.Suffix
}

func (d Descriptor) closing() string {
	return `\end{` + d.Tag() + `}`
}

func (d Descriptor) legacyStart() string {
	if d.Start == "" {
		return ""
	}
	m := encapsulate(d.Start, d.Encapsulation)
	if d.InitialNewline {
		m = "\n" + m
	}
	return m
}

func (d Descriptor) legacyEnd() string {
	if d.End == "" {
		return ""
	}
	return encapsulate(d.End, d.Encapsulation)
}

func encapsulate(s, command string) string {
	if command == "" {
		return s
	}
	return `\` + command + `{` + s + `}`
}

// Sorted returns a copy of ds ordered by descending priority. Descriptors
// with equal priority keep their declaration order.
func Sorted(ds []Descriptor) []Descriptor {
	out := append([]Descriptor(nil), ds...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Priority > out[b].Priority })
	return out
}
