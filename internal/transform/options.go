// Package transform runs the repair pipeline that turns converter output into
// clean, compilable LaTeX.
package transform

import (
	"word2latex/internal/environment"
	"word2latex/internal/equation"
)

// Citation modes.
const (
	CitationAPA1 = "apa1"
	CitationAPA2 = "apa2"
	CitationMLA  = "mla"
)

// Verbatim plugins.
const (
	PluginNone       = ""
	PluginListings   = "lstlisting"
	PluginMinted     = "minted"
	defaultBibName   = "citations.bib"
	defaultBibKey    = "Bibliography"
	defaultPageWidth = 35
)

// Options selects and parameterises the pipeline stages. It is built once
// from the validated configuration and never mutated by the pipeline.
type Options struct {
	ConcealVerbatims    bool
	BibliographyKeyword string

	TableOfContents bool
	// HeaderLevel below zero promotes every heading by that many levels.
	HeaderLevel   int
	AllowAbstract bool

	RemoveHypertargets bool
	ForbidImages       bool
	FixVectors         bool

	AllowEnvironments  bool
	LegacyEnvironments bool
	Environments       []environment.Descriptor
	MaxHeadingSpan     int

	AllowProofs   bool
	SpecialProofs bool

	ModifyTables    bool
	KeepLongtables  bool
	DisallowFigures bool
	ImageFloat      string
	MaxPageLength   int

	// ToReplace holds literal replacements, applied in key order.
	ToReplace map[string]string

	AllowAlignments bool
	Equations       equation.Options
	// MaxLineAlign applies the line length limit inside the first
	// alignment pass as well as to standalone display equations.
	MaxLineAlign bool

	CenterImages        bool
	FixPrimes           bool
	FixDerivatives      bool
	DollarSignEquations bool
	FixUnicode          bool
	FixTexttt           bool
	CombineAligns       bool

	VerbatimPlugin  string
	VerbatimLang    string
	VerbatimOptions string
	CenterTikz      bool

	AllowCitations  bool
	CitationMode    string
	CitationKeyword string
	CitationParens  bool
	BibFileName     string
	// BibData is used when the document carries no bibliography block.
	BibData    string
	BibPackage string

	SubsectionLimit    int
	NoUnicodeFractions bool
	NoQuotesInLists    bool

	ExcludePreamble       bool
	EraseExistingPreamble bool
	ExtraPreamble         string
	ReplaceFont           bool
	NoSecNum              bool
	HideComments          bool
	StartOfDocText        string
	DocumentClass         string
	DefaultDate           string
	DefaultAuthor         string
	// ConditionalPreamble filters ExtraPreamble lines by Conditions; the
	// pipeline adds citations_enabled and contains_longtable.
	ConditionalPreamble bool
	Conditions          map[string]bool
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		ConcealVerbatims:    true,
		BibliographyKeyword: defaultBibKey,
		RemoveHypertargets:  true,
		FixVectors:          true,
		AllowAbstract:       true,
		AllowEnvironments:   true,
		MaxHeadingSpan:      environment.DefaultMaxHeadingSpan,
		AllowProofs:         true,
		ModifyTables:        true,
		ImageFloat:          "H",
		MaxPageLength:       defaultPageWidth,
		AllowAlignments:     true,
		Equations: equation.Options{
			AutoAlign:      true,
			MaxLineLength:  110,
			Comments:       equation.CommentTag,
			LabelEquations: true,
		},
		MaxLineAlign:        true,
		CenterImages:        true,
		FixPrimes:           true,
		FixDerivatives:      true,
		FixUnicode:          true,
		FixTexttt:           true,
		CombineAligns:       true,
		AllowCitations:      true,
		CitationMode:        CitationAPA2,
		CitationKeyword:     "cite",
		BibFileName:         defaultBibName,
		BibPackage:          `\usepackage{biblatex}`,
		SubsectionLimit:     -1,
		NoUnicodeFractions:  true,
		NoQuotesInLists:     true,
		CenterTikz:          true,
		ReplaceFont:         true,
		HideComments:        true,
		DocumentClass:       `\documentclass[12pt]{article}`,
		ConditionalPreamble: true,
	}
}
