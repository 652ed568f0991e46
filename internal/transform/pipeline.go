package transform

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"word2latex/internal/environment"
	"word2latex/internal/equation"
	"word2latex/internal/logger"
	"word2latex/internal/scanner"
	"word2latex/internal/types"
	"word2latex/internal/validator"
)

// Result is the outcome of one repair.
type Result struct {
	Text string
	// BibFile is the file name the document's \addbibresource points at;
	// empty when no citations were converted.
	BibFile string
	BibData string
	// Labels are the equation labels emitted, in document order.
	Labels   []string
	Figures  []string
	Tables   []string
	Warnings []types.Warning
}

// Pipeline repairs converter output. A Pipeline holds no per-document
// state and may be reused, but Repair temporarily replaces the global
// logger, so repairs must not run concurrently.
type Pipeline struct {
	opts   Options
	engine *environment.Engine
}

// New creates a Pipeline for opts.
func New(opts Options) *Pipeline {
	return &Pipeline{
		opts:   opts,
		engine: environment.NewEngine(opts.Environments, opts.LegacyEnvironments, opts.MaxHeadingSpan),
	}
}

// Options returns the options the pipeline was built with.
func (p *Pipeline) Options() Options {
	return p.opts
}

// repair carries the state of one Repair call between stages.
type repair struct {
	rec      *logger.Recorder
	seen     int
	warnings []types.Warning
	result   *Result
}

// stage runs fn and files every warning it logs under name.
func (r *repair) stage(name string, enabled bool, fn func() error) error {
	if !enabled {
		return nil
	}
	err := fn()
	entries := r.rec.Entries()
	for _, e := range entries[r.seen:] {
		if e.Level != logger.LevelWarn {
			continue
		}
		w := types.Warning{Stage: name, Message: e.Message}
		if v, ok := e.Field("offset"); ok {
			if n, ok := v.(int); ok {
				w.Offset = n
			}
		}
		r.warnings = append(r.warnings, w)
	}
	r.seen = len(entries)
	return err
}

// Repair runs every enabled stage over text, a full converter document or
// a body fragment.
func (p *Pipeline) Repair(text string) (*Result, error) {
	rec := logger.NewRecorder(logger.GetLogger())
	prev := logger.SetGlobalLogger(rec)
	defer logger.SetGlobalLogger(prev)

	o := p.opts
	r := &repair{rec: rec, result: &Result{}}
	labels := equation.NewLabels()
	vault := NewVault()

	doc := splitDocument(text)
	body := addGuard(doc.Body)

	stages := []struct {
		name    string
		enabled bool
		fn      func() error
	}{
		{"conceal", o.ConcealVerbatims, func() error {
			body = vault.Conceal(body, "verbatim", o.BibliographyKeyword)
			return nil
		}},
		{"toc", o.TableOfContents, func() error {
			body = InsertTableOfContents(body)
			return nil
		}},
		{"chapters", o.HeaderLevel < 0, func() error {
			if strings.Contains(o.DocumentClass, "{article}") {
				logger.Warn("promoted headings need a book or report document class",
					logger.String("class", o.DocumentClass))
			}
			body = PromoteHeadings(body, -o.HeaderLevel)
			return nil
		}},
		{"normalize", o.FixUnicode, func() error {
			body = norm.NFC.String(body)
			return nil
		}},
		{"hypertargets", o.RemoveHypertargets, func() error {
			body = RemoveHypertargets(body)
			return nil
		}},
		{"images", o.ForbidImages, func() error {
			body = ForbidImages(body)
			return nil
		}},
		{"vectors", o.FixVectors, func() error {
			body = FixVectors(body)
			return nil
		}},
		{"abstract", o.AllowAbstract, func() error {
			body = WrapAbstract(body)
			return nil
		}},
		{"environments", o.AllowEnvironments, func() error {
			var err error
			body, err = p.engine.Apply(body)
			return err
		}},
		{"proofs", o.AllowProofs, func() error {
			body = Proofs(body, o.SpecialProofs)
			return nil
		}},
		{"tables", o.ModifyTables && !o.KeepLongtables, func() error {
			body, r.result.Tables = EliminateLongtables(body, TableOptions{
				Figuring:  !o.DisallowFigures,
				Float:     o.ImageFloat,
				PageWidth: o.MaxPageLength,
			})
			body = LinkTableReferences(body, r.result.Tables)
			return nil
		}},
		{"tables", o.ModifyTables && o.KeepLongtables, func() error {
			body = RuleLongtables(body)
			return nil
		}},
		{"replacements", len(o.ToReplace) > 0, func() error {
			body = ApplyReplacements(body, o.ToReplace)
			return nil
		}},
		{"alignments", o.AllowAlignments, func() error {
			eq := o.Equations
			if !o.MaxLineAlign {
				eq.MaxLineLength = 0
			}
			body = equation.NewRewriter(eq, labels).ReplaceAll(body)
			return nil
		}},
		{"split", o.AllowAlignments && o.Equations.MaxLineLength >= 1, func() error {
			body = equation.SplitAll(body, o.Equations.MaxLineLength)
			second := equation.Options{AutoAlign: o.Equations.AutoAlign}
			body = equation.NewRewriter(second, nil).ReplaceAll(body)
			return nil
		}},
		{"references", o.Equations.LabelEquations, func() error {
			body = LinkEquationReferences(body, labels.Keys())
			return nil
		}},
		{"figures", o.CenterImages && !o.ForbidImages, func() error {
			body, r.result.Figures = WrapFigures(body, FigureOptions{
				Figuring: !o.DisallowFigures,
				Float:    o.ImageFloat,
			})
			return nil
		}},
		{"primes", o.FixPrimes, func() error {
			body = FixPrimes(body)
			return nil
		}},
		{"derivatives", o.FixDerivatives, func() error {
			body = FixDerivatives(body)
			return nil
		}},
		{"dollars", o.DollarSignEquations, func() error {
			body = DollarSignEquations(body)
			return nil
		}},
		{"unicode", o.FixUnicode, func() error {
			body = FixTextGreek(body)
			return nil
		}},
		{"texttt", o.FixTexttt, func() error {
			body = FixTexttt(body)
			return nil
		}},
		{"combine", o.CombineAligns, func() error {
			body = equation.Combine(body, "align*")
			return nil
		}},
		{"verbatim", o.VerbatimPlugin != PluginNone, func() error {
			body, _ = VerbatimToListing(body, o.VerbatimPlugin, o.VerbatimLang, o.VerbatimOptions)
			return nil
		}},
		{"tikz", o.CenterTikz, func() error {
			body = CenterTikz(body, o.ImageFloat)
			return nil
		}},
		{"citations", o.AllowCitations, func() error {
			bib := vault.Bibliography()
			if bib == "" {
				bib = o.BibData
			}
			var ok bool
			body, ok = ApplyCitations(body, o.BibliographyKeyword, bib, CitationOptions{
				Mode:       o.CitationMode,
				Command:    o.CitationKeyword,
				KeepParens: o.CitationParens,
				NoSecNum:   o.NoSecNum,
			})
			if ok {
				r.result.BibFile = o.BibFileName
				r.result.BibData = bib
			}
			return nil
		}},
		{"subsections", o.SubsectionLimit >= 0, func() error {
			body = LimitSubsections(body, o.SubsectionLimit)
			return nil
		}},
		{"fractions", o.NoUnicodeFractions, func() error {
			body = ReplaceUnicodeFractions(body)
			return nil
		}},
		{"lists", o.NoQuotesInLists, func() error {
			body = UnquoteLists(body)
			return nil
		}},
		{"restore", o.ConcealVerbatims, func() error {
			if missing := vault.Missing(body); len(missing) > 0 {
				logger.Warn("verbatim bodies lost during repair", logger.Int("count", len(missing)))
			}
			body = vault.Restore(body)
			return nil
		}},
		{"quotes", true, func() error {
			body = RegularVerbatimQuotes(body)
			return nil
		}},
	}

	for _, s := range stages {
		if err := r.stage(s.name, s.enabled, s.fn); err != nil {
			logger.Error("repair stage failed", err, logger.String("stage", s.name))
			return nil, err
		}
	}
	body = removeGuard(body)

	_ = r.stage("validate", true, func() error {
		for _, is := range validator.Check(body) {
			logger.Warn(is.Message,
				logger.Int("offset", is.Offset),
				logger.Int("line", is.Line),
				logger.String("kind", is.Kind))
		}
		return nil
	})

	_ = r.stage("balance", true, func() error {
		if !scanner.Balanced(body) {
			logger.Warn("repaired body has unbalanced braces")
		}
		return nil
	})

	out := body
	_ = r.stage("preamble", !doc.Fragment, func() error {
		out = p.assemble(doc, body, r.result.BibFile)
		return nil
	})

	r.result.Text = out
	r.result.Labels = labels.All()
	r.result.Warnings = r.warnings
	logger.Info("repair finished",
		logger.Int("labels", len(r.result.Labels)),
		logger.Int("warnings", len(r.warnings)))
	return r.result, nil
}

// assemble puts the repaired body back between the preamble and the tail.
func (p *Pipeline) assemble(doc document, body, bibFile string) string {
	o := p.opts
	if o.ExcludePreamble {
		return body
	}

	extra := o.ExtraPreamble
	if o.ConditionalPreamble {
		conds := make(map[string]bool, len(o.Conditions)+2)
		for k, v := range o.Conditions {
			conds[k] = v
		}
		conds["citations_enabled"] = bibFile != ""
		conds["contains_longtable"] = strings.Contains(body, `\begin{longtable}`)
		extra = ConditionalPreamble(extra, conds)
	}

	preamble := RewritePreamble(doc.Preamble, PreambleOptions{
		Erase:       o.EraseExistingPreamble,
		Extra:       extra,
		BibPackage:  o.BibPackage,
		BibFile:     bibFile,
		ReplaceFont: o.ReplaceFont,
		NoSecNum:    o.NoSecNum,
		HideComment: o.HideComments,
	})

	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n")
	sb.WriteString(o.StartOfDocText)
	sb.WriteString("\n\n")
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(doc.Tail)
	text := sb.String()

	if o.DocumentClass != "" {
		text = ChangeDocumentClass(text, o.DocumentClass)
	}
	text = fillEmpty(text, "date", o.DefaultDate)
	return fillEmpty(text, "author", o.DefaultAuthor)
}
