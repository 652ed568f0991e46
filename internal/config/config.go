// Package config loads the word2latex options from JSON files, environment
// variables and command line overrides.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"word2latex/internal/environment"
	"word2latex/internal/equation"
	"word2latex/internal/logger"
	"word2latex/internal/transform"
	"word2latex/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name.
	DefaultConfigFileName = "word2latex-config.json"
	// EnvPrefix prefixes the environment variables that override options,
	// e.g. W2L_PDF_ENGINE.
	EnvPrefix = "W2L"
	// DefaultEngine is the default LaTeX engine.
	DefaultEngine = "xelatex"
	// DefaultMaxLineLength is the relative length above which display
	// equations are split.
	DefaultMaxLineLength = 110
)

// Engines are the LaTeX engines the compiler can drive.
var Engines = []string{"pdflatex", "xelatex", "lualatex"}

// Options is the full configuration. Key names follow the preference names
// of existing word2latex configuration files.
type Options struct {
	PreamblePath []string `json:"preamble_path" mapstructure:"preamble_path"`

	AllowProofs         bool   `json:"allow_proofs" mapstructure:"allow_proofs"`
	SpecialProofs       bool   `json:"special_proofs" mapstructure:"special_proofs"`
	AllowCitations      bool   `json:"allow_citations" mapstructure:"allow_citations"`
	AllowNoLongtable    bool   `json:"allow_no_longtable" mapstructure:"allow_no_longtable"`
	AllowAlignments     bool   `json:"allow_alignments" mapstructure:"allow_alignments"`
	ExcludePreamble     bool   `json:"exclude_preamble" mapstructure:"exclude_preamble"`
	CitationMode        string `json:"citation_mode" mapstructure:"citation_mode"`
	DisallowFigures     bool   `json:"disallow_figures" mapstructure:"disallow_figures"`
	ForbidImages        bool   `json:"forbid_images" mapstructure:"forbid_images"`
	DisableRepair       bool   `json:"disable_repair" mapstructure:"disable_repair"`
	HypertargetRemover  bool   `json:"hypertarget_remover" mapstructure:"hypertarget_remover"`
	FixVectors          bool   `json:"fix_vectors" mapstructure:"fix_vectors"`
	DollarSignEquations bool   `json:"dollar_sign_equations" mapstructure:"dollar_sign_equations"`
	CenterImages        bool   `json:"center_images" mapstructure:"center_images"`
	FixPrimeSymbols     bool   `json:"fix_prime_symbols" mapstructure:"fix_prime_symbols"`
	FixDerivatives      bool   `json:"fix_derivatives" mapstructure:"fix_derivatives"`
	FixUnicode          bool   `json:"fix_unicode" mapstructure:"fix_unicode"`
	FixTexttt           bool   `json:"fix_texttt" mapstructure:"fix_texttt"`
	CombineAligns       bool   `json:"combine_aligns" mapstructure:"combine_aligns"`
	ReplaceFont         bool   `json:"replace_font" mapstructure:"replace_font"`

	AllowEnvironments         bool                     `json:"allow_environments" mapstructure:"allow_environments"`
	DisableLegacyEnvironments bool                     `json:"disable_legacy_environments" mapstructure:"disable_legacy_environments"`
	Environments              []string                 `json:"environments" mapstructure:"environments"`
	EnvironmentDefs           []environment.Descriptor `json:"environment_defs" mapstructure:"environment_defs"`
	MaxHeadingSpan            int                      `json:"max_heading_span" mapstructure:"max_heading_span"`

	AutodetectAlignSymbols bool   `json:"autodetect_align_symbols" mapstructure:"autodetect_align_symbols"`
	MaxLineLength          int    `json:"max_line_length" mapstructure:"max_line_length"`
	MaxLineAlign           bool   `json:"max_line_align" mapstructure:"max_line_align"`
	EqnCommentMode         string `json:"eqn_comment_mode" mapstructure:"eqn_comment_mode"`
	LabelEquations         bool   `json:"label_equations" mapstructure:"label_equations"`
	AutoNumbering          bool   `json:"auto_numbering" mapstructure:"auto_numbering"`

	VerbatimLang    string `json:"verbatim_lang" mapstructure:"verbatim_lang"`
	VerbatimPlugin  string `json:"verbatim_plugin" mapstructure:"verbatim_plugin"`
	VerbatimOptions string `json:"verbatim_options" mapstructure:"verbatim_options"`

	StartOfDocText       string `json:"start_of_doc_text" mapstructure:"start_of_doc_text"`
	ErasePandocPreamble  bool   `json:"erase_pandoc_preamble" mapstructure:"erase_pandoc_preamble"`
	NoSecNum             bool   `json:"no_secnum" mapstructure:"no_secnum"`
	ConcealVerbatims     bool   `json:"conceal_verbatims" mapstructure:"conceal_verbatims"`
	CitationBrackets     bool   `json:"citation_brackets" mapstructure:"citation_brackets"`
	BibtexDef            string `json:"bibtex_def" mapstructure:"bibtex_def"`
	CitationKeyword      string `json:"citation_keyword" mapstructure:"citation_keyword"`
	BibliographyKeyword  string `json:"bibliography_keyword" mapstructure:"bibliography_keyword"`
	BibPath              string `json:"bib_path" mapstructure:"bib_path"`
	DisableTableFiguring bool   `json:"disable_table_figuring" mapstructure:"disable_table_figuring"`
	ModifyTables         bool   `json:"modify_tables" mapstructure:"modify_tables"`
	DocumentClass        string `json:"document_class" mapstructure:"document_class"`
	SubsectionLimit      int    `json:"subsection_limit" mapstructure:"subsection_limit"`
	HideComments         bool   `json:"hide_comments" mapstructure:"hide_comments"`
	ImageFloat           string `json:"image_float" mapstructure:"image_float"`
	DefaultDate          string `json:"default_date" mapstructure:"default_date"`
	DefaultAuthor        string `json:"default_author" mapstructure:"default_author"`
	MaxPageLength        int    `json:"max_page_length" mapstructure:"max_page_length"`
	NoUnicodeFractions   bool   `json:"no_unicode_fractions" mapstructure:"no_unicode_fractions"`
	TableOfContents      bool   `json:"table_of_contents" mapstructure:"table_of_contents"`
	AllowAbstract        bool   `json:"allow_abstract" mapstructure:"allow_abstract"`
	CenterTikz           bool   `json:"center_tikz" mapstructure:"center_tikz"`
	NoQuotesInLists      bool   `json:"no_quotes_in_lists" mapstructure:"no_quotes_in_lists"`
	ConditionalPreamble  bool   `json:"conditional_preamble" mapstructure:"conditional_preamble"`
	SmallMargins         bool   `json:"small_margins" mapstructure:"small_margins"`
	BigText              bool   `json:"big_text" mapstructure:"big_text"`

	// ToReplace is read straight from the JSON file; viper lower-cases map
	// keys.
	ToReplace map[string]string `json:"to_replace" mapstructure:"-"`

	PDFEngine         string   `json:"pdf_engine" mapstructure:"pdf_engine"`
	PreventPDFExports bool     `json:"prevent_pdf_exports" mapstructure:"prevent_pdf_exports"`
	HTMLOutput        bool     `json:"html_output" mapstructure:"html_output"`
	Cleanup           bool     `json:"cleanup" mapstructure:"cleanup"`
	ForceShellEscape  bool     `json:"force_shell_escape" mapstructure:"force_shell_escape"`
	StyClsFiles       []string `json:"sty_cls_files" mapstructure:"sty_cls_files"`
	HideStyClsFiles   bool     `json:"hide_sty_cls_files" mapstructure:"hide_sty_cls_files"`
	HeaderLevel       int      `json:"header_level" mapstructure:"header_level"`
	MediaFolderName   string   `json:"media_folder_name" mapstructure:"media_folder_name"`
}

// Defaults returns the default options.
func Defaults() Options {
	return Options{
		AllowProofs:               true,
		AllowCitations:            true,
		AllowNoLongtable:          true,
		AllowAlignments:           true,
		CitationMode:              transform.CitationAPA2,
		HypertargetRemover:        true,
		FixVectors:                true,
		CenterImages:              true,
		FixPrimeSymbols:           true,
		FixDerivatives:            true,
		FixUnicode:                true,
		FixTexttt:                 true,
		CombineAligns:             true,
		ReplaceFont:               true,
		AllowEnvironments:         true,
		DisableLegacyEnvironments: true,
		MaxHeadingSpan:            environment.DefaultMaxHeadingSpan,
		AutodetectAlignSymbols:    true,
		MaxLineLength:             DefaultMaxLineLength,
		MaxLineAlign:              true,
		EqnCommentMode:            "tag",
		LabelEquations:            true,
		VerbatimPlugin:            transform.PluginMinted,
		ConcealVerbatims:          true,
		BibtexDef:                 `\usepackage{biblatex}`,
		CitationKeyword:           "cite",
		BibliographyKeyword:       "Bibliography",
		ModifyTables:              true,
		DocumentClass:             `\documentclass[12pt]{article}`,
		SubsectionLimit:           -1,
		HideComments:              true,
		ImageFloat:                "H",
		MaxPageLength:             35,
		NoUnicodeFractions:        true,
		AllowAbstract:             true,
		CenterTikz:                true,
		NoQuotesInLists:           true,
		ConditionalPreamble:       true,
		SmallMargins:              true,
		BigText:                   true,
		PDFEngine:                 DefaultEngine,
		Cleanup:                   true,
		MediaFolderName:           "latex_images_",
	}
}

// Derive applies the cross-field rules: automatic numbering implies hidden
// comments with labels, minted without a language falls back to plain
// verbatim, and an unknown engine falls back to the default one.
func Derive(o Options) Options {
	if o.AutoNumbering {
		o.LabelEquations = true
		o.EqnCommentMode = "hidden"
	}
	if o.VerbatimPlugin == transform.PluginMinted && o.VerbatimLang == "" {
		o.VerbatimPlugin = transform.PluginNone
	}
	if !contains(Engines, o.PDFEngine) {
		o.PDFEngine = DefaultEngine
	}
	if o.DocumentClass != "" && !strings.HasPrefix(o.DocumentClass, `\`) {
		o.DocumentClass = `\documentclass{` + o.DocumentClass + `}`
	}
	if o.MaxHeadingSpan == 0 {
		o.MaxHeadingSpan = environment.DefaultMaxHeadingSpan
	}
	return o
}

// Validate reports option values no stage can work with.
func (o Options) Validate() error {
	if _, err := equation.ParseCommentMode(o.EqnCommentMode); err != nil {
		return err
	}
	switch strings.ToLower(o.CitationMode) {
	case transform.CitationAPA1, transform.CitationAPA2, transform.CitationMLA:
	default:
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown citation mode", o.CitationMode, nil)
	}
	switch o.VerbatimPlugin {
	case transform.PluginNone, transform.PluginListings, transform.PluginMinted:
	default:
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown verbatim plugin", o.VerbatimPlugin, nil)
	}
	if o.HeaderLevel < -2 || o.HeaderLevel > 2 {
		return types.NewAppErrorWithDetails(types.ErrConfig, "header level out of range", "", nil)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Load reads options from the JSON file at path, applies W2L_ environment
// variables and then overrides, and returns the derived, validated result.
// An empty path or a missing file yields the defaults.
func Load(path string, overrides map[string]interface{}) (Options, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := setDefaults(v, Defaults()); err != nil {
		return Options{}, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var replace map[string]string
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			logger.Info("config file not found, using defaults", logger.String("path", path))
		case err != nil:
			logger.Error("failed to read config file", err, logger.String("path", path))
			return Options{}, types.NewAppError(types.ErrConfig, "failed to read config file", err)
		default:
			if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
				return Options{}, types.NewAppErrorWithDetails(types.ErrConfig, "invalid config file", path, err)
			}
			var raw struct {
				ToReplace map[string]string `json:"to_replace"`
			}
			if err := json.Unmarshal(data, &raw); err == nil {
				replace = raw.ToReplace
			}
		}
	}

	for key, value := range overrides {
		if key == "to_replace" {
			if m, ok := value.(map[string]string); ok {
				replace = m
			}
			continue
		}
		v.Set(key, value)
	}

	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, types.NewAppError(types.ErrConfig, "failed to decode options", err)
	}
	o.ToReplace = replace

	o = Derive(o)
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	logger.Debug("options loaded",
		logger.String("path", path),
		logger.String("engine", o.PDFEngine),
		logger.String("eqnCommentMode", o.EqnCommentMode))
	return o, nil
}

// setDefaults registers every field of d as a viper default so that
// environment variables can override it.
func setDefaults(v *viper.Viper, d Options) error {
	data, err := json.Marshal(d)
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to encode defaults", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return types.NewAppError(types.ErrInternal, "failed to encode defaults", err)
	}
	for key, value := range m {
		if key == "to_replace" {
			continue
		}
		v.SetDefault(key, value)
	}
	return nil
}

// PipelineOptions converts the configuration into transform options. It
// reads the preamble files and parses the compact environment entries.
func (o Options) PipelineOptions() (transform.Options, error) {
	mode, err := equation.ParseCommentMode(o.EqnCommentMode)
	if err != nil {
		return transform.Options{}, err
	}

	envs := append([]environment.Descriptor(nil), o.EnvironmentDefs...)
	parsed, err := environment.ParseEntries(o.Environments)
	if err != nil {
		return transform.Options{}, err
	}
	envs = append(envs, parsed...)

	extra, err := readPreambles(o.PreamblePath)
	if err != nil {
		return transform.Options{}, err
	}

	conds, err := o.conditions()
	if err != nil {
		return transform.Options{}, err
	}

	var bib string
	if o.BibPath != "" {
		data, err := os.ReadFile(o.BibPath)
		if err != nil {
			return transform.Options{}, types.NewAppErrorWithDetails(types.ErrFileNotFound,
				"failed to read bibliography", o.BibPath, err)
		}
		bib = string(data)
	}

	return transform.Options{
		ConcealVerbatims:    o.ConcealVerbatims,
		BibliographyKeyword: o.BibliographyKeyword,
		TableOfContents:     o.TableOfContents,
		HeaderLevel:         o.HeaderLevel,
		AllowAbstract:       o.AllowAbstract,
		RemoveHypertargets:  o.HypertargetRemover,
		ForbidImages:        o.ForbidImages,
		FixVectors:          o.FixVectors,
		AllowEnvironments:   o.AllowEnvironments,
		LegacyEnvironments:  !o.DisableLegacyEnvironments,
		Environments:        envs,
		MaxHeadingSpan:      o.MaxHeadingSpan,
		AllowProofs:         o.AllowProofs,
		SpecialProofs:       o.SpecialProofs,
		ModifyTables:        o.ModifyTables,
		KeepLongtables:      !o.AllowNoLongtable,
		DisallowFigures:     o.DisallowFigures || o.DisableTableFiguring,
		ImageFloat:          o.ImageFloat,
		MaxPageLength:       o.MaxPageLength,
		ToReplace:           o.ToReplace,
		AllowAlignments:     o.AllowAlignments,
		Equations: equation.Options{
			AutoAlign:      o.AutodetectAlignSymbols,
			MaxLineLength:  o.MaxLineLength,
			Comments:       mode,
			LabelEquations: o.LabelEquations,
		},
		MaxLineAlign:          o.MaxLineAlign,
		CenterImages:          o.CenterImages,
		FixPrimes:             o.FixPrimeSymbols,
		FixDerivatives:        o.FixDerivatives,
		DollarSignEquations:   o.DollarSignEquations,
		FixUnicode:            o.FixUnicode,
		FixTexttt:             o.FixTexttt,
		CombineAligns:         o.CombineAligns,
		VerbatimPlugin:        o.VerbatimPlugin,
		VerbatimLang:          o.VerbatimLang,
		VerbatimOptions:       o.VerbatimOptions,
		CenterTikz:            o.CenterTikz,
		AllowCitations:        o.AllowCitations,
		CitationMode:          strings.ToLower(o.CitationMode),
		CitationKeyword:       o.CitationKeyword,
		CitationParens:        o.CitationBrackets,
		BibFileName:           "citations.bib",
		BibData:               bib,
		BibPackage:            o.BibtexDef,
		SubsectionLimit:       o.SubsectionLimit,
		NoUnicodeFractions:    o.NoUnicodeFractions,
		NoQuotesInLists:       o.NoQuotesInLists,
		ExcludePreamble:       o.ExcludePreamble,
		EraseExistingPreamble: o.ErasePandocPreamble,
		ExtraPreamble:         extra,
		ReplaceFont:           o.ReplaceFont,
		NoSecNum:              o.NoSecNum,
		HideComments:          o.HideComments,
		StartOfDocText:        o.StartOfDocText,
		DocumentClass:         o.DocumentClass,
		DefaultDate:           o.DefaultDate,
		DefaultAuthor:         o.DefaultAuthor,
		ConditionalPreamble:   o.ConditionalPreamble,
		Conditions:            conds,
	}, nil
}

// conditions maps every option key to a truth value for the conditional
// preamble: strings, lists and maps hold when non-empty, numbers when
// non-zero.
func (o Options) conditions() (map[string]bool, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to encode options", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to encode options", err)
	}
	conds := make(map[string]bool, len(m))
	for key, value := range m {
		switch v := value.(type) {
		case bool:
			conds[key] = v
		case string:
			conds[key] = v != ""
		case float64:
			conds[key] = v != 0
		case []interface{}:
			conds[key] = len(v) > 0
		case map[string]interface{}:
			conds[key] = len(v) > 0
		default:
			conds[key] = false
		}
	}
	return conds, nil
}

func readPreambles(paths []string) (string, error) {
	var sb strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			logger.Error("failed to read preamble", err, logger.String("path", p))
			return "", types.NewAppErrorWithDetails(types.ErrFileNotFound, "failed to read preamble", p, err)
		}
		sb.Write(data)
		if !bytes.HasSuffix(data, []byte("\n")) {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// Manager keeps the options of one configuration file.
type Manager struct {
	configPath string
	options    Options
}

// NewManager creates a Manager. An empty configPath means the default file
// in the user's config directory.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "word2latex", DefaultConfigFileName)
	}

	logger.Info("config manager initialized", logger.String("configPath", configPath))
	return &Manager{configPath: configPath, options: Derive(Defaults())}, nil
}

// Load reads the configuration file with the given overrides applied.
func (m *Manager) Load(overrides map[string]interface{}) error {
	o, err := Load(m.configPath, overrides)
	if err != nil {
		return err
	}
	m.options = o
	return nil
}

// Save writes the current options to the configuration file.
func (m *Manager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.options, "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved successfully", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns the current options.
func (m *Manager) GetConfig() Options {
	return m.options
}

// SetConfig replaces the current options.
func (m *Manager) SetConfig(o Options) {
	m.options = Derive(o)
}

// GetConfigPath returns the path of the configuration file.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
