package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"word2latex/internal/logger"
	"word2latex/internal/types"
)

var version = "0.3.0"

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"engine":         "pdf_engine",
	"no-pdf":         "prevent_pdf_exports",
	"no-cleanup":     "cleanup",
	"shell-escape":   "force_shell_escape",
	"header-level":   "header_level",
	"fragment":       "exclude_preamble",
	"bib":            "bib_path",
	"preamble":       "preamble_path",
	"comment-mode":   "eqn_comment_mode",
	"max-line":       "max_line_length",
	"citation-mode":  "citation_mode",
	"verbatim-lang":  "verbatim_lang",
	"document-class": "document_class",
	"toc":            "table_of_contents",
	"html":           "html_output",
}

var rootCmd = &cobra.Command{
	Use:   "word2latex",
	Short: "Turn Word documents into clean, compilable LaTeX",
	Long: `word2latex converts .docx files with pandoc and repairs the result:
display equations become aligned, labelled environments, long tables become
floats, bibliographies become biblatex citations, and the preamble is
rewritten for the configured engine.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <in.docx|in.tex>",
	Short: "Convert, repair and compile a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var repairCmd = &cobra.Command{
	Use:   "repair <in.tex>",
	Short: "Repair converter output without compiling",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepair,
}

var compileCmd = &cobra.Command{
	Use:   "compile <in.tex>",
	Short: "Compile a repaired document to PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as JSON",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "configuration file (default ~/.config/word2latex/word2latex-config.json)")
	pf.String("log-file", "", "write the log to this file")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.BoolP("verbose", "v", false, "also log to stderr")
	pf.StringToString("set", nil, "override any configuration key, e.g. --set subsection_limit=2")

	pf.String("engine", "", "LaTeX engine: pdflatex, xelatex, lualatex")
	pf.Bool("shell-escape", false, "always pass -shell-escape to the engine")
	pf.Int("header-level", 0, "shift headings down by 1 or 2 levels, or promote them with -1 or -2")
	pf.Bool("toc", false, "insert a table of contents")
	pf.Bool("fragment", false, "emit the document body only")
	pf.String("bib", "", "bibliography file used when the document has none")
	pf.StringSlice("preamble", nil, "extra preamble files")
	pf.String("comment-mode", "", "equation comment mode: align, shortintertext, tag, hidden, none")
	pf.Int("max-line", 0, "relative length above which equations are split")
	pf.String("citation-mode", "", "citation mode: apa1, apa2, mla")
	pf.String("verbatim-lang", "", "language of verbatim blocks")
	pf.String("document-class", "", "document class line")

	convertCmd.Flags().StringP("output-dir", "o", "", "output directory (default: next to the input)")
	convertCmd.Flags().Bool("no-pdf", false, "stop after the repaired .tex")
	convertCmd.Flags().Bool("no-cleanup", false, "keep auxiliary files")
	convertCmd.Flags().Bool("html", false, "also render the repaired document to HTML")
	compileCmd.Flags().StringP("output-dir", "o", "", "output directory (default: next to the input)")
	compileCmd.Flags().Bool("no-cleanup", false, "keep auxiliary files")
	repairCmd.Flags().StringP("output", "o", "", "output file (default: <input>-w2l.tex)")

	viper.SetEnvPrefix("W2L")
	viper.BindPFlag("config", pf.Lookup("config"))
	viper.BindPFlag("log_file", pf.Lookup("log-file"))
	viper.BindPFlag("log_level", pf.Lookup("log-level"))
	viper.BindEnv("config")
	viper.BindEnv("log_file")
	viper.BindEnv("log_level")

	rootCmd.AddCommand(convertCmd, repairCmd, compileCmd, configCmd)
}

func initLogging(cmd *cobra.Command, args []string) error {
	cfg := logger.DefaultConfig()
	cfg.LogFilePath = viper.GetString("log_file")
	cfg.Level = logger.ParseLevel(viper.GetString("log_level"))
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Console = os.Stderr
	}
	return logger.Init(cfg)
}

// overrides collects the configuration keys set on the command line.
func overrides(cmd *cobra.Command) map[string]interface{} {
	out := map[string]interface{}{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		switch f.Name {
		case "no-pdf":
			out[key] = f.Value.String() == "true"
		case "no-cleanup":
			out[key] = f.Value.String() != "true"
		case "preamble":
			v, _ := cmd.Flags().GetStringSlice(f.Name)
			out[key] = v
		default:
			out[key] = f.Value.String()
		}
	})
	if set, err := cmd.Flags().GetStringToString("set"); err == nil {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

func newApp(cmd *cobra.Command) (*App, error) {
	return NewApp(viper.GetString("config"), overrides(cmd))
}

func runConvert(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := app.Process(ctx, args[0], outputDir)
	if res != nil {
		report(cmd, res)
	}
	return err
}

func runRepair(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")
	res, err := app.Repair(args[0], out)
	if err != nil {
		return err
	}
	report(cmd, res)
	return nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cr, err := app.Compile(ctx, args[0], outputDir)
	if err != nil {
		if cr != nil && cr.Log != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), cr.Log)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d pages, %d passes)\n", cr.PDFPath, cr.PageCount, cr.Passes)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(app.GetConfig(), "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to encode configuration", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func report(cmd *cobra.Command, res *types.ProcessResult) {
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: [%s] %s (offset %d)\n", w.Stage, w.Message, w.Offset)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.TexPath)
	if res.BibPath != "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.BibPath)
	}
	if res.HTMLPath != "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.HTMLPath)
	}
	if res.PDFPath != "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.PDFPath)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
