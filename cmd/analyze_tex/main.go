// Command analyze_tex compares converter output with its repaired version
// and reports structural differences and validation issues.
package main

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"word2latex/internal/validator"
)

var patterns = map[string]*regexp.Regexp{
	"section":       regexp.MustCompile(`\\section\*?\{`),
	"subsection":    regexp.MustCompile(`\\subsection\*?\{`),
	"subsubsection": regexp.MustCompile(`\\subsubsection\*?\{`),
	"figure":        regexp.MustCompile(`\\begin\{figure\}`),
	"table":         regexp.MustCompile(`\\begin\{table\}`),
	"longtable":     regexp.MustCompile(`\\begin\{longtable\}`),
	"align":         regexp.MustCompile(`\\begin\{align\*?\}`),
	"display math":  regexp.MustCompile(`\\\[`),
	"label":         regexp.MustCompile(`\\label\{`),
	"eqref":         regexp.MustCompile(`\\eqref\{`),
	"cite":          regexp.MustCompile(`\\cite\{`),
	"verbatim":      regexp.MustCompile(`\\begin\{verbatim\}`),
	"minted":        regexp.MustCompile(`\\begin\{minted\}`),
}

var rootCmd = &cobra.Command{
	Use:   "analyze_tex <converted.tex> <repaired.tex>",
	Short: "Compare converter output with repaired LaTeX",
	Args:  cobra.ExactArgs(2),
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	orig, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading converted file: %w", err)
	}
	repaired, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading repaired file: %w", err)
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "=== File Statistics ===")
	fmt.Fprintf(out, "Converted: %d lines, %d bytes\n", strings.Count(string(orig), "\n")+1, len(orig))
	fmt.Fprintf(out, "Repaired:  %d lines, %d bytes\n", strings.Count(string(repaired), "\n")+1, len(repaired))

	fmt.Fprintln(out, "\n=== Structure Comparison ===")
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		re := patterns[name]
		a := len(re.FindAllIndex(orig, -1))
		b := len(re.FindAllIndex(repaired, -1))
		if a == 0 && b == 0 {
			continue
		}
		diff := ""
		if a != b {
			diff = fmt.Sprintf(" (%+d)", b-a)
		}
		fmt.Fprintf(out, "%-14s %4d -> %4d%s\n", name+":", a, b, diff)
	}

	issues := validator.Check(string(repaired))
	fmt.Fprintf(out, "\n=== Validation (%d issues) ===\n", len(issues))
	for _, is := range issues {
		fmt.Fprintf(out, "%s:%d:%d: %s: %s\n", args[1], is.Line, is.Column, is.Kind, is.Message)
	}
	if len(issues) > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d validation issues", len(issues))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
