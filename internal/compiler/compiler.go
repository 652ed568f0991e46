// Package compiler drives the external tools around the repair pipeline:
// pandoc for the Word conversion and a LaTeX engine for the PDF.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"word2latex/internal/logger"
	"word2latex/internal/types"
)

const (
	// CompilerPDFLaTeX is the pdflatex compiler
	CompilerPDFLaTeX = "pdflatex"
	// CompilerXeLaTeX is the xelatex compiler
	CompilerXeLaTeX = "xelatex"
	// CompilerLuaLaTeX is the lualatex compiler
	CompilerLuaLaTeX = "lualatex"
)

// DefaultTimeout is the default timeout of a single tool run.
const DefaultTimeout = 5 * time.Minute

// maxPasses bounds the engine runs of one compilation.
const maxPasses = 3

// runFunc runs one external command in dir and returns its combined output.
type runFunc func(ctx context.Context, dir string, env []string, name string, args ...string) (string, error)

// LaTeXCompiler compiles a repaired document to PDF.
type LaTeXCompiler struct {
	compiler    string
	timeout     time.Duration
	shellEscape bool

	run     runFunc
	inspect func(pdfPath string) (Inspection, error)
}

// NewLaTeXCompiler creates a LaTeXCompiler. Unknown engines fall back to
// xelatex.
func NewLaTeXCompiler(compiler string, timeout time.Duration, forceShellEscape bool) *LaTeXCompiler {
	switch compiler {
	case CompilerPDFLaTeX, CompilerXeLaTeX, CompilerLuaLaTeX:
	default:
		compiler = CompilerXeLaTeX
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &LaTeXCompiler{
		compiler:    compiler,
		timeout:     timeout,
		shellEscape: forceShellEscape,
		run:         runCommand,
		inspect:     Inspect,
	}
}

// Compile runs the engine on texPath, writing into outputDir (the directory
// of texPath when empty). A bibliography tool runs between the first two
// passes when the first pass asked for one, and a third pass runs when the
// PDF still shows unresolved references.
func (c *LaTeXCompiler) Compile(ctx context.Context, texPath string, outputDir string) (*types.CompileResult, error) {
	logger.Info("compiling tex file", logger.String("texPath", texPath), logger.String("compiler", c.compiler))

	content, err := os.ReadFile(texPath)
	if err != nil {
		logger.Error("failed to read tex file", err, logger.String("texPath", texPath))
		return &types.CompileResult{
			Success:  false,
			ErrorMsg: fmt.Sprintf("failed to read tex file: %v", err),
		}, types.NewAppError(types.ErrFileNotFound, "failed to read tex file", err)
	}

	absTexPath, err := filepath.Abs(texPath)
	if err != nil {
		return &types.CompileResult{
			Success:  false,
			ErrorMsg: fmt.Sprintf("failed to get absolute path: %v", err),
		}, types.NewAppError(types.ErrInternal, "failed to get absolute path", err)
	}
	texDir := filepath.Dir(absTexPath)
	texFileName := filepath.Base(absTexPath)
	texBaseName := strings.TrimSuffix(texFileName, filepath.Ext(texFileName))

	absOutputDir := texDir
	if outputDir != "" {
		if absOutputDir, err = filepath.Abs(outputDir); err != nil {
			return &types.CompileResult{
				Success:  false,
				ErrorMsg: fmt.Sprintf("failed to get absolute output path: %v", err),
			}, types.NewAppError(types.ErrInternal, "failed to get absolute output path", err)
		}
		if err := os.MkdirAll(absOutputDir, 0755); err != nil {
			logger.Error("failed to create output directory", err, logger.String("outputDir", absOutputDir))
			return &types.CompileResult{
				Success:  false,
				ErrorMsg: fmt.Sprintf("failed to create output directory: %v", err),
			}, types.NewAppError(types.ErrInternal, "failed to create output directory", err)
		}
	}

	escape := c.shellEscape || needsShellEscape(string(content))
	args := buildCompilerArgs(texFileName, absOutputDir, texDir, escape)
	env := []string{searchPath("TEXINPUTS", ".", texDir)}

	var logs []string
	passes := 0
	pass := func() error {
		passes++
		logger.Debug("compilation pass", logger.Int("pass", passes))
		out, err := c.runTimed(ctx, texDir, env, c.compiler, args...)
		logs = append(logs, fmt.Sprintf("=== Pass %d ===", passes), out)
		if err != nil && !isExitError(err) {
			return err
		}
		return nil
	}

	if err := pass(); err != nil {
		return c.failed(logs, passes, "failed to run "+c.compiler, err)
	}

	if tool, args := bibliographyTool(absOutputDir, texBaseName); tool != "" {
		logger.Debug("running bibliography tool", logger.String("tool", tool))
		bibEnv := []string{
			searchPath("BIBINPUTS", texDir, absOutputDir),
			searchPath("BSTINPUTS", texDir, absOutputDir),
		}
		out, err := c.runTimed(ctx, absOutputDir, bibEnv, tool, args...)
		logs = append(logs, "=== "+tool+" ===", out)
		if err != nil {
			logger.Warn("bibliography tool had errors", logger.String("tool", tool), logger.Err(err))
		}
	}

	if err := pass(); err != nil {
		return c.failed(logs, passes, "failed to run "+c.compiler, err)
	}

	pdfPath := filepath.Join(absOutputDir, texBaseName+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		logger.Error("PDF file was not generated", nil, logger.String("expectedPath", pdfPath))
		return c.failed(logs, passes, "PDF file was not generated", nil)
	}

	info, err := c.inspect(pdfPath)
	for err == nil && info.Unresolved && passes < maxPasses {
		logger.Debug("unresolved references in PDF, running another pass")
		if err = pass(); err == nil {
			info, err = c.inspect(pdfPath)
		}
	}
	if err != nil {
		return c.failed(logs, passes, "generated PDF is invalid", err)
	}
	if info.Unresolved {
		logger.Warn("PDF still contains unresolved references", logger.String("pdfPath", pdfPath))
	}

	logger.Info("compilation completed successfully",
		logger.String("pdfPath", pdfPath),
		logger.Int("pages", info.PageCount),
		logger.Int("passes", passes))
	return &types.CompileResult{
		Success:   true,
		PDFPath:   pdfPath,
		PageCount: info.PageCount,
		Passes:    passes,
		Log:       strings.Join(logs, "\n"),
	}, nil
}

func (c *LaTeXCompiler) failed(logs []string, passes int, msg string, cause error) (*types.CompileResult, error) {
	return &types.CompileResult{
		Success:  false,
		Passes:   passes,
		Log:      strings.Join(logs, "\n"),
		ErrorMsg: msg,
	}, types.NewAppError(types.ErrCompile, msg, cause)
}

func (c *LaTeXCompiler) runTimed(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run(ctx, dir, env, name, args...)
	if ctx.Err() == context.DeadlineExceeded {
		return out, types.NewAppError(types.ErrCompile, name+" timed out", ctx.Err())
	}
	return out, err
}

// needsShellEscape reports whether the document loads minted, which shells
// out to pygments.
func needsShellEscape(content string) bool {
	return mintedPackage.MatchString(content)
}

var mintedPackage = regexp.MustCompile(`\\usepackage(\[[^\]]*\])?\{minted\}`)

// bibliographyTool picks the tool the first pass asked for: biber when
// biblatex wrote a control file, bibtex when the aux file carries
// citation data.
func bibliographyTool(outputDir, baseName string) (string, []string) {
	if _, err := os.Stat(filepath.Join(outputDir, baseName+".bcf")); err == nil {
		return "biber", []string{baseName}
	}
	aux, err := os.ReadFile(filepath.Join(outputDir, baseName+".aux"))
	if err != nil {
		return "", nil
	}
	if bytes.Contains(aux, []byte(`\citation{`)) || bytes.Contains(aux, []byte(`\bibdata{`)) {
		return "bibtex", []string{baseName}
	}
	return "", nil
}

// buildCompilerArgs builds the command line arguments for the LaTeX compiler
func buildCompilerArgs(texFileName string, outputDir string, texDir string, shellEscape bool) []string {
	args := []string{"-interaction=nonstopmode"}
	if shellEscape {
		args = append(args, "-shell-escape")
	}
	if outputDir != "" && outputDir != texDir {
		args = append(args, fmt.Sprintf("-output-directory=%s", outputDir))
	}
	return append(args, texFileName)
}

// searchPath builds a TeX search path variable. The trailing separator keeps
// the default paths.
func searchPath(name string, dirs ...string) string {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	return name + "=" + strings.Join(dirs, sep) + sep
}

func isExitError(err error) bool {
	_, ok := err.(*exec.ExitError)
	return ok
}

// runCommand is the runFunc used outside tests.
func runCommand(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	hideWindowOnWindows(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return combineOutput(stdout.String(), stderr.String()), err
}

// combineOutput combines stdout and stderr into a single log string
func combineOutput(stdout, stderr string) string {
	var parts []string
	if stdout != "" {
		parts = append(parts, stdout)
	}
	if stderr != "" {
		parts = append(parts, stderr)
	}
	return strings.Join(parts, "\n")
}

// GetCompiler returns the engine name.
func (c *LaTeXCompiler) GetCompiler() string {
	return c.compiler
}

// GetTimeout returns the per-run timeout.
func (c *LaTeXCompiler) GetTimeout() time.Duration {
	return c.timeout
}
