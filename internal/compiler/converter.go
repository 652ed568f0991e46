package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"word2latex/internal/logger"
	"word2latex/internal/types"
)

// DefaultMediaFolder prefixes the folder pandoc extracts images into.
const DefaultMediaFolder = "latex_images_"

// Converter turns Word documents into standalone LaTeX with pandoc.
type Converter struct {
	timeout     time.Duration
	mediaPrefix string
	headerLevel int

	run runFunc
}

// NewConverter creates a Converter. A positive headerLevel shifts headings
// down, so 1 turns level one headings into level two; other values leave
// pandoc's levels alone.
func NewConverter(timeout time.Duration, mediaPrefix string, headerLevel int) *Converter {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if mediaPrefix == "" {
		mediaPrefix = DefaultMediaFolder
	}
	return &Converter{
		timeout:     timeout,
		mediaPrefix: mediaPrefix,
		headerLevel: headerLevel,
		run:         runCommand,
	}
}

// PandocSuffix ends the name of the raw pandoc output, which the repaired
// document must not overwrite.
const PandocSuffix = ".pandoc.tex"

// Convert runs pandoc on docxPath and writes the raw .tex next to it, or
// into outputDir when set. Media are extracted into a folder named after
// the document.
func (c *Converter) Convert(ctx context.Context, docxPath string, outputDir string) (*types.ConvertResult, error) {
	logger.Info("converting word document", logger.String("path", docxPath))

	if _, err := os.Stat(docxPath); err != nil {
		logger.Error("word document not found", err, logger.String("path", docxPath))
		return &types.ConvertResult{
			Success:  false,
			ErrorMsg: fmt.Sprintf("word document not found: %s", docxPath),
		}, types.NewAppError(types.ErrFileNotFound, "word document not found", err)
	}

	absDocx, err := filepath.Abs(docxPath)
	if err != nil {
		return &types.ConvertResult{
			Success:  false,
			ErrorMsg: fmt.Sprintf("failed to get absolute path: %v", err),
		}, types.NewAppError(types.ErrInternal, "failed to get absolute path", err)
	}
	dir := filepath.Dir(absDocx)
	if outputDir != "" {
		if dir, err = filepath.Abs(outputDir); err != nil {
			return &types.ConvertResult{
				Success:  false,
				ErrorMsg: fmt.Sprintf("failed to get absolute output path: %v", err),
			}, types.NewAppError(types.ErrInternal, "failed to get absolute output path", err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &types.ConvertResult{
				Success:  false,
				ErrorMsg: fmt.Sprintf("failed to create output directory: %v", err),
			}, types.NewAppError(types.ErrInternal, "failed to create output directory", err)
		}
	}

	stem := strings.TrimSuffix(filepath.Base(absDocx), filepath.Ext(absDocx))
	media := c.mediaPrefix + strings.ReplaceAll(stem, " ", "_")
	texPath := filepath.Join(dir, stem+PandocSuffix)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run(ctx, dir, nil, "pandoc", buildPandocArgs(absDocx, texPath, media, c.headerLevel)...)
	if ctx.Err() == context.DeadlineExceeded {
		err = ctx.Err()
	}
	if err != nil {
		logger.Error("pandoc failed", err, logger.String("path", docxPath))
		return &types.ConvertResult{
			Success:  false,
			Log:      out,
			ErrorMsg: fmt.Sprintf("pandoc failed: %v", err),
		}, types.NewAppError(types.ErrConvert, "pandoc failed", err)
	}

	if _, err := os.Stat(texPath); err != nil {
		return &types.ConvertResult{
			Success:  false,
			Log:      out,
			ErrorMsg: "pandoc produced no output",
		}, types.NewAppErrorWithDetails(types.ErrConvert, "pandoc produced no output", texPath, err)
	}

	logger.Info("conversion completed", logger.String("texPath", texPath))
	return &types.ConvertResult{
		Success:  true,
		TexPath:  texPath,
		MediaDir: filepath.Join(dir, media),
		Log:      out,
	}, nil
}

func buildPandocArgs(docxPath, texPath, media string, headerLevel int) []string {
	args := []string{"--extract-media=" + media, "-s"}
	if headerLevel >= 1 {
		args = append(args, fmt.Sprintf("--shift-heading-level-by=%d", headerLevel))
	}
	return append(args, docxPath, "-o", texPath)
}

// ExportHTML renders the repaired document as a standalone HTML page next
// to it, with KaTeX for the math. bibPath, when set, resolves citations.
func (c *Converter) ExportHTML(ctx context.Context, texPath, bibPath string) (string, error) {
	if _, err := os.Stat(texPath); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrFileNotFound, "latex file not found", texPath, err)
	}
	dir := filepath.Dir(texPath)
	htmlPath := strings.TrimSuffix(texPath, filepath.Ext(texPath)) + ".html"

	args := []string{filepath.Base(texPath), "-f", "latex", "-t", "html", "--katex", "-s", "-o", filepath.Base(htmlPath)}
	if bibPath != "" {
		args = append(args, "--citeproc", "--bibliography="+bibPath)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	logger.Info("exporting html", logger.String("path", htmlPath))
	_, err := c.run(ctx, dir, nil, "pandoc", args...)
	if ctx.Err() == context.DeadlineExceeded {
		err = ctx.Err()
	}
	if err != nil {
		logger.Error("html export failed", err, logger.String("path", texPath))
		return "", types.NewAppError(types.ErrConvert, "html export failed", err)
	}
	if _, err := os.Stat(htmlPath); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrConvert, "pandoc produced no html", htmlPath, err)
	}
	return htmlPath, nil
}
