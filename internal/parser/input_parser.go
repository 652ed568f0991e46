// Package parser identifies the kind of document handed to the converter.
package parser

import (
	"path/filepath"
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/types"
)

// ParseInput determines the source type of input.
//
// Input type rules:
// - Ends with .docx (case-insensitive) → Docx type
// - Ends with .tex (case-insensitive) → Tex type
// - Otherwise → error (invalid input)
func ParseInput(input string) (types.SourceType, error) {
	logger.Debug("parsing input", logger.String("input", input))

	input = strings.TrimSpace(input)
	if input == "" {
		logger.Warn("parse input failed: empty input")
		return "", types.NewAppError(types.ErrInvalidInput, "input must not be empty", nil)
	}

	switch {
	case isDocx(input):
		logger.Info("input identified as Word document", logger.String("input", input))
		return types.SourceTypeDocx, nil
	case isTex(input):
		logger.Info("input identified as LaTeX source", logger.String("input", input))
		return types.SourceTypeTex, nil
	}

	logger.Warn("invalid input format", logger.String("input", input))
	return "", types.NewAppErrorWithDetails(types.ErrInvalidInput, "input must be a .docx or .tex file", input, nil)
}

// Stem returns the base name of input without its extension, with spaces
// replaced so that the engine and bibliography tools accept it.
func Stem(input string) string {
	base := filepath.Base(strings.TrimSpace(input))
	return strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
}

func isDocx(input string) bool {
	return strings.EqualFold(filepath.Ext(input), ".docx")
}

func isTex(input string) bool {
	return strings.EqualFold(filepath.Ext(input), ".tex")
}
