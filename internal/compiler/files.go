package compiler

import (
	"os"
	"path/filepath"
	"strings"

	"word2latex/internal/logger"
	"word2latex/internal/types"
)

// TrashFolder receives the auxiliary files of a compilation.
const TrashFolder = "TRASH_LATEX_FILES"

// styleExtensions are the support files a preamble may need next to the
// document.
var styleExtensions = []string{".sty", ".cls", ".def", ".bst"}

// auxSuffixes are the files LaTeX and its tools leave behind.
var auxSuffixes = []string{
	".aux", ".lof", ".log", ".lot", ".fls", ".toc", ".out", ".fmt", ".fot",
	".cb", ".cb2", ".lb", ".bbl", ".bcf", ".blg", "-blx.aux", "-blx.bib",
	".run.xml", ".fdb_latexmk", ".synctex", ".synctex(busy)", ".synctex.gz",
	".synctex.gz(busy)", ".pdfsync", ".thm",
}

// CopyStyleFiles copies style and class files into dir. Files already in dir
// are left alone. It returns the names of the copies.
func CopyStyleFiles(files []string, dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to get absolute path", err)
	}

	var copied []string
	for _, file := range files {
		if !hasSuffix(file, styleExtensions) {
			return copied, types.NewAppErrorWithDetails(types.ErrConfig,
				"style files must end with .sty, .cls, .bst or .def", file, nil)
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			return copied, types.NewAppError(types.ErrInternal, "failed to get absolute path", err)
		}
		if filepath.Dir(abs) == absDir {
			continue
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return copied, types.NewAppErrorWithDetails(types.ErrFileNotFound, "failed to read style file", file, err)
		}
		name := filepath.Base(abs)
		if err := os.WriteFile(filepath.Join(absDir, name), data, 0644); err != nil {
			return copied, types.NewAppErrorWithDetails(types.ErrInternal, "failed to copy style file", file, err)
		}
		logger.Debug("copied style file", logger.String("file", name))
		copied = append(copied, name)
	}
	return copied, nil
}

// Cleanup moves the auxiliary files of baseName in dir, plus extra, into
// the trash folder. It returns the moved names.
func Cleanup(dir, baseName string, extra []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, types.NewAppError(types.ErrFileNotFound, "failed to read output directory", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, baseName) {
			continue
		}
		if hasSuffix(name, auxSuffixes) {
			names = append(names, name)
		}
	}
	for _, name := range extra {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	trash := filepath.Join(dir, TrashFolder)
	if err := os.MkdirAll(trash, 0755); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to create trash folder", err)
	}
	moved := names[:0]
	for _, name := range names {
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(trash, name)); err != nil {
			logger.Warn("failed to move auxiliary file", logger.String("file", name), logger.Err(err))
			continue
		}
		moved = append(moved, name)
	}
	logger.Debug("moved auxiliary files", logger.Int("count", len(moved)), logger.String("trash", trash))
	return moved, nil
}

func hasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
