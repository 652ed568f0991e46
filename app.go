package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"word2latex/internal/compiler"
	"word2latex/internal/config"
	"word2latex/internal/logger"
	"word2latex/internal/parser"
	"word2latex/internal/transform"
	"word2latex/internal/types"
)

// StatusCallback is called whenever the processing status changes.
type StatusCallback func(status *types.Status)

// repairedSuffix names the output of a .tex input so it never overwrites
// its source.
const repairedSuffix = "-w2l"

type docConverter interface {
	Convert(ctx context.Context, docxPath string, outputDir string) (*types.ConvertResult, error)
	ExportHTML(ctx context.Context, texPath, bibPath string) (string, error)
}

type texCompiler interface {
	Compile(ctx context.Context, texPath string, outputDir string) (*types.CompileResult, error)
}

// App ties the converter, the repair pipeline and the compiler together
// for one configuration.
type App struct {
	config *config.Manager

	status         *types.Status
	statusMu       sync.RWMutex
	statusCallback StatusCallback

	newConverter func(o config.Options) docConverter
	newCompiler  func(o config.Options) texCompiler
}

// NewApp loads the configuration at configPath with overrides applied.
func NewApp(configPath string, overrides map[string]interface{}) (*App, error) {
	mgr, err := config.NewManager(configPath)
	if err != nil {
		return nil, err
	}
	if err := mgr.Load(overrides); err != nil {
		return nil, err
	}
	return &App{
		config: mgr,
		status: &types.Status{Phase: types.PhaseIdle},
		newConverter: func(o config.Options) docConverter {
			return compiler.NewConverter(0, o.MediaFolderName, o.HeaderLevel)
		},
		newCompiler: func(o config.Options) texCompiler {
			return compiler.NewLaTeXCompiler(o.PDFEngine, 0, o.ForceShellEscape)
		},
	}, nil
}

// GetConfig returns the effective options.
func (a *App) GetConfig() config.Options {
	return a.config.GetConfig()
}

// SetStatusCallback sets the callback for status updates.
func (a *App) SetStatusCallback(callback StatusCallback) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	a.statusCallback = callback
}

// GetStatus returns a copy of the current status.
func (a *App) GetStatus() *types.Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	s := *a.status
	return &s
}

func (a *App) updateStatus(phase types.ProcessPhase, progress int, message string) {
	a.statusMu.Lock()
	a.status.Phase = phase
	a.status.Progress = progress
	a.status.Message = message
	a.status.Error = ""
	callback := a.statusCallback
	statusCopy := *a.status
	a.statusMu.Unlock()

	if callback != nil {
		callback(&statusCopy)
	}
}

func (a *App) updateStatusError(errorMsg string) {
	a.statusMu.Lock()
	a.status.Phase = types.PhaseError
	a.status.Error = errorMsg
	callback := a.statusCallback
	statusCopy := *a.status
	a.statusMu.Unlock()

	if callback != nil {
		callback(&statusCopy)
	}
}

// Process runs a document through the whole chain. A .docx is converted
// with pandoc, repaired and compiled unless PDF exports are prevented. A
// .tex is only repaired. With html_output set and exports allowed, the
// repaired document is also rendered to HTML; a failed render is only a
// warning.
func (a *App) Process(ctx context.Context, input string, outputDir string) (*types.ProcessResult, error) {
	o := a.config.GetConfig()
	logger.Info("processing document", logger.String("input", input))

	if outputDir == "" {
		outputDir = filepath.Dir(input)
	}
	kind, err := parser.ParseInput(input)
	if err != nil {
		a.updateStatusError(err.Error())
		return nil, err
	}
	stem := parser.Stem(input)

	var rawPath string
	compile := false
	switch kind {
	case types.SourceTypeDocx:
		a.updateStatus(types.PhaseConverting, 10, "converting with pandoc")
		conv, err := a.newConverter(o).Convert(ctx, input, outputDir)
		if err != nil {
			a.updateStatusError(err.Error())
			return nil, err
		}
		rawPath = conv.TexPath
		compile = !o.PreventPDFExports
	case types.SourceTypeTex:
		stem += repairedSuffix
		rawPath = input
	}

	data, err := os.ReadFile(rawPath)
	if err != nil {
		err = types.NewAppErrorWithDetails(types.ErrFileNotFound, "failed to read document", rawPath, err)
		a.updateStatusError(err.Error())
		return nil, err
	}

	a.updateStatus(types.PhaseRepairing, 40, "repairing LaTeX")
	result, err := a.repair(string(data), stem, outputDir)
	if err != nil {
		a.updateStatusError(err.Error())
		return nil, err
	}

	if o.HTMLOutput && !o.PreventPDFExports {
		a.updateStatus(types.PhaseExporting, 60, "exporting HTML")
		htmlPath, err := a.newConverter(o).ExportHTML(ctx, result.TexPath, result.BibPath)
		if err != nil {
			logger.Warn("html export failed", logger.Err(err), logger.String("path", result.TexPath))
			result.Warnings = append(result.Warnings, types.Warning{Stage: "html", Message: err.Error()})
		} else {
			result.HTMLPath = htmlPath
		}
	}

	if compile {
		a.updateStatus(types.PhaseCompiling, 70, "compiling PDF")
		cr, err := a.compile(ctx, result.TexPath, outputDir, []string{filepath.Base(rawPath)})
		result.Compile = cr
		if err != nil {
			a.updateStatusError(err.Error())
			return result, err
		}
		result.PDFPath = cr.PDFPath
	}

	a.updateStatus(types.PhaseComplete, 100, "done")
	return result, nil
}

// Repair repairs texPath into outPath, next to the input with a -w2l
// suffix when outPath is empty.
func (a *App) Repair(texPath string, outPath string) (*types.ProcessResult, error) {
	data, err := os.ReadFile(texPath)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrFileNotFound, "failed to read document", texPath, err)
	}
	dir := filepath.Dir(texPath)
	stem := strings.TrimSuffix(filepath.Base(texPath), filepath.Ext(texPath)) + repairedSuffix
	if outPath != "" {
		dir = filepath.Dir(outPath)
		stem = strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
	}
	return a.repair(string(data), stem, dir)
}

// Compile compiles an already repaired document.
func (a *App) Compile(ctx context.Context, texPath string, outputDir string) (*types.CompileResult, error) {
	if outputDir == "" {
		outputDir = filepath.Dir(texPath)
	}
	a.updateStatus(types.PhaseCompiling, 50, "compiling PDF")
	cr, err := a.compile(ctx, texPath, outputDir, nil)
	if err != nil {
		a.updateStatusError(err.Error())
		return cr, err
	}
	a.updateStatus(types.PhaseComplete, 100, "done")
	return cr, nil
}

func (a *App) repair(source, stem, dir string) (*types.ProcessResult, error) {
	o := a.config.GetConfig()
	popts, err := o.PipelineOptions()
	if err != nil {
		return nil, err
	}
	popts.BibFileName = stem + "-citations.bib"

	res, err := transform.New(popts).Repair(source)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to create output directory", err)
	}
	out := &types.ProcessResult{
		TexPath:  filepath.Join(dir, stem+".tex"),
		Labels:   res.Labels,
		Figures:  res.Figures,
		Tables:   res.Tables,
		Warnings: res.Warnings,
	}
	if err := os.WriteFile(out.TexPath, []byte(res.Text), 0644); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrInternal, "failed to write document", out.TexPath, err)
	}
	if res.BibFile != "" {
		out.BibPath = filepath.Join(dir, res.BibFile)
		if err := os.WriteFile(out.BibPath, []byte(res.BibData), 0644); err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrInternal, "failed to write bibliography", out.BibPath, err)
		}
	}

	logger.Info("document repaired",
		logger.String("texPath", out.TexPath),
		logger.Int("labels", len(out.Labels)),
		logger.Int("warnings", len(out.Warnings)))
	return out, nil
}

// compile copies the style files next to the document, runs the engine and
// moves auxiliary files away when cleanup is on. extra names further files
// to move away.
func (a *App) compile(ctx context.Context, texPath, outputDir string, extra []string) (*types.CompileResult, error) {
	o := a.config.GetConfig()

	copied, err := compiler.CopyStyleFiles(o.StyClsFiles, filepath.Dir(texPath))
	if err != nil {
		return nil, err
	}

	cr, err := a.newCompiler(o).Compile(ctx, texPath, outputDir)
	if err != nil {
		return cr, err
	}

	if o.Cleanup {
		if o.HideStyClsFiles {
			extra = append(extra, copied...)
		}
		base := strings.TrimSuffix(filepath.Base(texPath), filepath.Ext(texPath))
		if _, err := compiler.Cleanup(outputDir, base, extra); err != nil {
			logger.Warn("cleanup failed", logger.Err(err))
		}
	}
	return cr, nil
}
