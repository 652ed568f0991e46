// Package types defines the data types and error codes shared by the
// word2latex packages.
package types

import "errors"

// Region is a located span of document text.
// Text is the isolated substring, Start and End are byte offsets into the
// document the region was found in (End exclusive). A Region is only valid
// for the exact text it was detected in; any splice invalidates it.
type Region struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Len returns the number of bytes covered by the region.
func (r Region) Len() int {
	return r.End - r.Start
}

// Warning is a non-fatal condition reported during a repair pass.
type Warning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Offset  int    `json:"offset"`
}

// ConvertResult 转换结果
type ConvertResult struct {
	Success  bool   `json:"success"`
	TexPath  string `json:"tex_path"`
	MediaDir string `json:"media_dir"`
	Log      string `json:"log"`
	ErrorMsg string `json:"error_msg,omitempty"`
}

// CompileResult 编译结果
type CompileResult struct {
	Success   bool   `json:"success"`
	PDFPath   string `json:"pdf_path"`
	PageCount int    `json:"page_count"`
	Passes    int    `json:"passes"`
	Log       string `json:"log"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// SourceType 输入类型枚举
type SourceType string

const (
	SourceTypeDocx SourceType = "docx"
	SourceTypeTex  SourceType = "tex"
)

// ProcessPhase 处理阶段枚举
type ProcessPhase string

const (
	PhaseIdle       ProcessPhase = "idle"
	PhaseConverting ProcessPhase = "converting"
	PhaseRepairing  ProcessPhase = "repairing"
	PhaseExporting  ProcessPhase = "exporting"
	PhaseCompiling  ProcessPhase = "compiling"
	PhaseComplete   ProcessPhase = "complete"
	PhaseError      ProcessPhase = "error"
)

// Status 处理状态
type Status struct {
	Phase    ProcessPhase `json:"phase"`
	Progress int          `json:"progress"` // 0-100
	Message  string       `json:"message"`
	Error    string       `json:"error,omitempty"`
}

// ProcessResult is the outcome of one document run.
type ProcessResult struct {
	TexPath  string         `json:"tex_path"`
	BibPath  string         `json:"bib_path,omitempty"`
	PDFPath  string         `json:"pdf_path,omitempty"`
	HTMLPath string         `json:"html_path,omitempty"`
	Labels   []string       `json:"labels,omitempty"`
	Figures  []string       `json:"figures,omitempty"`
	Tables   []string       `json:"tables,omitempty"`
	Warnings []Warning      `json:"warnings,omitempty"`
	Compile  *CompileResult `json:"compile,omitempty"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrOutOfBounds    ErrorCode = "OUT_OF_BOUNDS"
	ErrMalformedLabel ErrorCode = "MALFORMED_LABEL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"
	ErrConfig         ErrorCode = "CONFIG_ERROR"
	ErrConvert        ErrorCode = "CONVERT_ERROR"
	ErrCompile        ErrorCode = "COMPILE_ERROR"
	ErrDuplicateLabel ErrorCode = "DUPLICATE_LABEL"
	ErrInternal       ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// IsCode reports whether err, or any error it wraps, is an AppError with
// the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
