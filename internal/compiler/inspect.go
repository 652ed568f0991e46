package compiler

import (
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"word2latex/internal/types"
)

// unresolvedMarker is what LaTeX prints for a reference it cannot resolve.
const unresolvedMarker = "??"

// Inspection describes a compiled PDF.
type Inspection struct {
	PageCount  int
	Unresolved bool
}

// Inspect reads the page count with pdfcpu and scans the page text for
// unresolved reference markers.
func Inspect(pdfPath string) (Inspection, error) {
	ctx, err := api.ReadContextFile(pdfPath)
	if err != nil {
		return Inspection{}, types.NewAppErrorWithDetails(types.ErrCompile, "failed to read PDF", pdfPath, err)
	}
	if ctx.PageCount == 0 {
		return Inspection{}, types.NewAppErrorWithDetails(types.ErrCompile, "PDF has no pages", pdfPath, nil)
	}

	unresolved, err := hasUnresolved(pdfPath)
	if err != nil {
		return Inspection{}, err
	}
	return Inspection{PageCount: ctx.PageCount, Unresolved: unresolved}, nil
}

func hasUnresolved(pdfPath string) (bool, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return false, types.NewAppErrorWithDetails(types.ErrCompile, "failed to open PDF", pdfPath, err)
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.Contains(text, unresolvedMarker) {
			return true, nil
		}
	}
	return false, nil
}
