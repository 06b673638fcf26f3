package workflow

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/entrhq/formpilot/pkg/types"
)

func init() {
	// Page counting must not create a pdfcpu config directory in the user's home.
	api.DisableConfigDir()
}

// pageCount returns the number of pages of a PDF payload, or 0 when the file
// is not a readable PDF.
func pageCount(f types.FileRef) int {
	if !f.HasExtension(".pdf") || len(f.Data) == 0 {
		return 0
	}
	n, err := api.PageCount(bytes.NewReader(f.Data), nil)
	if err != nil {
		return 0
	}
	return n
}
