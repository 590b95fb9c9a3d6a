package pdf

import (
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Inspection summarizes a document's structure before text extraction.
type Inspection struct {
	Path      string
	Pages     int
	Version   string
	Encrypted bool
}

// Inspect reads the document structure with pdfcpu in relaxed validation mode.
func Inspect(path string) (*Inspection, error) {
	// pdfcpu otherwise creates a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	file, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Op: "inspect", Err: err}
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, &ExtractionError{
			Path: path,
			Op:   "inspect",
			Err:  fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &ExtractionError{
			Path: path,
			Op:   "inspect",
			Err:  fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	info := &Inspection{
		Path:      path,
		Pages:     ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
	}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}
	return info, nil
}
