package pdf

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/a3tai/invoice-consolidator/internal/layout"
)

const (
	// WordTolerance is the largest gap, horizontally or between baselines,
	// that still joins two glyph runs into one word.
	WordTolerance = 3.0

	// SpaceGap is the horizontal gap, as a fraction of the font size, that
	// stands in for a space glyph. ledongthuc drops spaces from its text runs.
	SpaceGap = 0.2

	// defaultPageTop is the top edge of a US Letter page, used when no
	// MediaBox is found.
	defaultPageTop = 792.0
)

// ErrEncrypted is reported when an encrypted document yields no text.
var ErrEncrypted = errors.New("document is encrypted")

// ExtractionError wraps a failure to read a document.
type ExtractionError struct {
	Path string
	Op   string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("pdf %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor pulls positioned words out of PDF text layers.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractPages returns the tokens of every page in page order. Pages without
// text are included with no tokens.
func (e *Extractor) ExtractPages(path string) (pages []layout.Page, err error) {
	f, reader, err := lpdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	// ledongthuc/pdf panics on malformed objects and content streams.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &ExtractionError{Path: path, Op: "read", Err: fmt.Errorf("malformed document: %v", r)}
		}
	}()

	total := reader.NumPage()
	pages = make([]layout.Page, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			e.logger.Debug("skipping empty page object", "path", path, "page", i)
			continue
		}

		tokens := pageTokens(page.Content().Text, pageTop(page))
		if len(tokens) == 0 {
			e.logger.Debug("no text on page", "path", path, "page", i)
		}
		pages = append(pages, layout.Page{Number: i, Tokens: tokens})
	}

	return pages, nil
}

// ExtractTable reconstructs the document grid of a PDF.
func (e *Extractor) ExtractTable(path string) (layout.Table, error) {
	pages, err := e.ExtractPages(path)
	if err != nil {
		return nil, err
	}

	table := layout.Assemble(pages)
	e.logger.Debug("reconstructed pdf layout", "path", path, "pages", len(pages), "rows", len(table))
	return table, nil
}

// pageTop reads the upper edge of the MediaBox, following Parent links for
// an inherited box. Tops are measured down from this edge.
func pageTop(page lpdf.Page) float64 {
	for node := page.V; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Kind() == lpdf.Array && box.Len() == 4 {
			y0, y1 := box.Index(1).Float64(), box.Index(3).Float64()
			if y1 != y0 {
				return math.Max(y0, y1)
			}
		}
	}
	return defaultPageTop
}

type word struct {
	text     strings.Builder
	left     float64
	baseline float64
	size     float64
	end      float64
}

// pageTokens merges glyph runs into words. A word ends at whitespace, when
// the baseline moves by more than WordTolerance, or when the next run starts
// more than WordTolerance, or a space's width, away from where the previous
// one ended.
func pageTokens(texts []lpdf.Text, top float64) []layout.Token {
	var (
		tokens  []layout.Token
		current *word
	)

	flush := func() {
		if current == nil {
			return
		}
		tokens = append(tokens, layout.Token{
			Text: current.text.String(),
			Left: current.left,
			Top:  top - (current.baseline + current.size),
		})
		current = nil
	}

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			flush()
			continue
		}

		if current != nil {
			gap := t.X - current.end
			if math.Abs(t.Y-current.baseline) > WordTolerance || math.Abs(gap) > WordTolerance ||
				gap >= SpaceGap*current.size {
				flush()
			}
		}

		if current == nil {
			current = &word{left: t.X, baseline: t.Y, size: t.FontSize}
		}
		current.text.WriteString(t.S)
		current.end = t.X + t.W
		if t.FontSize > current.size {
			current.size = t.FontSize
		}
	}
	flush()

	return tokens
}
