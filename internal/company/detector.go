// Package company resolves the issuing company of an invoice from its file
// name and holds the per-company column selection rules.
package company

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// UnknownCompany is returned when no keyword matches a file name.
const UnknownCompany = "Unknown Company"

// Keyword maps a file name fragment to a company name.
type Keyword struct {
	Keyword string `mapstructure:"keyword" json:"keyword"`
	Company string `mapstructure:"company" json:"company"`
}

// DefaultKeywords returns the built-in keyword list. Order matters: the first
// matching keyword wins.
func DefaultKeywords() []Keyword {
	return []Keyword{
		{Keyword: "alameda", Company: "Alameda"},
		{Keyword: "dalton", Company: "Dalton"},
		{Keyword: "edco", Company: "Edco"},
		{Keyword: "gabriel", Company: "Gabriel"},
		{Keyword: "garcia", Company: "Garcia"},
		{Keyword: "republic", Company: "Republic"},
		{Keyword: "sanco", Company: "Sanco"},
		{Keyword: "agua mansa", Company: "Agua Mansa"},
		{Keyword: "bakersfield", Company: "Bakersfield"},
		{Keyword: "burbank", Company: "Burbank"},
		{Keyword: "east valley", Company: "East Valley"},
		{Keyword: "victorsville", Company: "Victorsville"},
		{Keyword: "west valley", Company: "West Valley"},
		{Keyword: "american recycling", Company: "American Recycling"},
		{Keyword: "greenwaste", Company: "Greenwaste"},
		{Keyword: "n & v", Company: "N&V"},
		{Keyword: "t & m", Company: "T&M"},
	}
}

// Detector matches file names against an ordered keyword list.
type Detector struct {
	keywords []Keyword
}

// NewDetector creates a detector for the given keywords. An empty list falls
// back to DefaultKeywords.
func NewDetector(keywords []Keyword) *Detector {
	if len(keywords) == 0 {
		keywords = DefaultKeywords()
	}

	normalized := make([]Keyword, len(keywords))
	for i, kw := range keywords {
		normalized[i] = Keyword{
			Keyword: strings.ToLower(kw.Keyword),
			Company: kw.Company,
		}
	}
	return &Detector{keywords: normalized}
}

// Keywords returns a copy of the detector's keyword list.
func (d *Detector) Keywords() []Keyword {
	out := make([]Keyword, len(d.keywords))
	copy(out, d.keywords)
	return out
}

// Detect returns the company for a file path, or UnknownCompany.
func (d *Detector) Detect(path string) string {
	name := NormalizeFilename(filepath.Base(path))
	for _, kw := range d.keywords {
		if kw.Keyword == "" {
			continue
		}
		if strings.Contains(name, kw.Keyword) {
			return kw.Company
		}
	}
	return UnknownCompany
}

// NormalizeFilename lowercases a file name, treats '_' and '-' as word
// separators, pads '&' with spaces and collapses runs of whitespace.
func NormalizeFilename(name string) string {
	n := strings.ToLower(norm.NFC.String(name))
	n = strings.NewReplacer("_", " ", "-", " ", "&", " & ").Replace(n)
	return strings.Join(strings.Fields(n), " ")
}
