package consolidate

import (
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the input file types that can be selected.
var SupportedExtensions = []string{".pdf", ".xls", ".xlsx"}

// Session holds the current file selection and output target.
type Session struct {
	files    []string
	workbook string
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// SelectFiles replaces the selection with the paths that carry a supported
// extension and returns the paths that were rejected.
func (s *Session) SelectFiles(paths []string) (rejected []string) {
	var accepted []string
	for _, p := range paths {
		if IsSupported(p) {
			accepted = append(accepted, p)
		} else {
			rejected = append(rejected, p)
		}
	}
	s.files = accepted
	return rejected
}

// Files returns a copy of the selection.
func (s *Session) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// SetWorkbook sets the master workbook path. A path without extension gets
// ".xlsx".
func (s *Session) SetWorkbook(path string) {
	s.workbook = WorkbookPath(path)
}

// Workbook returns the master workbook path.
func (s *Session) Workbook() string {
	return s.workbook
}

// Ready checks that a run can start.
func (s *Session) Ready() error {
	if len(s.files) == 0 {
		return ErrNoFiles
	}
	if s.workbook == "" {
		return ErrNoWorkbook
	}
	return nil
}

// IsSupported reports whether path has a PDF or Excel extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// WorkbookPath appends ".xlsx" to a path that has no extension.
func WorkbookPath(path string) string {
	if path == "" || filepath.Ext(path) != "" {
		return path
	}
	return path + ".xlsx"
}
