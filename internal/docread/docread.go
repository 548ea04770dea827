package docread

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/modmap/internal/document"
)

// Reader converts raw manual bytes into per-page records. Table grids are
// best effort: a format that cannot express tables yields pages with text
// only, which the scorer tolerates.
type Reader interface {
	Read(r io.Reader, filename string) (document.Document, error)
}

// SupportedExtensions lists manual formats this service can ingest.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// ForFile returns the appropriate reader for a filename.
func ForFile(filename string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return &PDFReader{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXReader{}, nil
	case ".html", ".htm":
		return &HTMLReader{}, nil
	case ".md", ".markdown":
		return &MarkdownReader{}, nil
	case ".txt":
		return &TextReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
