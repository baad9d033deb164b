package ingest

import (
	"fmt"
	"os"
	"strings"
)

// TextSource supplies prospectus text for one company.
type TextSource interface {
	// Load returns plain prospectus text ready for extraction.
	Load() (string, error)
}

// FileSource reads a prospectus from disk. HTML files are sanitized to
// plain text; anything else is passed through as-is.
type FileSource struct {
	Path string
}

// NewFileSource creates a source backed by a local file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads the file and sanitizes it when it looks like HTML.
func (f *FileSource) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read prospectus %s: %w", f.Path, err)
	}

	content := string(data)
	if looksLikeHTML(f.Path, content) {
		return NewSanitizer().Text(content)
	}
	return strings.TrimSpace(content), nil
}

// StringSource wraps already-loaded text, used by the API layer where
// the prospectus arrives in the request body.
type StringSource struct {
	Content string
}

// Load returns the wrapped text unchanged.
func (s *StringSource) Load() (string, error) {
	return strings.TrimSpace(s.Content), nil
}

func looksLikeHTML(path, content string) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		return true
	}

	head := strings.ToLower(content)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
