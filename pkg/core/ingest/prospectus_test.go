package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head><title>Form S-1</title><style>p { margin: 0; }</style></head>
<body>
<script>trackPage();</script>
<h2>THE OFFERING</h2>
<p>We are offering 10.0 million shares of Class A common stock.</p>
<table>
<tr><th>Price</th><th>Demand (x)</th></tr>
<tr><td>$18.00</td><td>3.0</td></tr>
<tr><td>$20.00</td><td>2.1</td></tr>
</table>
<div>Page 42 of 310</div>
<p>The underwriters have a 15% over-allotment option.</p>
</body>
</html>`

func TestSanitizerText(t *testing.T) {
	text, err := NewSanitizer().Text(sampleHTML)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}

	if strings.Contains(text, "trackPage") {
		t.Error("script content should be removed")
	}
	if strings.Contains(text, "margin: 0") {
		t.Error("style content should be removed")
	}
	if strings.Contains(text, "Page 42 of 310") {
		t.Error("pagination footer should be removed")
	}
	if !strings.Contains(text, "## THE OFFERING") {
		t.Errorf("section header should be marked, got:\n%s", text)
	}
	if !strings.Contains(text, "10.0 million shares") {
		t.Error("prose content should survive")
	}
	// Table rows become pipe-separated lines so prices keep their demand.
	if !strings.Contains(text, "$18.00 | 3.0") {
		t.Errorf("table rows should be flattened, got:\n%s", text)
	}
}

func TestSanitizerInvalidHTMLStillReturnsText(t *testing.T) {
	// html.Parse is forgiving: malformed markup degrades, it does not error.
	text, err := NewSanitizer().Text("<p>Unclosed paragraph <b>bold")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !strings.Contains(text, "Unclosed paragraph") {
		t.Errorf("expected degraded text, got: %q", text)
	}
}

func TestFileSourceHTMLDetection(t *testing.T) {
	dir := t.TempDir()

	htmlPath := filepath.Join(dir, "prospectus.html")
	if err := os.WriteFile(htmlPath, []byte(sampleHTML), 0644); err != nil {
		t.Fatal(err)
	}
	text, err := NewFileSource(htmlPath).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if strings.Contains(text, "<table>") {
		t.Error("HTML file should be sanitized")
	}

	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txtPath, []byte("  plain deal notes  "), 0644); err != nil {
		t.Fatal(err)
	}
	text, err = NewFileSource(txtPath).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if text != "plain deal notes" {
		t.Errorf("plain text should pass through trimmed, got %q", text)
	}
}

func TestFileSourceSniffsHTMLWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filing")
	if err := os.WriteFile(path, []byte(sampleHTML), 0644); err != nil {
		t.Fatal(err)
	}
	text, err := NewFileSource(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if strings.Contains(text, "<body>") {
		t.Error("HTML content should be detected by sniffing")
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	if _, err := NewFileSource("/nonexistent/prospectus.html").Load(); err == nil {
		t.Error("expected error for missing file")
	}
}
