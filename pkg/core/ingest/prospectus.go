// Package ingest turns raw prospectus documents into plain text suitable
// for LLM extraction. IPO prospectuses (S-1 / F-1 filings and roadshow
// decks exported to HTML) carry heavy presentational markup; the model
// only needs the prose and the flattened table contents.
package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors match elements that never carry deal content.
var noiseSelectors = []string{
	"script",
	"style",
	"noscript",
	"head",
	"img",
	"hr",
}

var (
	pageBreakRe  = regexp.MustCompile(`(?i)page\s+\d+\s+of\s+\d+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe  = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// Sanitizer cleans prospectus HTML into plain text.
type Sanitizer struct{}

// NewSanitizer creates a sanitizer instance.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Text strips markup from prospectus HTML and returns readable plain text.
// Tables are flattened row by row with " | " separators so figures like
// share counts and order book tiers survive the conversion.
func (s *Sanitizer) Text(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	s.removeNoise(doc)
	s.flattenTables(doc)
	s.markHeaders(doc)

	body := doc.Find("body")
	var text string
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}

	return normalize(text), nil
}

// removeNoise drops elements that carry no deal content, plus the
// pagination footers EDGAR viewers inject between pages.
func (s *Sanitizer) removeNoise(doc *goquery.Document) {
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	doc.Find("p, div, span").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if pageBreakRe.MatchString(text) && len(text) < 40 {
			sel.Remove()
		}
	})
}

// flattenTables rewrites each <table> as line-per-row text. Cell values
// are joined with " | " so numeric columns keep their association with
// the row label.
func (s *Sanitizer) flattenTables(doc *goquery.Document) {
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var rows []string
		table.Find("tr").Each(func(j int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(k int, cell *goquery.Selection) {
				text := strings.TrimSpace(cell.Text())
				if text != "" {
					cells = append(cells, text)
				}
			})
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " | "))
			}
		})
		if len(rows) > 0 {
			table.ReplaceWithHtml("<p>" + strings.Join(rows, "\n") + "</p>")
		} else {
			table.Remove()
		}
	})
}

// markHeaders prefixes heading elements with "## " so section structure
// stays visible in the flattened text. Prospectus section names such as
// "THE OFFERING" and "USE OF PROCEEDS" anchor the extraction prompt.
func (s *Sanitizer) markHeaders(doc *goquery.Document) {
	doc.Find("h1, h2, h3, h4").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			sel.SetText("\n## " + text + "\n")
		}
	})
}

// normalize collapses whitespace runs left behind by removed markup.
func normalize(text string) string {
	text = spaceRunsRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
