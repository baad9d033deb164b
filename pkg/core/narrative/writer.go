// Package narrative writes the commentary section of a deal report: a
// short equity-syndicate style note explaining the recommended price.
// The numbers all come from the deterministic engine; the writer only
// verbalizes them and must never introduce figures of its own.
package narrative

import (
	"context"
	"fmt"
	"os"
	"strings"

	"agentic_ipo/pkg/core/deal"
	"agentic_ipo/pkg/core/pricing"
	"agentic_ipo/pkg/core/report"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const writerModel = "gemini-3-flash-preview"

const systemPrompt = `You are an equity capital markets analyst writing the commentary
section of an IPO pricing memo. You are given the computed analysis: the
valuation, the candidate price matrix, the recommended price and its
rationale. Write 2-4 short Markdown paragraphs for the issuer's board.

Rules:
- Use ONLY the numbers provided. Never invent or recompute figures.
- Explain the trade-off the recommended price strikes (proceeds vs
  aftermarket performance vs deal certainty).
- Mention material warnings if any are listed.
- No headers, no bullet lists, no preamble. Prose only.`

// Writer produces report commentary via the Gemini SDK.
type Writer struct {
	client *genai.Client
	model  string
}

// NewWriter creates a writer. Requires GEMINI_API_KEY.
func NewWriter(ctx context.Context) (*Writer, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &Writer{client: client, model: writerModel}, nil
}

// Close releases the underlying client.
func (w *Writer) Close() error {
	return w.client.Close()
}

// Commentary writes the narrative for one finished analysis. Fatal
// results get no commentary.
func (w *Writer) Commentary(ctx context.Context, d *deal.DealAssumptions, res *pricing.Result) (string, error) {
	if res.Err != nil {
		return "", fmt.Errorf("no commentary for a refused analysis")
	}

	model := w.client.GenerativeModel(w.model)
	model.SetTemperature(0.4)

	prompt := fmt.Sprintf("%s\n\nAnalysis:\n%s", systemPrompt, analysisDigest(d, res))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("commentary generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("commentary generation returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	return report.CleanMarkdown(sb.String()), nil
}

// analysisDigest flattens the result into the compact prompt context.
// Only the recommended row and its immediate neighbors go in; the full
// matrix would waste tokens without changing the story.
func analysisDigest(d *deal.DealAssumptions, res *pricing.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Company: %s (%s)\n", res.Company, d.Classification)
	fmt.Fprintf(&b, "Methodology: %s, enterprise value $%.1fM, fair value $%.2f/share\n",
		res.Valuation.Methodology, res.Valuation.EnterpriseValue, res.FairValuePerShare)
	fmt.Fprintf(&b, "Filed range: $%.2f-$%.2f\n", d.Offer.PriceRangeLow, d.Offer.PriceRangeHigh)
	fmt.Fprintf(&b, "Recommended price: $%.2f\n", res.RecommendedPrice)
	fmt.Fprintf(&b, "Selection rationale: %s\n", res.Rationale)

	lo := res.RecommendedIndex - 1
	hi := res.RecommendedIndex + 1
	for i, row := range res.Matrix {
		if i < lo || i > hi {
			continue
		}
		fmt.Fprintf(&b, "At $%.2f: gross $%.1fM, net issuer $%.1fM, dilution %.1f%%, est. day-1 return %.1f%%",
			row.OfferPrice, row.Shares.GrossProceeds, row.Shares.NetIssuerProceeds,
			row.Shares.DilutionPct, row.Return.Adjusted*100)
		if row.HasBook {
			fmt.Fprintf(&b, ", effective coverage %.2fx", row.EffectiveOversub)
		}
		b.WriteString("\n")
	}

	warnings := append([]string{}, res.Warnings...)
	if res.RecommendedIndex >= 0 && res.RecommendedIndex < len(res.Matrix) {
		warnings = append(warnings, res.Matrix[res.RecommendedIndex].Warnings...)
	}
	if len(warnings) > 0 {
		fmt.Fprintf(&b, "Warnings: %s\n", strings.Join(warnings, "; "))
	}

	return b.String()
}
