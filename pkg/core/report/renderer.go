// Package report renders a finished pricing analysis as a Markdown deal
// report: valuation summary, the full candidate-price matrix, the
// recommendation with its rationale, and the post-IPO ownership table.
package report

import (
	"fmt"
	"strings"

	"agentic_ipo/pkg/core/deal"
	"agentic_ipo/pkg/core/pricing"
)

// Render produces the Markdown report for one analysis. narrative is an
// optional LLM-written commentary section; pass "" to omit it. The
// returned text always passes ValidateMarkdown.
func Render(d *deal.DealAssumptions, res *pricing.Result, narrative string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# IPO Pricing Analysis: %s\n\n", res.Company)

	if res.Err != nil {
		fmt.Fprintf(&b, "**Analysis refused** (`%s`)\n\n", res.Err.Code)
		fmt.Fprintf(&b, "%s\n", res.Err.Message)
		return b.String()
	}

	writeValuation(&b, d, res)
	writeMatrix(&b, res)
	writeRecommendation(&b, d, res)
	writeOwnership(&b, res)

	if narrative != "" {
		b.WriteString("## Commentary\n\n")
		b.WriteString(CleanMarkdown(narrative))
		b.WriteString("\n\n")
	}

	writeWarnings(&b, res)

	return b.String()
}

func writeValuation(b *strings.Builder, d *deal.DealAssumptions, res *pricing.Result) {
	b.WriteString("## Valuation\n\n")
	fmt.Fprintf(b, "- Classification: %s\n", d.Classification)
	fmt.Fprintf(b, "- Methodology: %s\n", res.Valuation.Methodology)
	fmt.Fprintf(b, "- Enterprise value: $%.1fM\n", res.Valuation.EnterpriseValue)
	fmt.Fprintf(b, "- Fair value per share: $%.2f\n", res.FairValuePerShare)
	fmt.Fprintf(b, "- Filed range: $%.2f - $%.2f\n\n", d.Offer.PriceRangeLow, d.Offer.PriceRangeHigh)
}

func writeMatrix(b *strings.Builder, res *pricing.Result) {
	b.WriteString("## Price Matrix\n\n")
	b.WriteString("| Price | Market Cap ($M) | EV ($M) | EV/Revenue | Dilution % | Coverage | Est. Day-1 Return % |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")

	for i, row := range res.Matrix {
		marker := ""
		if i == res.RecommendedIndex {
			marker = " *"
		}
		coverage := "n/a"
		if row.HasBook {
			coverage = fmt.Sprintf("%.2fx", row.EffectiveOversub)
		}
		// Adjusted is a decimal fraction; the column is in percent.
		fmt.Fprintf(b, "| $%.2f%s | %.1f | %.1f | %.2fx | %.1f | %s | %.1f |\n",
			row.OfferPrice, marker,
			row.MarketCap, row.EnterpriseValue, row.EVRevenue,
			row.Shares.DilutionPct, coverage, row.Return.Adjusted*100)
	}
	b.WriteString("\n")
}

func writeRecommendation(b *strings.Builder, d *deal.DealAssumptions, res *pricing.Result) {
	b.WriteString("## Recommendation\n\n")
	fmt.Fprintf(b, "**Offer price: $%.2f**\n\n", res.RecommendedPrice)
	fmt.Fprintf(b, "%s\n\n", res.Rationale)

	if res.RecommendedIndex >= 0 && res.RecommendedIndex < len(res.Matrix) {
		row := res.Matrix[res.RecommendedIndex]
		fmt.Fprintf(b, "- Gross proceeds: $%.1fM\n", row.Shares.GrossProceeds)
		fmt.Fprintf(b, "- Net issuer proceeds: $%.1fM\n", row.Shares.NetIssuerProceeds)
		fmt.Fprintf(b, "- Shares sold: %.2fM (%.2fM primary, %.2fM secondary, %.2fM greenshoe)\n",
			row.Shares.TotalSharesSold, row.Shares.PrimaryShares,
			row.Shares.SecondaryShares, row.Shares.GreenshoeShares)
		fmt.Fprintf(b, "- Post-IPO shares outstanding: %.2fM\n", row.Shares.PostIPOShares)
		if row.Return.IsDownRound {
			fmt.Fprintf(b, "- Down round versus last private price: %.1f%%\n", row.Return.DownRoundPct)
		}
		b.WriteString("\n")
	}
}

func writeOwnership(b *strings.Builder, res *pricing.Result) {
	if len(res.Ownership) == 0 {
		return
	}
	b.WriteString("## Post-IPO Ownership\n\n")
	b.WriteString("| Holder | Type | Post Shares (M) | Economic % | Voting % |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, e := range res.Ownership {
		fmt.Fprintf(b, "| %s | %s | %.2f | %.2f | %.2f |\n",
			e.Name, e.Type, e.PostShares, e.PostPct, e.VotingPct)
	}
	b.WriteString("\n")
}

func writeWarnings(b *strings.Builder, res *pricing.Result) {
	var all []string
	all = append(all, res.Warnings...)
	if res.RecommendedIndex >= 0 && res.RecommendedIndex < len(res.Matrix) {
		all = append(all, res.Matrix[res.RecommendedIndex].Warnings...)
	}
	if len(all) == 0 {
		return
	}
	b.WriteString("## Warnings\n\n")
	for _, w := range all {
		fmt.Fprintf(b, "- %s\n", w)
	}
	b.WriteString("\n")
}
