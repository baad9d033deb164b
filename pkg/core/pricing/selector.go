package pricing

import (
	"fmt"
	"math"

	"agentic_ipo/pkg/core/deal"
)

// Coverage bars for policy selection, in effective oversubscription
// turns.
const (
	conservativeCoverageBar = 2.0
	moderateCoverageBar     = 1.5
)

// selectRecommendation applies the deal's pricing policy to the
// finished matrix and always resolves to exactly one row. low/high are
// the filed range (not the tier-extended grid); policy midpoints are
// anchored to what was filed.
func selectRecommendation(matrix []Row, d *deal.DealAssumptions, low, high float64) (int, string) {
	mid := (low + high) / 2
	midIdx := nearestIndex(matrix, mid)

	switch {
	case d.Policy.Aggressiveness == deal.PolicyMaximum:
		idx := len(matrix) - 1
		return idx, fmt.Sprintf("maximum-price policy: top of the grid at $%.2f", matrix[idx].OfferPrice)

	case d.Policy.Aggressiveness == deal.PolicyConservative:
		for i, row := range matrix {
			if row.EffectiveOversub >= conservativeCoverageBar {
				return i, fmt.Sprintf("conservative policy: lowest price with ≥%.1fx coverage (%.1fx at $%.2f)",
					conservativeCoverageBar, row.EffectiveOversub, row.OfferPrice)
			}
		}
		return 0, fmt.Sprintf("conservative policy: no price met the %.1fx coverage bar, took the bottom of the grid at $%.2f",
			conservativeCoverageBar, matrix[0].OfferPrice)

	case d.Policy.Priority == deal.PriorityDealCertainty || d.Policy.Priority == deal.PriorityRunwayExtension:
		idx := -1
		for i, row := range matrix {
			if row.EffectiveOversub >= moderateCoverageBar {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = midIdx
		}
		// Cap at the filed midpoint, then floor at any explicit
		// minimum acceptable price.
		if matrix[idx].OfferPrice > mid {
			idx = midIdx
		}
		if min := d.Policy.MinimumPrice; min > 0 && matrix[idx].OfferPrice < min {
			idx = lowestAtOrAbove(matrix, min, idx)
		}
		return idx, fmt.Sprintf("%s priority: certainty-weighted price $%.2f (%.1fx coverage)",
			priorityLabel(d.Policy.Priority), matrix[idx].OfferPrice, matrix[idx].EffectiveOversub)
	}

	return midIdx, fmt.Sprintf("moderate policy: nearest point to the filed midpoint $%.2f", mid)
}

// nearestIndex finds the row whose price is closest to target; the
// lower row wins ties so default selection never drifts upward.
func nearestIndex(matrix []Row, target float64) int {
	best := 0
	bestDist := math.Abs(matrix[0].OfferPrice - target)
	for i, row := range matrix {
		if d := math.Abs(row.OfferPrice - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// lowestAtOrAbove returns the first row priced at or above floor, or
// fallback when the whole grid sits below it.
func lowestAtOrAbove(matrix []Row, floor float64, fallback int) int {
	for i, row := range matrix {
		if row.OfferPrice >= floor {
			return i
		}
	}
	return fallback
}

func priorityLabel(p deal.ManagementPriority) string {
	switch p {
	case deal.PriorityDealCertainty:
		return "deal-certainty"
	case deal.PriorityRunwayExtension:
		return "runway-extension"
	}
	return "management"
}
