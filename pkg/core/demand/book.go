// Package demand maps a candidate offer price to oversubscription
// using observed order-book tiers and named-investor price limits.
// The tier lookup is a step function over observed data only: no
// interpolation between tiers and no extrapolation beyond them.
package demand

import (
	"fmt"
	"sort"

	"agentic_ipo/pkg/core/deal"
)

// weakCoverageBar marks the effective oversubscription below which a
// book is flagged as weak.
const weakCoverageBar = 1.0

// Result is the demand picture at one candidate price.
type Result struct {
	// HasBook is false when no tiers were supplied; Raw and Effective
	// are then zero and the return estimator omits its book term.
	HasBook    bool    `json:"has_book"`
	Raw        float64 `json:"raw_oversubscription"`
	Effective  float64 `json:"effective_oversubscription"`
	LostDemand float64 `json:"lost_demand"` // $M from dropped investors

	Warnings []string `json:"warnings,omitempty"`
}

// Model evaluates the order book at the candidate price.
// grossProceeds is the deal size at this price in $M; the raw book
// covers grossProceeds × Raw of demand, and dropped investors reduce
// that pool.
func Model(tiers []deal.BookTier, orders []deal.InvestorOrder, price, grossProceeds float64) Result {
	if len(tiers) == 0 {
		return Result{}
	}
	res := Result{HasBook: true, Raw: tierLookup(tiers, price)}

	for _, o := range orders {
		if o.MaxPrice > 0 && o.MaxPrice < price {
			res.LostDemand += o.Size
		}
	}

	res.Effective = res.Raw
	if res.LostDemand > 0 && grossProceeds > 0 && res.Raw > 0 {
		grossDemand := grossProceeds * res.Raw
		// Deliberately unclamped: a large enough drop-off relative to
		// the raw book can push this negative, and that is surfaced
		// as a warning rather than floored away.
		res.Effective = res.Raw * (1 - res.LostDemand/grossDemand)
	}

	if res.Effective <= 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("effective demand at $%.2f is non-positive (%.2fx) after investor drop-off", price, res.Effective))
	} else if res.Effective < weakCoverageBar {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("book covers only %.2fx at $%.2f", res.Effective, price))
	}

	return res
}

// tierLookup returns the coverage of the highest tier at or below the
// candidate price. Below the lowest tier it returns the lowest tier's
// coverage (no fabricated extra demand at the floor); above the
// highest it returns the highest tier's coverage (no extrapolation).
func tierLookup(tiers []deal.BookTier, price float64) float64 {
	sorted := append([]deal.BookTier(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	cover := sorted[0].Oversubscription
	for _, t := range sorted {
		if t.Price <= price {
			cover = t.Oversubscription
		}
	}
	return cover
}
