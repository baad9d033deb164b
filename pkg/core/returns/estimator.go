// Package returns estimates the expected first-day return at one
// candidate price by composing a sector baseline with traceable,
// input-driven adjustments. Every adjustment term is zero unless its
// triggering input is explicitly present; the estimator never invents
// a default magnitude for missing data.
package returns

import "math"

// concentrationThreshold is the customer-concentration level above
// which the excess becomes a discount.
const concentrationThreshold = 0.40

// Input gathers the triggers for every adjustment term. All rates and
// fractions are decimals; prices are dollars per share.
type Input struct {
	SectorReturns []float64 // baseline only exists when non-empty

	HasBook          bool
	EffectiveOversub float64

	OfferPrice float64
	FairValue  float64 // intrinsic per-share value; 0 disables the penalty

	SecondaryFraction       float64 // of total shares sold
	NegativeSecondaryOptics bool

	BinaryCatalyst   bool
	MonthsToCatalyst float64

	LastPrivatePrice float64
	DownRoundOptics  bool
	DownRoundPenalty float64

	DualClass          bool
	GovernanceDiscount float64

	CustomerConcentration float64
}

// Breakdown exposes each term individually so a report can show where
// the adjusted return comes from. Discount terms carry their sign.
type Breakdown struct {
	Baseline              float64 `json:"baseline"`
	BookQuality           float64 `json:"book_quality"`
	ValuationPenalty      float64 `json:"valuation_penalty"`
	SecondaryOptics       float64 `json:"secondary_optics"`
	CatalystDiscount      float64 `json:"catalyst_discount"`
	DownRoundDiscount     float64 `json:"down_round_discount"`
	DualClassDiscount     float64 `json:"dual_class_discount"`
	ConcentrationDiscount float64 `json:"concentration_discount"`

	IsDownRound  bool    `json:"is_down_round"`
	DownRoundPct float64 `json:"down_round_pct"` // signed, e.g. -20

	Adjusted float64 `json:"adjusted"`
}

// Estimate composes the adjusted first-day return.
func Estimate(in Input) Breakdown {
	var b Breakdown

	if len(in.SectorReturns) > 0 {
		var sum float64
		for _, r := range in.SectorReturns {
			sum += r
		}
		b.Baseline = sum / float64(len(in.SectorReturns))
	}

	// Book quality: symmetric around 1x coverage. ln(2x) rewards a
	// strong book by the same magnitude ln(0.5x) punishes a weak one.
	if in.HasBook && in.EffectiveOversub > 0 && in.EffectiveOversub != 1 {
		b.BookQuality = math.Log(in.EffectiveOversub)
	}

	if in.FairValue > 0 && in.OfferPrice > in.FairValue {
		b.ValuationPenalty = -(in.OfferPrice/in.FairValue - 1)
	}

	if in.NegativeSecondaryOptics && in.SecondaryFraction > 0 {
		b.SecondaryOptics = -in.SecondaryFraction
	}

	if in.BinaryCatalyst && in.MonthsToCatalyst > 0 {
		b.CatalystDiscount = -1 / in.MonthsToCatalyst
	}

	if in.LastPrivatePrice > 0 && in.OfferPrice < in.LastPrivatePrice {
		b.IsDownRound = true
		b.DownRoundPct = (in.OfferPrice/in.LastPrivatePrice - 1) * 100
		if in.DownRoundOptics {
			b.DownRoundDiscount = -math.Abs(in.OfferPrice/in.LastPrivatePrice-1) * in.DownRoundPenalty
		}
	}

	if in.DualClass && in.GovernanceDiscount > 0 {
		b.DualClassDiscount = -in.GovernanceDiscount
	}

	if in.CustomerConcentration > concentrationThreshold {
		b.ConcentrationDiscount = -(in.CustomerConcentration - concentrationThreshold)
	}

	b.Adjusted = b.Baseline + b.BookQuality + b.ValuationPenalty + b.SecondaryOptics +
		b.CatalystDiscount + b.DownRoundDiscount + b.DualClassDiscount + b.ConcentrationDiscount
	return b
}
