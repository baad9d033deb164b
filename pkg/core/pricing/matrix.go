package pricing

import (
	"fmt"
	"math"

	"agentic_ipo/pkg/core/deal"
	"agentic_ipo/pkg/core/demand"
	"agentic_ipo/pkg/core/mechanics"
	"agentic_ipo/pkg/core/ownership"
	"agentic_ipo/pkg/core/returns"
	"agentic_ipo/pkg/core/trace"
	"agentic_ipo/pkg/core/valuation"
)

// Engine prices one deal. It holds no state between calls: every
// invocation recomputes the full matrix from the immutable input, so
// one Engine is safe to share across concurrent analyses.
type Engine struct {
	tracer trace.Tracer
}

// NewEngine returns an engine with a no-op tracer.
func NewEngine() *Engine {
	return &Engine{tracer: trace.Nop{}}
}

// SetTracer installs a diagnostic callback. Passing nil restores the
// no-op tracer.
func (e *Engine) SetTracer(t trace.Tracer) {
	if t == nil {
		t = trace.Nop{}
	}
	e.tracer = t
}

// Price runs the full analysis: validation, one valuation, the price
// matrix, and the policy recommendation. Fatal conditions come back as
// a structured error result with an empty matrix.
func (e *Engine) Price(d *deal.DealAssumptions) *Result {
	if err := deal.Validate(d); err != nil {
		return fatal(companyName(d), ErrInvalidAssumptions, err.Error())
	}

	low, high := d.Offer.PriceRangeLow, d.Offer.PriceRangeHigh
	if low <= 0 || high <= low {
		return fatal(d.Company, ErrInvalidPriceRange,
			fmt.Sprintf("indicated price range [%.2f, %.2f] is missing or inverted; pricing refused", low, high))
	}

	// Valuation runs exactly once and is reused unchanged across all
	// price points.
	val, err := valuation.Run(valuation.InputFromDeal(d))
	if err != nil {
		return fatal(d.Company, ErrValuationFailed, err.Error())
	}
	e.tracer.Trace("VALUATION", "%s: EV $%.0fM via %s", d.Company, val.EnterpriseValue, val.Methodology)

	res := &Result{Company: d.Company, Valuation: val}
	res.Warnings = append(res.Warnings, val.Warnings...)

	preShares := d.PreIPOShares()
	// Intrinsic equity per pre-IPO share: EV bridged to equity with
	// the pre-deal balance sheet.
	res.FairValuePerShare = (val.EnterpriseValue + d.Balance.Cash - d.Balance.Debt) / preShares

	gridLow, gridHigh := priceGrid(low, high, d.Book)
	step := d.PriceStep()
	points := int(math.Floor((gridHigh-gridLow)/step+1e-9)) + 1
	// A tier off the step grid still gets a row: the grid top is a
	// real point even when the span is not a whole number of steps.
	appendTop := gridLow+float64(points-1)*step < gridHigh-1e-9
	e.tracer.Trace("MATRIX", "grid $%.2f..$%.2f step %.2f (%d points)", gridLow, gridHigh, step, points)

	secondary := d.SecondarySharesTotal()
	fee := d.UnderwritingFee()
	medEVRev := valuation.MedianEVRevenue(d.Peers)
	medEVEBITDA := valuation.MedianEVEBITDA(d.Peers)

	for i := 0; i < points; i++ {
		price := gridLow + float64(i)*step
		row := e.buildRow(d, price, preShares, secondary, fee, res.FairValuePerShare, medEVRev, medEVEBITDA)
		res.Matrix = append(res.Matrix, row)
	}
	if appendTop {
		row := e.buildRow(d, gridHigh, preShares, secondary, fee, res.FairValuePerShare, medEVRev, medEVEBITDA)
		res.Matrix = append(res.Matrix, row)
	}

	idx, rationale := selectRecommendation(res.Matrix, d, low, high)
	res.RecommendedIndex = idx
	res.RecommendedPrice = res.Matrix[idx].OfferPrice
	res.Rationale = rationale
	e.tracer.Trace("SELECT", "recommended $%.2f: %s", res.RecommendedPrice, rationale)

	// Ownership table at the recommended price.
	rec := res.Matrix[idx]
	table, ownWarnings := ownership.Table(ownership.Input{
		Holders:         d.Holders,
		PublicFloat:     rec.Shares.TotalSharesSold,
		PostIPOShares:   rec.Shares.PostIPOShares,
		DualClass:       d.Risk.DualClass,
		FounderFloorPct: d.Policy.FounderFloorPct,
	})
	res.Ownership = table
	res.Warnings = append(res.Warnings, ownWarnings...)

	if d.Risk.CustomerConcentration > 0.40 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("customer concentration %.0f%% exceeds the 40%% threshold", d.Risk.CustomerConcentration*100))
	}

	return res
}

// buildRow composes share mechanics, ownership, demand and the return
// estimator for one candidate price.
func (e *Engine) buildRow(d *deal.DealAssumptions, price, preShares, secondary, fee, fairValue, medEVRev, medEVEBITDA float64) Row {
	row := Row{OfferPrice: price}

	row.Shares = mechanics.Compute(mechanics.Input{
		OfferPrice:      price,
		PreIPOShares:    preShares,
		PrimaryShares:   d.Offer.PrimaryShares,
		PrimaryDollars:  d.Offer.PrimaryDollars,
		SecondaryShares: secondary,
		GreenshoePct:    d.Offer.GreenshoePct,
		UnderwritingFee: fee,
		Cash:            d.Balance.Cash,
		Debt:            d.Balance.Debt,
		DebtRepayment:   d.Offer.DebtRepayment,
	})
	row.Warnings = append(row.Warnings, row.Shares.Warnings...)

	// Ownership invariants are checked at every price point even
	// though the result only carries the recommended table.
	_, ownWarnings := ownership.Table(ownership.Input{
		Holders:         d.Holders,
		PublicFloat:     row.Shares.TotalSharesSold,
		PostIPOShares:   row.Shares.PostIPOShares,
		DualClass:       d.Risk.DualClass,
		FounderFloorPct: d.Policy.FounderFloorPct,
	})
	row.Warnings = append(row.Warnings, ownWarnings...)

	// EV bridge with the post-deal balance sheet, uniformly:
	// EV = market cap + debt - cash.
	row.MarketCap = row.Shares.PostIPOShares * price
	row.EnterpriseValue = row.MarketCap + row.Shares.PostIPODebt - row.Shares.PostIPOCash

	if d.Projections.CurrentRevenue > 0 {
		row.EVRevenue = row.EnterpriseValue / d.Projections.CurrentRevenue
		if medEVRev > 0 {
			row.PeerEVRevenueDelta = row.EVRevenue - medEVRev
		}
	}
	if d.Projections.EBITDA > 0 {
		row.EVEBITDA = row.EnterpriseValue / d.Projections.EBITDA
		if medEVEBITDA > 0 {
			row.PeerEVEBITDADelta = row.EVEBITDA - medEVEBITDA
		}
	}

	if fairValue > 0 {
		row.FairValueSupport = price / fairValue * 100
		if price >= fairValue {
			row.Warnings = append(row.Warnings,
				fmt.Sprintf("offer price $%.2f at or above fair value $%.2f", price, fairValue))
		}
	}

	dem := demand.Model(d.Book, d.Orders, price, row.Shares.GrossProceeds)
	row.HasBook = dem.HasBook
	row.RawOversub = dem.Raw
	row.EffectiveOversub = dem.Effective
	row.LostDemand = dem.LostDemand
	row.Warnings = append(row.Warnings, dem.Warnings...)

	secondaryFraction := 0.0
	if row.Shares.TotalSharesSold > 0 {
		secondaryFraction = row.Shares.SecondaryShares / row.Shares.TotalSharesSold
	}
	row.Return = returns.Estimate(returns.Input{
		SectorReturns:           d.SectorReturns,
		HasBook:                 dem.HasBook,
		EffectiveOversub:        dem.Effective,
		OfferPrice:              price,
		FairValue:               fairValue,
		SecondaryFraction:       secondaryFraction,
		NegativeSecondaryOptics: d.Risk.NegativeSecondaryOptics,
		BinaryCatalyst:          d.Risk.BinaryCatalyst,
		MonthsToCatalyst:        d.Risk.MonthsToCatalyst,
		LastPrivatePrice:        d.Risk.LastPrivatePrice,
		DownRoundOptics:         d.Risk.DownRoundOptics,
		DownRoundPenalty:        d.Risk.DownRoundPenalty,
		DualClass:               d.Risk.DualClass,
		GovernanceDiscount:      d.Risk.GovernanceDiscount,
		CustomerConcentration:   d.Risk.CustomerConcentration,
	})
	if row.Return.IsDownRound {
		row.Warnings = append(row.Warnings,
			fmt.Sprintf("pricing at $%.2f is %.1f%% below the last private round", price, -row.Return.DownRoundPct))
	}

	return row
}

// priceGrid extends the filed range so every observed order-book tier
// is covered by the matrix.
func priceGrid(low, high float64, tiers []deal.BookTier) (float64, float64) {
	for _, t := range tiers {
		if t.Price < low {
			low = t.Price
		}
		if t.Price > high {
			high = t.Price
		}
	}
	return low, high
}

func companyName(d *deal.DealAssumptions) string {
	if d == nil {
		return ""
	}
	return d.Company
}
