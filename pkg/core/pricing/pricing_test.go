package pricing

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"agentic_ipo/pkg/core/deal"
)

// fixtureDeal is a mid-cap software deal with a live order book; most
// matrix tests start from it and tweak one knob.
func fixtureDeal() *deal.DealAssumptions {
	return &deal.DealAssumptions{
		Company:        "Meridian Software",
		Classification: deal.ClassMature,
		Holders: []deal.Holder{
			{Name: "Founders", Type: deal.HolderFounder, PreIPOShares: 60, VotingMultiple: 10},
			{Name: "Crestline Ventures", Type: deal.HolderVC, PreIPOShares: 30, SecondaryPct: 0.2},
			{Name: "Employee Pool", Type: deal.HolderEmployee, PreIPOShares: 10},
		},
		Projections: deal.Projections{
			CurrentRevenue: 500,
			GrowthPath:     []float64{0.20, 0.15, 0.10},
			CurrentMargin:  0.10,
			TargetMargin:   0.20,
			EBITDA:         80,
		},
		Balance:        deal.BalanceSheet{Cash: 100, Debt: 50},
		DiscountRate:   0.11,
		TerminalGrowth: 0.03,
		TaxRate:        0.21,
		Peers: []deal.PeerMultiple{
			{Name: "NorthStar Systems", EVRevenue: 6, EVEBITDA: 12},
			{Name: "Radix Labs", EVRevenue: 8, EVEBITDA: 15},
		},
		Offer: deal.OfferPlan{
			PrimaryDollars: 200,
			GreenshoePct:   0.15,
			PriceRangeLow:  18,
			PriceRangeHigh: 22,
		},
		Book: []deal.BookTier{
			{Price: 18, Oversubscription: 12},
			{Price: 20, Oversubscription: 8},
			{Price: 22, Oversubscription: 5},
		},
		Orders: []deal.InvestorOrder{
			{Name: "Harbor Capital", Size: 80, MaxPrice: 20},
			{Name: "Longview", Size: 120},
		},
		SectorReturns: []float64{0.15, 0.25},
	}
}

func TestInvertedRangeRefusesPricing(t *testing.T) {
	d := fixtureDeal()
	d.Offer.PriceRangeLow = 22
	d.Offer.PriceRangeHigh = 18
	d.Book = nil

	res := NewEngine().Price(d)
	if res.Err == nil || res.Err.Code != ErrInvalidPriceRange {
		t.Fatalf("Expected %s, got %+v", ErrInvalidPriceRange, res.Err)
	}
	if len(res.Matrix) != 0 {
		t.Errorf("Fatal result must carry an empty matrix, got %d rows", len(res.Matrix))
	}
	if res.RecommendedIndex != -1 {
		t.Errorf("No recommendation on refusal, got index %d", res.RecommendedIndex)
	}
}

func TestMissingRangeRefusesPricing(t *testing.T) {
	d := fixtureDeal()
	d.Offer.PriceRangeLow = 0
	d.Offer.PriceRangeHigh = 0
	res := NewEngine().Price(d)
	if res.Err == nil || res.Err.Code != ErrInvalidPriceRange {
		t.Fatalf("Expected refusal for missing range, got %+v", res.Err)
	}
}

func TestValuationFailureIsFatal(t *testing.T) {
	d := fixtureDeal()
	d.DiscountRate = 0.02
	d.TerminalGrowth = 0.03
	res := NewEngine().Price(d)
	if res.Err == nil || res.Err.Code != ErrValuationFailed {
		t.Fatalf("Expected %s, got %+v", ErrValuationFailed, res.Err)
	}
}

func TestInvalidAssumptionsRejectedBeforePricing(t *testing.T) {
	d := fixtureDeal()
	d.Holders = nil
	res := NewEngine().Price(d)
	if res.Err == nil || res.Err.Code != ErrInvalidAssumptions {
		t.Fatalf("Expected %s, got %+v", ErrInvalidAssumptions, res.Err)
	}
}

func TestMatrixCoversFiledRangeAndBookTiers(t *testing.T) {
	d := fixtureDeal()
	d.Book = append(d.Book, deal.BookTier{Price: 25, Oversubscription: 3})

	res := NewEngine().Price(d)
	if res.Err != nil {
		t.Fatalf("Unexpected error: %v", res.Err)
	}
	first := res.Matrix[0].OfferPrice
	last := res.Matrix[len(res.Matrix)-1].OfferPrice
	if first != 18 {
		t.Errorf("Grid should start at the filed low 18, got %f", first)
	}
	if last != 25 {
		t.Errorf("Grid must extend to cover the $25 tier, got %f", last)
	}
}

func TestMatrixCoversOffStepBookTier(t *testing.T) {
	d := fixtureDeal()
	// $25.40 is not on the $1 step grid from $18; the top must still
	// become a row or that tier's demand level is never priced.
	d.Book = append(d.Book, deal.BookTier{Price: 25.40, Oversubscription: 3})

	res := NewEngine().Price(d)
	if res.Err != nil {
		t.Fatalf("Unexpected error: %v", res.Err)
	}
	last := res.Matrix[len(res.Matrix)-1].OfferPrice
	if last != 25.40 {
		t.Errorf("Grid must extend to cover the $25.40 tier, got %f", last)
	}
	// The step points below the top are still present.
	prev := res.Matrix[len(res.Matrix)-2].OfferPrice
	if prev != 25 {
		t.Errorf("Step grid should reach $25 before the off-step top, got %f", prev)
	}
}

func TestIdempotence(t *testing.T) {
	e := NewEngine()
	a := e.Price(fixtureDeal())
	b := e.Price(fixtureDeal())
	if !reflect.DeepEqual(a, b) {
		t.Error("Identical inputs must produce identical results")
	}
}

func TestDilutionInRangeForAllRows(t *testing.T) {
	res := NewEngine().Price(fixtureDeal())
	if res.Err != nil {
		t.Fatalf("Unexpected error: %v", res.Err)
	}
	for _, row := range res.Matrix {
		if row.Shares.DilutionPct < 0 || row.Shares.DilutionPct >= 100 {
			t.Errorf("Dilution out of [0,100) at $%.2f: %f", row.OfferPrice, row.Shares.DilutionPct)
		}
	}
}

func TestEnterpriseValueBridgeHoldsEverywhere(t *testing.T) {
	res := NewEngine().Price(fixtureDeal())
	for _, row := range res.Matrix {
		want := row.MarketCap + row.Shares.PostIPODebt - row.Shares.PostIPOCash
		if math.Abs(row.EnterpriseValue-want) > 1e-6 {
			t.Errorf("EV bridge broken at $%.2f: %f vs %f", row.OfferPrice, row.EnterpriseValue, want)
		}
	}
}

func TestValuationComputedOncePerAnalysis(t *testing.T) {
	res := NewEngine().Price(fixtureDeal())
	if res.Valuation.EnterpriseValue <= 0 {
		t.Fatal("Expected a positive enterprise valuation")
	}
	// Fair value support must be consistent with the single fair
	// value across all rows: support/price constant.
	ratio := res.Matrix[0].FairValueSupport / res.Matrix[0].OfferPrice
	for _, row := range res.Matrix[1:] {
		if math.Abs(row.FairValueSupport/row.OfferPrice-ratio) > 1e-9 {
			t.Errorf("Fair value changed across rows at $%.2f", row.OfferPrice)
		}
	}
}

func TestOwnershipTableAtRecommendedPrice(t *testing.T) {
	res := NewEngine().Price(fixtureDeal())
	if len(res.Ownership) != 4 { // 3 holders + public
		t.Fatalf("Expected 4 ownership entries, got %d", len(res.Ownership))
	}
	var sum float64
	for _, e := range res.Ownership {
		sum += e.PostPct
	}
	if math.Abs(sum-100) > 0.5 {
		t.Errorf("Ownership must sum to ~100%%, got %f", sum)
	}
}

func TestInvestorDropOffAboveLimitPrice(t *testing.T) {
	res := NewEngine().Price(fixtureDeal())
	for _, row := range res.Matrix {
		if row.OfferPrice <= 20 && row.LostDemand != 0 {
			t.Errorf("No drop-off at or below $20, got %f at $%.2f", row.LostDemand, row.OfferPrice)
		}
		if row.OfferPrice > 20 && row.LostDemand != 80 {
			t.Errorf("Harbor Capital (80) should drop above $20, got %f at $%.2f", row.LostDemand, row.OfferPrice)
		}
	}
}

func TestMaximumPolicyPicksTopOfGrid(t *testing.T) {
	d := fixtureDeal()
	d.Policy.Aggressiveness = deal.PolicyMaximum
	res := NewEngine().Price(d)
	if res.RecommendedIndex != len(res.Matrix)-1 {
		t.Errorf("Maximum policy must pick the last row, got %d", res.RecommendedIndex)
	}
}

func TestConservativePolicyWantsCoverage(t *testing.T) {
	d := fixtureDeal()
	d.Policy.Aggressiveness = deal.PolicyConservative
	res := NewEngine().Price(d)
	rec := res.Matrix[res.RecommendedIndex]
	if rec.EffectiveOversub < conservativeCoverageBar {
		t.Errorf("Conservative pick should clear %.1fx, got %.2fx", conservativeCoverageBar, rec.EffectiveOversub)
	}
	if res.RecommendedIndex != 0 {
		// With 12x at the bottom tier, the lowest grid point already
		// clears the bar.
		t.Errorf("Expected the lowest price, got index %d", res.RecommendedIndex)
	}
}

func TestDealCertaintyCapsAtMidpointAndFloorsAtMinimum(t *testing.T) {
	d := fixtureDeal()
	d.Policy.Priority = deal.PriorityDealCertainty
	d.Policy.MinimumPrice = 19
	res := NewEngine().Price(d)
	rec := res.Matrix[res.RecommendedIndex]
	if rec.OfferPrice < 19 {
		t.Errorf("Recommendation below the explicit minimum: %f", rec.OfferPrice)
	}
	if rec.OfferPrice > 20 { // filed midpoint
		t.Errorf("Deal-certainty pick must not exceed the filed midpoint, got %f", rec.OfferPrice)
	}
}

func TestDefaultPolicyPicksMidpoint(t *testing.T) {
	res := NewEngine().Price(fixtureDeal())
	if res.RecommendedPrice != 20 {
		t.Errorf("Expected the filed midpoint $20, got %f", res.RecommendedPrice)
	}
	if res.Rationale == "" {
		t.Error("Selection must explain itself")
	}
}

func TestSelectionAlwaysResolves(t *testing.T) {
	// Strip the book so no coverage criterion can match; every policy
	// must still land on a concrete row.
	for _, pol := range []deal.Aggressiveness{deal.PolicyMaximum, deal.PolicyConservative, deal.PolicyModerate, ""} {
		d := fixtureDeal()
		d.Book = nil
		d.Orders = nil
		d.Policy.Aggressiveness = pol
		res := NewEngine().Price(d)
		if res.Err != nil {
			t.Fatalf("Unexpected error for policy %q: %v", pol, res.Err)
		}
		if res.RecommendedIndex < 0 || res.RecommendedIndex >= len(res.Matrix) {
			t.Errorf("Policy %q left the price unresolved: index %d", pol, res.RecommendedIndex)
		}
	}
}

func TestPriceAboveFairValueWarns(t *testing.T) {
	d := fixtureDeal()
	// Shrink the business so every grid price is rich.
	d.Projections.CurrentRevenue = 50
	d.Projections.GrowthPath = []float64{0.05}
	d.Projections.CurrentMargin = 0.05
	d.Projections.TargetMargin = 0.05

	res := NewEngine().Price(d)
	if res.Err != nil {
		t.Fatalf("Unexpected error: %v", res.Err)
	}
	top := res.Matrix[len(res.Matrix)-1]
	found := false
	for _, w := range top.Warnings {
		if strings.Contains(w, "fair value") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a fair-value warning on the top row, got %v", top.Warnings)
	}
	if top.Return.ValuationPenalty >= 0 {
		t.Errorf("Expected a negative valuation penalty, got %f", top.Return.ValuationPenalty)
	}
}

func TestDownRoundFlaggedInMatrix(t *testing.T) {
	d := fixtureDeal()
	d.Risk.LastPrivatePrice = 40
	d.Risk.DownRoundOptics = true
	d.Risk.DownRoundPenalty = 0.5

	res := NewEngine().Price(d)
	for _, row := range res.Matrix {
		if !row.Return.IsDownRound {
			t.Fatalf("Every grid price sits below $40; expected down-round at $%.2f", row.OfferPrice)
		}
	}
	// At $32 the gap would be -20%; at $20 it is -50%.
	row := res.Matrix[2] // $20
	if math.Abs(row.Return.DownRoundPct-(-50)) > 1e-6 {
		t.Errorf("Expected -50%% at $20, got %f", row.Return.DownRoundPct)
	}
}
