package deal

import (
	"math"
	"strings"
	"testing"
)

func validDeal() *DealAssumptions {
	return &DealAssumptions{
		Company:        "Acme Robotics",
		Classification: ClassMature,
		Holders: []Holder{
			{Name: "Founders", Type: HolderFounder, PreIPOShares: 60},
			{Name: "Growth Fund", Type: HolderVC, PreIPOShares: 40},
		},
		Projections:  Projections{CurrentRevenue: 500, GrowthPath: []float64{0.1}, TargetMargin: 0.2},
		DiscountRate: 0.11,
		TaxRate:      0.21,
		Offer:        OfferPlan{PrimaryDollars: 200, PriceRangeLow: 18, PriceRangeHigh: 22},
	}
}

func TestSecondaryFromHolderFractions(t *testing.T) {
	// Holder with 20M shares selling 40% => 8M secondary, 12M kept.
	d := validDeal()
	d.Holders = []Holder{
		{Name: "Founder", Type: HolderFounder, PreIPOShares: 80},
		{Name: "Early VC", Type: HolderVC, PreIPOShares: 20, SecondaryPct: 0.40},
	}
	d.Offer.SecondaryShares = 99 // must be ignored once fractions exist

	if got := d.SecondarySharesTotal(); math.Abs(got-8) > 1e-9 {
		t.Errorf("Expected 8M secondary from fractions, got %f", got)
	}
}

func TestSecondaryFallsBackToExplicitTotal(t *testing.T) {
	d := validDeal()
	d.Offer.SecondaryShares = 5
	if got := d.SecondarySharesTotal(); got != 5 {
		t.Errorf("Expected explicit 5M secondary, got %f", got)
	}
}

func TestValidateAcceptsWellFormedDeal(t *testing.T) {
	if err := Validate(validDeal()); err != nil {
		t.Fatalf("Expected valid deal, got %v", err)
	}
}

func TestValidateRejectsEmptyCapTable(t *testing.T) {
	d := validDeal()
	d.Holders = nil
	err := Validate(d)
	if err == nil {
		t.Fatal("Expected rejection for empty cap table")
	}
	if !strings.Contains(err.Error(), "cap table") {
		t.Errorf("Error should mention the cap table: %v", err)
	}
}

func TestValidateRejectsNonPositiveShares(t *testing.T) {
	d := validDeal()
	d.Holders = []Holder{{Name: "Ghost", PreIPOShares: 0}}
	if err := Validate(d); err == nil {
		t.Fatal("Expected rejection for zero pre-IPO share count")
	}
}

func TestValidateRejectsAmbiguousRaise(t *testing.T) {
	d := validDeal()
	d.Offer.PrimaryShares = 10 // dollars already set
	err := Validate(d)
	if err == nil {
		t.Fatal("Expected rejection when both share and dollar targets are set")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if len(verr.Issues) == 0 {
		t.Error("ValidationError should list issues")
	}
}

func TestValidateCollectsAllIssuesAtOnce(t *testing.T) {
	d := validDeal()
	d.Company = ""
	d.Classification = "MYSTERY"
	d.DiscountRate = 0
	err := Validate(d)
	if err == nil {
		t.Fatal("Expected rejection")
	}
	verr := err.(*ValidationError)
	if len(verr.Issues) < 3 {
		t.Errorf("Expected at least 3 issues reported together, got %d: %v", len(verr.Issues), verr.Issues)
	}
}

func TestDefaults(t *testing.T) {
	d := validDeal()
	if d.UnderwritingFee() != DefaultUnderwritingFee {
		t.Errorf("Expected default fee %f, got %f", DefaultUnderwritingFee, d.UnderwritingFee())
	}
	d.Offer.UnderwritingFee = 0.05
	if d.UnderwritingFee() != 0.05 {
		t.Errorf("Explicit fee should win, got %f", d.UnderwritingFee())
	}
	if d.PriceStep() != DefaultPriceStep {
		t.Errorf("Expected default step %f, got %f", DefaultPriceStep, d.PriceStep())
	}
}
