// Package deal defines the immutable input model for an IPO pricing
// analysis. A DealAssumptions is constructed once per analysis (either
// by hand or by the extraction layer) and never mutated; everything the
// engine computes is derived from it on each invocation.
package deal

// Unit conventions, used everywhere downstream:
//   - share counts in millions
//   - money amounts in $M
//   - per-share prices in dollars
//   - rates, margins and fractions as decimals (0.07 = 7%)

// Classification routes the valuation methodology.
type Classification string

const (
	ClassMature           Classification = "MATURE"            // cash-generative, standard DCF
	ClassCapitalIntensive Classification = "CAPITAL_INTENSIVE" // DCF with EV/EBITDA cross-check
	ClassHighGrowth       Classification = "HIGH_GROWTH"       // revenue multiple vs floored DCF
	ClassBinaryOutcome    Classification = "BINARY_OUTCOME"    // pre-revenue, pipeline rNPV
)

// HolderType tags cap-table entries; FOUNDER entries feed the
// founder-ownership floor check.
type HolderType string

const (
	HolderFounder  HolderType = "FOUNDER"
	HolderVC       HolderType = "VC"
	HolderEmployee HolderType = "EMPLOYEE"
	HolderOther    HolderType = "OTHER"
)

// Holder is one pre-IPO cap-table entry.
type Holder struct {
	Name         string     `json:"name"`
	Type         HolderType `json:"type"`
	PreIPOShares float64    `json:"pre_ipo_shares"` // millions
	// VotingMultiple is the per-share voting weight of this holder's
	// class. Zero means an ordinary 1x share; the multiple only takes
	// effect when the deal's dual-class flag is set.
	VotingMultiple float64 `json:"voting_multiple,omitempty"`
	// SecondaryPct is the fraction of this holder's stake sold into
	// the offering (0.40 = 40% of the holding).
	SecondaryPct float64 `json:"secondary_pct,omitempty"`
}

// Projections holds the financial projection set for DCF-style
// methodologies.
type Projections struct {
	CurrentRevenue float64   `json:"current_revenue"` // $M, trailing
	GrowthPath     []float64 `json:"growth_path"`     // YoY growth per projection year
	CurrentMargin  float64   `json:"current_margin"`  // FCF margin today
	TargetMargin   float64   `json:"target_margin"`   // FCF margin at end of horizon
	EBITDA         float64   `json:"ebitda"`          // $M, current
}

// BalanceSheet carries the two items the EV bridge needs.
type BalanceSheet struct {
	Cash float64 `json:"cash"` // $M
	Debt float64 `json:"debt"` // $M
}

// PeerMultiple is one comparable company's trading multiples. Zero
// means the multiple is unavailable for that peer.
type PeerMultiple struct {
	Name      string  `json:"name"`
	EVRevenue float64 `json:"ev_revenue,omitempty"`
	EVEBITDA  float64 `json:"ev_ebitda,omitempty"`
}

// PipelineAsset describes one binary-outcome asset (e.g. a clinical
// program) for the rNPV methodology.
type PipelineAsset struct {
	Name          string  `json:"name"`
	ProbSuccess   float64 `json:"prob_success"`    // 0..1
	PeakSales     float64 `json:"peak_sales"`      // $M annual at plateau
	YearsToLaunch int     `json:"years_to_launch"` // from the analysis date
}

// OfferPlan describes the offering structure. Exactly one of
// PrimaryShares / PrimaryDollars should be set: a dollar-denominated
// raise is converted to shares at each candidate price, a
// share-denominated raise is fixed.
type OfferPlan struct {
	PrimaryShares  float64 `json:"primary_shares,omitempty"`  // millions
	PrimaryDollars float64 `json:"primary_dollars,omitempty"` // $M target raise
	// SecondaryShares is the explicit secondary total; ignored when
	// any holder specifies a SecondaryPct.
	SecondaryShares float64 `json:"secondary_shares,omitempty"` // millions
	GreenshoePct    float64 `json:"greenshoe_pct,omitempty"`    // of base deal
	UnderwritingFee float64 `json:"underwriting_fee,omitempty"` // 0 => DefaultUnderwritingFee
	DebtRepayment   float64 `json:"debt_repayment,omitempty"`   // $M from primary proceeds

	PriceRangeLow  float64 `json:"price_range_low"`  // filed range, $
	PriceRangeHigh float64 `json:"price_range_high"` // filed range, $
	PriceStep      float64 `json:"price_step,omitempty"`
}

// DefaultUnderwritingFee applies when the plan does not specify one.
const DefaultUnderwritingFee = 0.07

// DefaultPriceStep is the candidate-price grid spacing when the plan
// does not specify one.
const DefaultPriceStep = 1.0

// BookTier is one observed order-book level: demand coverage at or
// above the given price.
type BookTier struct {
	Price            float64 `json:"price"`
	Oversubscription float64 `json:"oversubscription"` // x covered
}

// InvestorOrder is a named order in the book. MaxPrice zero means the
// investor holds at any price in the range.
type InvestorOrder struct {
	Name     string  `json:"name"`
	Size     float64 `json:"size"` // $M indicated
	MaxPrice float64 `json:"max_price,omitempty"`
}

// Aggressiveness selects the pricing policy family.
type Aggressiveness string

const (
	PolicyMaximum      Aggressiveness = "MAXIMUM"
	PolicyConservative Aggressiveness = "CONSERVATIVE"
	PolicyModerate     Aggressiveness = "MODERATE"
)

// ManagementPriority refines the policy when management has a stated
// objective beyond price level.
type ManagementPriority string

const (
	PriorityNone            ManagementPriority = ""
	PriorityDealCertainty   ManagementPriority = "DEAL_CERTAINTY"
	PriorityRunwayExtension ManagementPriority = "RUNWAY_EXTENSION"
)

// PricingPolicy carries the qualitative knobs the recommendation
// selector applies to the finished matrix.
type PricingPolicy struct {
	Aggressiveness  Aggressiveness     `json:"aggressiveness,omitempty"`
	Priority        ManagementPriority `json:"priority,omitempty"`
	MinimumPrice    float64            `json:"minimum_price,omitempty"`     // $
	FounderFloorPct float64            `json:"founder_floor_pct,omitempty"` // post-IPO %, warning only
}

// RiskFlags collects the qualitative risk inputs that drive the
// day-one return adjustments. Every field is optional; a missing
// trigger always means a zero adjustment, never a default magnitude.
type RiskFlags struct {
	BinaryCatalyst   bool    `json:"binary_catalyst,omitempty"`
	MonthsToCatalyst float64 `json:"months_to_catalyst,omitempty"`

	LastPrivatePrice float64 `json:"last_private_price,omitempty"` // $ per share
	DownRoundOptics  bool    `json:"down_round_optics,omitempty"`
	DownRoundPenalty float64 `json:"down_round_penalty,omitempty"` // coefficient

	DualClass          bool    `json:"dual_class,omitempty"`
	GovernanceDiscount float64 `json:"governance_discount,omitempty"`

	// CustomerConcentration is the largest customer's revenue share;
	// only the excess above 40% becomes a discount.
	CustomerConcentration float64 `json:"customer_concentration,omitempty"`

	NegativeSecondaryOptics bool `json:"negative_secondary_optics,omitempty"`
}

// DealAssumptions is the complete, immutable input to one analysis.
type DealAssumptions struct {
	Company        string         `json:"company"`
	Classification Classification `json:"classification"`

	Holders     []Holder     `json:"holders"`
	Projections Projections  `json:"projections"`
	Balance     BalanceSheet `json:"balance"`

	DiscountRate   float64 `json:"discount_rate"`
	TerminalGrowth float64 `json:"terminal_growth"`
	TaxRate        float64 `json:"tax_rate"`

	Peers    []PeerMultiple  `json:"peers,omitempty"`
	Pipeline []PipelineAsset `json:"pipeline,omitempty"`

	Offer  OfferPlan       `json:"offer"`
	Book   []BookTier      `json:"book,omitempty"`
	Orders []InvestorOrder `json:"orders,omitempty"`

	// SectorReturns are benchmark first-day returns for the sector;
	// the baseline return is only computed when at least one is given.
	SectorReturns []float64 `json:"sector_returns,omitempty"`

	Policy PricingPolicy `json:"policy,omitempty"`
	Risk   RiskFlags     `json:"risk,omitempty"`
}

// PreIPOShares sums the cap table. The validation boundary requires
// this to be positive before any pricing runs.
func (d *DealAssumptions) PreIPOShares() float64 {
	var total float64
	for _, h := range d.Holders {
		total += h.PreIPOShares
	}
	return total
}

// SecondarySharesTotal resolves the secondary tranche: per-holder
// fractions win over the plan's explicit total.
func (d *DealAssumptions) SecondarySharesTotal() float64 {
	var fromHolders float64
	var anyPct bool
	for _, h := range d.Holders {
		if h.SecondaryPct > 0 {
			anyPct = true
			fromHolders += h.PreIPOShares * h.SecondaryPct
		}
	}
	if anyPct {
		return fromHolders
	}
	return d.Offer.SecondaryShares
}

// UnderwritingFee returns the plan's fee or the default.
func (d *DealAssumptions) UnderwritingFee() float64 {
	if d.Offer.UnderwritingFee > 0 {
		return d.Offer.UnderwritingFee
	}
	return DefaultUnderwritingFee
}

// PriceStep returns the plan's grid spacing or the default.
func (d *DealAssumptions) PriceStep() float64 {
	if d.Offer.PriceStep > 0 {
		return d.Offer.PriceStep
	}
	return DefaultPriceStep
}
