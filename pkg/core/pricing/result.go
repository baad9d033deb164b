// Package pricing builds the candidate-price matrix and selects one
// recommended offer price under the deal's pricing policy. It is the
// composition root of the engine: valuation runs once per analysis,
// then share mechanics, ownership, demand and the return estimator run
// per price point.
package pricing

import (
	"agentic_ipo/pkg/core/mechanics"
	"agentic_ipo/pkg/core/ownership"
	"agentic_ipo/pkg/core/returns"
	"agentic_ipo/pkg/core/valuation"
)

// Fatal error codes. A fatal condition refuses the computation: the
// result carries the error and an empty matrix, nothing else.
const (
	ErrInvalidAssumptions = "INVALID_ASSUMPTIONS"
	ErrInvalidPriceRange  = "INVALID_PRICE_RANGE"
	ErrValuationFailed    = "VALUATION_FAILED"
)

// Error is the structured fatal result. Pricing is refused rather than
// guessed; presentation layers show Message as-is.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Row is one fully recomputed candidate price point.
type Row struct {
	OfferPrice float64 `json:"offer_price"`

	Shares mechanics.Result `json:"shares"`

	MarketCap       float64 `json:"market_cap"`       // $M at this price
	EnterpriseValue float64 `json:"enterprise_value"` // mcap + post debt - post cash

	EVRevenue          float64 `json:"ev_revenue"` // this row's implied multiples
	EVEBITDA           float64 `json:"ev_ebitda,omitempty"`
	PeerEVRevenueDelta float64 `json:"peer_ev_revenue_delta"` // row minus peer median
	PeerEVEBITDADelta  float64 `json:"peer_ev_ebitda_delta,omitempty"`

	// FairValueSupport is the offer price as a percentage of the
	// intrinsic per-share value from the valuation engine.
	FairValueSupport float64 `json:"fair_value_support"`

	HasBook          bool    `json:"has_book"`
	RawOversub       float64 `json:"raw_oversubscription"`
	EffectiveOversub float64 `json:"effective_oversubscription"`
	LostDemand       float64 `json:"lost_demand"`

	Return returns.Breakdown `json:"return"`

	Warnings []string `json:"warnings,omitempty"`
}

// Result is the complete output of one analysis. When Err is set the
// matrix is empty and no other field is meaningful.
type Result struct {
	Company string `json:"company"`

	Valuation         valuation.Result `json:"valuation"`
	FairValuePerShare float64          `json:"fair_value_per_share"`

	Matrix []Row `json:"matrix"`

	RecommendedIndex int     `json:"recommended_index"`
	RecommendedPrice float64 `json:"recommended_price"`
	Rationale        string  `json:"rationale"`

	// Ownership is the table at the recommended price.
	Ownership []ownership.Entry `json:"ownership"`

	Warnings []string `json:"warnings,omitempty"`

	Err *Error `json:"error,omitempty"`
}

func fatal(company, code, message string) *Result {
	return &Result{
		Company:          company,
		RecommendedIndex: -1,
		Err:              &Error{Code: code, Message: message},
	}
}
