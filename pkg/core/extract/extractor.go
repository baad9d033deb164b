// Package extract turns free prospectus text into a validated
// DealAssumptions via a hosted text-generation provider. The provider
// output is untrusted: it goes through a repair-then-validate ladder
// and comes back as a tagged outcome, never as a bare struct.
package extract

import (
	"context"
	"fmt"

	"agentic_ipo/pkg/core/deal"
	"agentic_ipo/pkg/core/llm"
)

// Failure stages for the tagged outcome.
const (
	StageGeneration = "GENERATION" // provider call failed
	StageParse      = "PARSE"      // output was not JSON in any dialect
	StageValidation = "VALIDATION" // JSON parsed but the deal is unusable
)

// Failure is the typed rejection of one extraction attempt.
type Failure struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extraction failed at %s: %s", f.Stage, f.Detail)
}

// Outcome is the tagged result of an extraction: either a fully-typed,
// validated DealAssumptions or a typed failure. Exactly one of Deal
// and Failure is set.
type Outcome struct {
	Deal    *deal.DealAssumptions `json:"deal,omitempty"`
	Failure *Failure              `json:"failure,omitempty"`
	// RawJSON is the provider JSON that parsed (possibly after
	// repair); kept for audit even on validation failures.
	RawJSON string `json:"raw_json,omitempty"`
}

// OK reports whether the extraction produced a usable deal.
func (o Outcome) OK() bool { return o.Deal != nil && o.Failure == nil }

const systemPrompt = `You are an IPO analyst. Extract a structured deal description from the prospectus text you are given. Respond with a single JSON object and nothing else, using this schema (share counts in millions, money in $M, rates and fractions as decimals, prices in dollars):

{
  "company": string,
  "classification": "MATURE" | "CAPITAL_INTENSIVE" | "HIGH_GROWTH" | "BINARY_OUTCOME",
  "holders": [{"name": string, "type": "FOUNDER"|"VC"|"EMPLOYEE"|"OTHER", "pre_ipo_shares": number, "voting_multiple": number, "secondary_pct": number}],
  "projections": {"current_revenue": number, "growth_path": [number], "current_margin": number, "target_margin": number, "ebitda": number},
  "balance": {"cash": number, "debt": number},
  "discount_rate": number, "terminal_growth": number, "tax_rate": number,
  "peers": [{"name": string, "ev_revenue": number, "ev_ebitda": number}],
  "pipeline": [{"name": string, "prob_success": number, "peak_sales": number, "years_to_launch": number}],
  "offer": {"primary_shares": number, "primary_dollars": number, "secondary_shares": number, "greenshoe_pct": number, "underwriting_fee": number, "debt_repayment": number, "price_range_low": number, "price_range_high": number},
  "book": [{"price": number, "oversubscription": number}],
  "orders": [{"name": string, "size": number, "max_price": number}],
  "sector_returns": [number],
  "policy": {"aggressiveness": "MAXIMUM"|"CONSERVATIVE"|"MODERATE", "priority": "DEAL_CERTAINTY"|"RUNWAY_EXTENSION"|"", "minimum_price": number, "founder_floor_pct": number},
  "risk": {"binary_catalyst": bool, "months_to_catalyst": number, "last_private_price": number, "down_round_optics": bool, "down_round_penalty": number, "dual_class": bool, "governance_discount": number, "customer_concentration": number, "negative_secondary_optics": bool}
}

Omit fields the text does not support; never invent numbers. Use exactly one of primary_shares / primary_dollars.`

// Extractor runs one provider with the extraction prompt.
type Extractor struct {
	provider llm.Provider
	options  map[string]interface{}
}

// NewExtractor wraps a provider. Options are passed through to every
// generation call (model overrides etc).
func NewExtractor(provider llm.Provider, options map[string]interface{}) *Extractor {
	if options == nil {
		options = map[string]interface{}{}
	}
	options["response_format"] = map[string]interface{}{"type": "json_object"}
	return &Extractor{provider: provider, options: options}
}

// Extract runs the full ladder: generate, parse (with repair),
// validate. The outcome is tagged; callers branch on OK().
func (e *Extractor) Extract(ctx context.Context, prospectusText string) Outcome {
	raw, err := e.provider.GenerateResponse(ctx, prospectusText, systemPrompt, e.options)
	if err != nil {
		return Outcome{Failure: &Failure{Stage: StageGeneration, Detail: err.Error()}}
	}

	var d deal.DealAssumptions
	parsed, err := SmartParse(raw, &d)
	if err != nil {
		return Outcome{Failure: &Failure{Stage: StageParse, Detail: err.Error()}}
	}

	if err := deal.Validate(&d); err != nil {
		return Outcome{
			Failure: &Failure{Stage: StageValidation, Detail: err.Error()},
			RawJSON: parsed,
		}
	}

	return Outcome{Deal: &d, RawJSON: parsed}
}
