// Package valuation computes one enterprise value per analysis, routed
// on company classification. Each methodology is deterministic: same
// inputs, same value, no market lookups.
package valuation

import (
	"fmt"
	"math"

	"agentic_ipo/pkg/core/deal"
)

// Methodology labels attached to the result so the report can say how
// the number was produced.
const (
	MethodDCF           = "DCF"
	MethodDCFCrossCheck = "DCF_EBITDA_CROSS_CHECK"
	MethodRevenueFloor  = "REVENUE_MULTIPLE_VS_FLOORED_DCF"
	MethodRNPV          = "RISK_ADJUSTED_NPV"
	MethodHaircutComps  = "HAIRCUT_REVENUE_MULTIPLE"
)

// Pipeline curve shape for the rNPV methodology: linear ramp to peak,
// flat plateau, linear decline to zero.
const (
	rampYears    = 3
	plateauYears = 4
	declineYears = 5
	// pipelineMargin is the fixed operating margin applied to the
	// sales curve before tax.
	pipelineMargin = 0.35
	// missingPipelineHaircut is the multiple haircut applied when a
	// binary-outcome company has no asset-level data at all.
	missingPipelineHaircut = 0.5
)

// Input carries the classification-specific subset of the deal.
type Input struct {
	Classification deal.Classification
	Projections    deal.Projections
	DiscountRate   float64
	TerminalGrowth float64
	TaxRate        float64
	Peers          []deal.PeerMultiple
	Pipeline       []deal.PipelineAsset
}

// Result is one enterprise value plus how it was obtained.
type Result struct {
	EnterpriseValue float64  `json:"enterprise_value"` // $M
	Methodology     string   `json:"methodology"`
	Warnings        []string `json:"warnings,omitempty"`
}

// InputFromDeal extracts the valuation inputs from a full deal.
func InputFromDeal(d *deal.DealAssumptions) Input {
	return Input{
		Classification: d.Classification,
		Projections:    d.Projections,
		DiscountRate:   d.DiscountRate,
		TerminalGrowth: d.TerminalGrowth,
		TaxRate:        d.TaxRate,
		Peers:          d.Peers,
		Pipeline:       d.Pipeline,
	}
}

// Run produces the enterprise valuation for the given classification.
// The only hard failure is a non-positive discount-to-growth spread on
// a DCF path; everything else degrades to a warning.
func Run(in Input) (Result, error) {
	switch in.Classification {
	case deal.ClassMature:
		ev, err := dcfValue(in, false)
		if err != nil {
			return Result{}, err
		}
		return Result{EnterpriseValue: ev, Methodology: MethodDCF}, nil

	case deal.ClassCapitalIntensive:
		ev, err := dcfValue(in, false)
		if err != nil {
			return Result{}, err
		}
		// Conservative cross-check: heavy-asset businesses are prone
		// to DCF overshoot from aggressive margin ramps, so cap at
		// the peer EBITDA multiple when one is observable.
		method := MethodDCF
		if m := MedianEVEBITDA(in.Peers); m > 0 && in.Projections.EBITDA > 0 {
			compEV := in.Projections.EBITDA * m
			if compEV < ev {
				ev = compEV
				method = MethodDCFCrossCheck
			}
		}
		return Result{EnterpriseValue: ev, Methodology: method}, nil

	case deal.ClassHighGrowth:
		// Anti-overvaluation policy: take the lower of a forward
		// revenue multiple and a DCF whose early losses are floored
		// at zero (the floor keeps negative FCF out of the terminal
		// value base).
		flooredDCF, err := dcfValue(in, true)
		if err != nil {
			return Result{}, err
		}
		forwardRev := in.Projections.CurrentRevenue
		if len(in.Projections.GrowthPath) > 0 {
			forwardRev *= 1 + in.Projections.GrowthPath[0]
		}
		multipleEV := forwardRev * MedianEVRevenue(in.Peers)
		ev := flooredDCF
		if multipleEV > 0 && multipleEV < ev {
			ev = multipleEV
		}
		return Result{EnterpriseValue: ev, Methodology: MethodRevenueFloor}, nil

	case deal.ClassBinaryOutcome:
		if len(in.Pipeline) == 0 {
			// Deliberately never the full multiple: an asset-less
			// binary-outcome story gets half the peer multiple and a
			// data-quality flag.
			ev := in.Projections.CurrentRevenue * MedianEVRevenue(in.Peers) * missingPipelineHaircut
			return Result{
				EnterpriseValue: ev,
				Methodology:     MethodHaircutComps,
				Warnings: []string{
					"no pipeline asset data for binary-outcome valuation; applied 0.5x haircut to peer revenue multiple",
				},
			}, nil
		}
		ev := rnpvValue(in)
		return Result{EnterpriseValue: ev, Methodology: MethodRNPV}, nil
	}

	return Result{}, fmt.Errorf("no valuation methodology for classification %q", in.Classification)
}

// dcfValue projects free cash flow over the growth path with a linear
// margin ramp, then adds a Gordon-growth terminal value.
//
// FORMULA: EV = Σ FCF_t/(1+r)^t + [FCF_N(1+g)/(r-g)]/(1+r)^N
func dcfValue(in Input, floorAtZero bool) (float64, error) {
	spread := in.DiscountRate - in.TerminalGrowth
	if spread <= 1e-9 {
		return 0, fmt.Errorf("discount rate %.4f must exceed terminal growth %.4f", in.DiscountRate, in.TerminalGrowth)
	}

	years := len(in.Projections.GrowthPath)
	if years == 0 {
		// Degenerate single-period capitalization of current FCF.
		fcf := in.Projections.CurrentRevenue * in.Projections.TargetMargin
		if floorAtZero && fcf < 0 {
			fcf = 0
		}
		return fcf * (1 + in.TerminalGrowth) / spread, nil
	}

	revenue := in.Projections.CurrentRevenue
	var pvFCF float64
	var finalFCF float64
	for t := 1; t <= years; t++ {
		revenue *= 1 + in.Projections.GrowthPath[t-1]
		margin := rampMargin(in.Projections.CurrentMargin, in.Projections.TargetMargin, t, years)
		fcf := revenue * margin
		if floorAtZero && fcf < 0 {
			fcf = 0
		}
		pvFCF += fcf / math.Pow(1+in.DiscountRate, float64(t))
		if t == years {
			finalFCF = fcf
		}
	}

	terminal := finalFCF * (1 + in.TerminalGrowth) / spread
	pvTerminal := terminal / math.Pow(1+in.DiscountRate, float64(years))
	return pvFCF + pvTerminal, nil
}

// rampMargin interpolates linearly from current to target margin over
// the projection horizon, hitting target in the final year.
func rampMargin(current, target float64, year, horizon int) float64 {
	if horizon <= 1 {
		return target
	}
	step := (target - current) / float64(horizon-1)
	return current + step*float64(year-1)
}

// rnpvValue sums probability-weighted asset NPVs. Each asset's sales
// curve ramps linearly to peak over rampYears, holds for plateauYears,
// then declines linearly to zero over declineYears.
func rnpvValue(in Input) float64 {
	var total float64
	for _, asset := range in.Pipeline {
		var npv float64
		for i, sales := range assetSalesCurve(asset.PeakSales) {
			year := asset.YearsToLaunch + i + 1
			fcf := sales * pipelineMargin * (1 - in.TaxRate)
			npv += fcf / math.Pow(1+in.DiscountRate, float64(year))
		}
		total += npv * asset.ProbSuccess
	}
	return total
}

// assetSalesCurve returns annual sales from launch through the end of
// the decline phase.
func assetSalesCurve(peak float64) []float64 {
	curve := make([]float64, 0, rampYears+plateauYears+declineYears)
	for i := 1; i <= rampYears; i++ {
		curve = append(curve, peak*float64(i)/float64(rampYears))
	}
	for i := 0; i < plateauYears; i++ {
		curve = append(curve, peak)
	}
	for i := declineYears - 1; i >= 1; i-- {
		curve = append(curve, peak*float64(i)/float64(declineYears))
	}
	return curve
}

// MedianEVRevenue returns the peer median EV/Revenue, ignoring peers
// without the multiple. Zero when nothing is observable.
func MedianEVRevenue(peers []deal.PeerMultiple) float64 {
	var mults []float64
	for _, p := range peers {
		if p.EVRevenue > 0 {
			mults = append(mults, p.EVRevenue)
		}
	}
	return median(mults)
}

func MedianEVEBITDA(peers []deal.PeerMultiple) float64 {
	var mults []float64
	for _, p := range peers {
		if p.EVEBITDA > 0 {
			mults = append(mults, p.EVEBITDA)
		}
	}
	return median(mults)
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
