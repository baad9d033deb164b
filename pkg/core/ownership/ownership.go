// Package ownership computes per-holder pre/post ownership and voting
// power for one candidate price point, including dual-class weighting
// and the synthetic public holder.
package ownership

import (
	"fmt"
	"math"

	"agentic_ipo/pkg/core/deal"
)

// PublicHolderName labels the synthetic float entry appended to every
// ownership table. It always votes at 1x.
const PublicHolderName = "Public"

// ownershipSumTolerance is the allowed drift, in percentage points, of
// the post-IPO ownership total from 100.
const ownershipSumTolerance = 0.5

// Entry is one row of the ownership table.
type Entry struct {
	Name       string          `json:"name"`
	Type       deal.HolderType `json:"type"`
	PreShares  float64         `json:"pre_shares"`
	PostShares float64         `json:"post_shares"`
	PrePct     float64         `json:"pre_pct"`
	PostPct    float64         `json:"post_pct"`
	VotingPct  float64         `json:"voting_pct"`
}

// Input carries the share counts the table depends on. PublicFloat is
// the full tranche sold to new investors (primary + secondary +
// greenshoe), PostIPOShares the fully diluted count.
type Input struct {
	Holders         []deal.Holder
	PublicFloat     float64
	PostIPOShares   float64
	DualClass       bool
	FounderFloorPct float64 // 0 disables the founder floor check
}

// Table builds the ownership table and returns it with any data-quality
// warnings. Secondary sales reduce each holder's position; newly issued
// and transferred shares all land in the synthetic public entry.
func Table(in Input) ([]Entry, []string) {
	var warnings []string
	preTotal := 0.0
	for _, h := range in.Holders {
		preTotal += h.PreIPOShares
	}

	entries := make([]Entry, 0, len(in.Holders)+1)

	// Voting denominator: every holder's post-IPO shares at class
	// weight, plus the public float at 1x.
	votingDenom := in.PublicFloat
	for _, h := range in.Holders {
		post := h.PreIPOShares - h.PreIPOShares*h.SecondaryPct
		votingDenom += post * votingWeight(h, in.DualClass)
	}

	var postSum, founderPct float64
	for _, h := range in.Holders {
		sold := h.PreIPOShares * h.SecondaryPct
		post := h.PreIPOShares - sold
		e := Entry{
			Name:       h.Name,
			Type:       h.Type,
			PreShares:  h.PreIPOShares,
			PostShares: post,
		}
		if preTotal > 0 {
			e.PrePct = h.PreIPOShares / preTotal * 100
		}
		if in.PostIPOShares > 0 {
			e.PostPct = post / in.PostIPOShares * 100
		}
		if votingDenom > 0 {
			e.VotingPct = post * votingWeight(h, in.DualClass) / votingDenom * 100
		}
		postSum += e.PostPct
		if h.Type == deal.HolderFounder {
			founderPct += e.PostPct
		}
		entries = append(entries, e)
	}

	public := Entry{Name: PublicHolderName, Type: deal.HolderOther}
	public.PostShares = in.PublicFloat
	if in.PostIPOShares > 0 {
		public.PostPct = in.PublicFloat / in.PostIPOShares * 100
	}
	if votingDenom > 0 {
		public.VotingPct = in.PublicFloat / votingDenom * 100
	}
	postSum += public.PostPct
	entries = append(entries, public)

	if math.Abs(postSum-100) > ownershipSumTolerance {
		warnings = append(warnings,
			fmt.Sprintf("post-IPO ownership sums to %.2f%% (outside 100±%.1fpp); cap table and float are inconsistent", postSum, ownershipSumTolerance))
	}
	if in.FounderFloorPct > 0 && founderPct < in.FounderFloorPct {
		warnings = append(warnings,
			fmt.Sprintf("founder ownership %.1f%% falls below the configured %.1f%% floor", founderPct, in.FounderFloorPct))
	}

	return entries, warnings
}

func votingWeight(h deal.Holder, dualClass bool) float64 {
	if dualClass && h.VotingMultiple > 0 {
		return h.VotingMultiple
	}
	return 1
}
