// Package mechanics derives the share tranches, dilution and proceeds
// split for one candidate offer price. Dollar-denominated raises are
// converted at the candidate price, which is why every price point in
// a matrix recomputes this from scratch instead of scaling a reference
// row.
package mechanics

import "fmt"

// Input is everything share math needs for one price point. Shares in
// millions, money in $M, price in dollars.
type Input struct {
	OfferPrice   float64
	PreIPOShares float64

	PrimaryShares  float64 // fixed share raise; ignored when dollars set
	PrimaryDollars float64 // dollar raise, converted at OfferPrice

	SecondaryShares float64 // resolved total (holder fractions already applied)
	GreenshoePct    float64 // of base deal (primary + secondary)
	UnderwritingFee float64

	Cash          float64
	Debt          float64
	DebtRepayment float64 // $M paid down from issuer proceeds
}

// Result is the full share and proceeds breakdown at one price.
type Result struct {
	PrimaryShares   float64 `json:"primary_shares"`
	SecondaryShares float64 `json:"secondary_shares"`
	GreenshoeShares float64 `json:"greenshoe_shares"`
	TotalSharesSold float64 `json:"total_shares_sold"`

	// DilutiveShares counts only newly issued stock (primary +
	// greenshoe); secondary is a transfer of existing ownership.
	DilutiveShares float64 `json:"dilutive_shares"`
	PostIPOShares  float64 `json:"post_ipo_shares"` // fully diluted
	DilutionPct    float64 `json:"dilution_pct"`

	GrossProceeds       float64 `json:"gross_proceeds"`
	NetIssuerProceeds   float64 `json:"net_issuer_proceeds"`
	NetSecondaryProceed float64 `json:"net_secondary_proceeds"`

	PostIPOCash float64 `json:"post_ipo_cash"`
	PostIPODebt float64 `json:"post_ipo_debt"`

	Warnings []string `json:"warnings,omitempty"`
}

// Compute runs the share math for one candidate price.
func Compute(in Input) Result {
	var res Result

	primary := in.PrimaryShares
	if in.PrimaryDollars > 0 && in.OfferPrice > 0 {
		primary = in.PrimaryDollars / in.OfferPrice
	}
	secondary := in.SecondaryShares
	greenshoe := (primary + secondary) * in.GreenshoePct

	res.PrimaryShares = primary
	res.SecondaryShares = secondary
	res.GreenshoeShares = greenshoe
	res.TotalSharesSold = primary + secondary + greenshoe

	res.DilutiveShares = primary + greenshoe
	res.PostIPOShares = in.PreIPOShares + res.DilutiveShares
	if res.PostIPOShares > 0 {
		res.DilutionPct = res.DilutiveShares / res.PostIPOShares * 100
	}
	if res.DilutionPct >= 100 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("dilution %.1f%% at $%.2f implies new issuance dwarfs the existing cap table; check raise target", res.DilutionPct, in.OfferPrice))
	}

	res.GrossProceeds = res.TotalSharesSold * in.OfferPrice
	res.NetIssuerProceeds = (primary + greenshoe) * in.OfferPrice * (1 - in.UnderwritingFee)
	res.NetSecondaryProceed = secondary * in.OfferPrice * (1 - in.UnderwritingFee)

	res.PostIPOCash = in.Cash + res.NetIssuerProceeds - in.DebtRepayment
	res.PostIPODebt = in.Debt - in.DebtRepayment
	if res.PostIPODebt < 0 {
		res.Warnings = append(res.Warnings, "debt repayment exceeds outstanding debt; clamped to zero")
		res.PostIPOCash -= res.PostIPODebt // give the excess back to cash
		res.PostIPODebt = 0
	}

	return res
}
