package deal

import (
	"fmt"
	"strings"
)

// ValidationError is the typed rejection of an untrusted DealAssumptions.
// The extraction layer produces loosely-shaped data; everything the
// engine requires is checked here, once, so the calculators can assume
// well-formed input.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("deal assumptions rejected: %s", strings.Join(e.Issues, "; "))
}

// Validate checks presence and positivity of every numeric field the
// pricing engine depends on. It returns nil or a *ValidationError
// listing all problems at once.
func Validate(d *DealAssumptions) error {
	var issues []string

	if d == nil {
		return &ValidationError{Issues: []string{"assumptions are nil"}}
	}
	if strings.TrimSpace(d.Company) == "" {
		issues = append(issues, "company name is empty")
	}
	switch d.Classification {
	case ClassMature, ClassCapitalIntensive, ClassHighGrowth, ClassBinaryOutcome:
	case "":
		issues = append(issues, "classification is missing")
	default:
		issues = append(issues, fmt.Sprintf("unknown classification %q", d.Classification))
	}

	if len(d.Holders) == 0 {
		issues = append(issues, "cap table is empty")
	}
	if total := d.PreIPOShares(); total <= 0 {
		issues = append(issues, fmt.Sprintf("pre-IPO share count must be positive, got %.4f", total))
	}
	for _, h := range d.Holders {
		if h.PreIPOShares < 0 {
			issues = append(issues, fmt.Sprintf("holder %q has negative share count", h.Name))
		}
		if h.SecondaryPct < 0 || h.SecondaryPct > 1 {
			issues = append(issues, fmt.Sprintf("holder %q secondary fraction %.4f outside [0,1]", h.Name, h.SecondaryPct))
		}
	}

	if d.Classification != ClassBinaryOutcome && d.Projections.CurrentRevenue <= 0 {
		issues = append(issues, "current revenue must be positive for revenue-based methodologies")
	}
	if d.DiscountRate <= 0 {
		issues = append(issues, "discount rate must be positive")
	}
	if d.TaxRate < 0 || d.TaxRate >= 1 {
		issues = append(issues, fmt.Sprintf("tax rate %.4f outside [0,1)", d.TaxRate))
	}

	if d.Offer.PrimaryShares <= 0 && d.Offer.PrimaryDollars <= 0 {
		issues = append(issues, "primary raise target missing (neither shares nor dollars)")
	}
	if d.Offer.PrimaryShares > 0 && d.Offer.PrimaryDollars > 0 {
		issues = append(issues, "primary raise target is ambiguous (both shares and dollars set)")
	}
	if d.Offer.GreenshoePct < 0 || d.Offer.GreenshoePct > 0.5 {
		issues = append(issues, fmt.Sprintf("greenshoe percent %.4f outside [0,0.5]", d.Offer.GreenshoePct))
	}
	if d.Offer.UnderwritingFee < 0 || d.Offer.UnderwritingFee >= 1 {
		issues = append(issues, "underwriting fee outside [0,1)")
	}

	for _, t := range d.Book {
		if t.Price <= 0 || t.Oversubscription < 0 {
			issues = append(issues, fmt.Sprintf("malformed order-book tier (price %.2f, coverage %.2fx)", t.Price, t.Oversubscription))
			break
		}
	}
	for _, o := range d.Orders {
		if o.Size < 0 {
			issues = append(issues, fmt.Sprintf("investor order %q has negative size", o.Name))
			break
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
