package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/showsettle/showsettle-backend/pkg/enums"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

var (
	hundred = decimal.NewFromInt(100)
)

// Input carries the form fields a settlement is computed from.
type Input struct {
	ArtistName    string           `json:"artist_name,omitempty"`
	TicketPrice   decimal.Decimal  `json:"ticket_price"`
	TicketsSold   int64            `json:"tickets_sold"`
	TaxRate       decimal.Decimal  `json:"tax_rate"`
	TotalExpenses decimal.Decimal  `json:"total_expenses"`
	DealType      enums.DealType   `json:"deal_type"`
	Guarantee     *decimal.Decimal `json:"guarantee,omitempty"`
	Percentage    *decimal.Decimal `json:"percentage,omitempty"`
}

// Result is the settlement breakdown derived from a validated Input.
type Result struct {
	GrossRevenue  decimal.Decimal `json:"gross_revenue"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	ArtistPayout  decimal.Decimal `json:"artist_payout"`
	VenuePayout   decimal.Decimal `json:"venue_payout"`
}

// Compute derives the settlement breakdown for the input, or a validation
// error when the fields required by the selected deal type are missing or
// non-positive. Venue payout is never floored; the promoter absorbs any
// shortfall when the artist guarantee exceeds net profit.
func Compute(in Input) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	grossRevenue := in.TicketPrice.Mul(decimal.NewFromInt(in.TicketsSold))
	taxAmount := grossRevenue.Mul(in.TaxRate.Div(hundred))
	netProfit := grossRevenue.Sub(taxAmount).Sub(in.TotalExpenses)

	artistPayout := artistShare(in, netProfit)
	venuePayout := netProfit.Sub(artistPayout)

	return &Result{
		GrossRevenue:  grossRevenue,
		TaxAmount:     taxAmount,
		TotalExpenses: in.TotalExpenses,
		NetProfit:     netProfit,
		ArtistPayout:  artistPayout,
		VenuePayout:   venuePayout,
	}, nil
}

func artistShare(in Input, netProfit decimal.Decimal) decimal.Decimal {
	percentageShare := func() decimal.Decimal {
		share := netProfit.Mul(in.Percentage.Div(hundred))
		if share.IsNegative() {
			return decimal.Zero
		}
		return share
	}

	switch in.DealType {
	case enums.DealTypeGuarantee:
		return *in.Guarantee
	case enums.DealTypePercentage:
		return percentageShare()
	case enums.DealTypeGuaranteeVsPercentage:
		share := percentageShare()
		if in.Guarantee.GreaterThan(share) {
			return *in.Guarantee
		}
		return share
	default:
		return decimal.Zero
	}
}

func validate(in Input) error {
	if !in.TicketPrice.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "ticket price must be greater than zero")
	}
	if in.TicketsSold <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "tickets sold must be greater than zero")
	}
	if !in.DealType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown deal type")
	}
	if in.DealType.UsesGuarantee() && (in.Guarantee == nil || !in.Guarantee.IsPositive()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "guarantee must be greater than zero for this deal type")
	}
	if in.DealType.UsesPercentage() && (in.Percentage == nil || !in.Percentage.IsPositive()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage must be greater than zero for this deal type")
	}
	if in.Percentage != nil && in.Percentage.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 100")
	}
	if in.TotalExpenses.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total expenses cannot be negative")
	}
	return nil
}
