package enums

import "fmt"

// DealType is the contractual formula governing the artist payout.
type DealType string

const (
	DealTypeGuarantee             DealType = "guarantee"
	DealTypePercentage            DealType = "percentage"
	DealTypeGuaranteeVsPercentage DealType = "guarantee_vs_percentage"
)

var validDealTypes = []DealType{
	DealTypeGuarantee,
	DealTypePercentage,
	DealTypeGuaranteeVsPercentage,
}

// String implements fmt.Stringer.
func (d DealType) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d DealType) IsValid() bool {
	for _, candidate := range validDealTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// UsesGuarantee reports whether the deal type needs a guarantee amount.
func (d DealType) UsesGuarantee() bool {
	return d == DealTypeGuarantee || d == DealTypeGuaranteeVsPercentage
}

// UsesPercentage reports whether the deal type needs a percentage split.
func (d DealType) UsesPercentage() bool {
	return d == DealTypePercentage || d == DealTypeGuaranteeVsPercentage
}

// ParseDealType converts raw input into a DealType.
func ParseDealType(value string) (DealType, error) {
	for _, candidate := range validDealTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal type %q", value)
}
