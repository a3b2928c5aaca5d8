package enums

import "fmt"

// EntitlementSource records who granted an access entitlement.
type EntitlementSource string

const (
	EntitlementSourceStripe      EntitlementSource = "stripe"
	EntitlementSourceManualComp  EntitlementSource = "manual_comp"
	EntitlementSourceDevAccount  EntitlementSource = "dev_account"
	EntitlementSourceTestAccount EntitlementSource = "test_account"
)

var validEntitlementSources = []EntitlementSource{
	EntitlementSourceStripe,
	EntitlementSourceManualComp,
	EntitlementSourceDevAccount,
	EntitlementSourceTestAccount,
}

// String implements fmt.Stringer.
func (s EntitlementSource) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s EntitlementSource) IsValid() bool {
	for _, candidate := range validEntitlementSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEntitlementSource converts raw input into an EntitlementSource.
func ParseEntitlementSource(value string) (EntitlementSource, error) {
	for _, candidate := range validEntitlementSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entitlement source %q", value)
}

// EntitlementStatus is the stored access flag on an entitlement row.
type EntitlementStatus string

const (
	EntitlementStatusActive   EntitlementStatus = "active"
	EntitlementStatusInactive EntitlementStatus = "inactive"
	// EntitlementStatusExpired exists in the schema for manual bookkeeping;
	// resolution treats expiry purely as a date comparison and the
	// reconciler only ever writes active/inactive.
	EntitlementStatusExpired EntitlementStatus = "expired"
)

var validEntitlementStatuses = []EntitlementStatus{
	EntitlementStatusActive,
	EntitlementStatusInactive,
	EntitlementStatusExpired,
}

// String implements fmt.Stringer.
func (s EntitlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s EntitlementStatus) IsValid() bool {
	for _, candidate := range validEntitlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEntitlementStatus converts raw input into an EntitlementStatus.
func ParseEntitlementStatus(value string) (EntitlementStatus, error) {
	for _, candidate := range validEntitlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entitlement status %q", value)
}
