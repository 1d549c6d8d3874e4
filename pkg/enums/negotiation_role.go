package enums

import "fmt"

// NegotiationRole identifies which side of a negotiation an actor is on.
type NegotiationRole string

const (
	RoleBuyer  NegotiationRole = "buyer"
	RoleSeller NegotiationRole = "seller"
)

var validNegotiationRoles = []NegotiationRole{RoleBuyer, RoleSeller}

// String implements fmt.Stringer.
func (n NegotiationRole) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NegotiationRole.
func (n NegotiationRole) IsValid() bool {
	for _, candidate := range validNegotiationRoles {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNegotiationRole converts raw input into a NegotiationRole.
func ParseNegotiationRole(value string) (NegotiationRole, error) {
	for _, candidate := range validNegotiationRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid negotiation role %q", value)
}
