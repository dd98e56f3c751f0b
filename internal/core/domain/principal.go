package domain

import "fmt"

// PrincipalKind is one of the two disjoint classes of authenticated actor.
type PrincipalKind int

const (
	// PrincipalOperator is a privileged actor: content editing, registration
	// moderation and full request listing.
	PrincipalOperator PrincipalKind = iota + 1
	// PrincipalMember is a regular, email-verified account holder.
	PrincipalMember
)

func (k PrincipalKind) String() string {
	switch k {
	case PrincipalOperator:
		return "operator"
	case PrincipalMember:
		return "member"
	default:
		return fmt.Sprintf("PrincipalKind(%d)", int(k))
	}
}

// Valid reports whether k is a known principal kind.
func (k PrincipalKind) Valid() bool {
	return k == PrincipalOperator || k == PrincipalMember
}

// Principal is an authenticated actor resolved from a session token.
type Principal struct {
	Kind  PrincipalKind
	Email string
}

// IsOperator reports whether p carries operator privileges.
func (p Principal) IsOperator() bool {
	return p.Kind == PrincipalOperator
}
