package model

// Role names carried in the JWT "role" claim.  Accounts and token
// issuance live in a separate identity service; this service only
// consumes the claims.
const (
	RoleCustomer = "CUSTOMER" // travelers booking beds
	RoleOwner    = "OWNER"    // hostel operators
	RoleAdmin    = "ADMIN"    // platform staff
)

// Actor identifies the authenticated caller of an operation.
//
// Fields:
//  UserID – subject of the access token.
//  Role   – one of RoleCustomer, RoleOwner or RoleAdmin.
type Actor struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
