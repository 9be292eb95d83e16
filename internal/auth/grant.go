// Package auth provides the capability values the service layer requires for
// admin-gated operations. The HTTP layer mints grants from the verified caller
// role; the core only checks possession of a valid grant and never inspects
// caller identity itself.
package auth

// Role is the caller role attached by the upstream auth collaborator.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AdminGrant is proof that the caller may perform catalog-mutating admin
// operations. The zero value is not a valid grant; one can only be obtained
// through GrantFor.
type AdminGrant struct {
	granted bool
}

// GrantFor returns a valid AdminGrant for the admin role and an invalid one
// for every other role.
func GrantFor(role Role) AdminGrant {
	return AdminGrant{granted: role == RoleAdmin}
}

// Valid reports whether the grant carries admin capability.
func (g AdminGrant) Valid() bool {
	return g.granted
}
