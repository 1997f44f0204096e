package auth

import "context"

// Caller is the authenticated user on whose behalf a request runs. It is
// passed explicitly to services instead of being read from ambient state.
type Caller struct {
	UserID         string
	Roles          []string
	ProfessionalID *int64
}

// CallerFromContext collects the identity placed on ctx by the auth middleware.
func CallerFromContext(ctx context.Context) Caller {
	return Caller{
		UserID:         UserIDFromContext(ctx),
		Roles:          RolesFromContext(ctx),
		ProfessionalID: ProfessionalIDFromContext(ctx),
	}
}

// HasRole reports whether the caller holds role.
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ClinicWide reports whether the caller may see data of every professional.
func (c Caller) ClinicWide() bool {
	return c.HasRole(RoleAdmin) || c.HasRole(RoleManager) || c.HasRole(RoleFrontDesk)
}

// ScopedProfessionalID returns the professional a restricted caller is bound
// to, or nil when the caller is clinic-wide.
func (c Caller) ScopedProfessionalID() *int64 {
	if c.ClinicWide() {
		return nil
	}
	return c.ProfessionalID
}
