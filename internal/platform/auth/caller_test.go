package auth

import (
	"context"
	"testing"
)

func TestCaller_ClinicWide(t *testing.T) {
	id := int64(3)
	tests := []struct {
		name       string
		caller     Caller
		clinicWide bool
		scoped     *int64
	}{
		{"admin", Caller{Roles: []string{RoleAdmin}}, true, nil},
		{"manager", Caller{Roles: []string{RoleManager}}, true, nil},
		{"frontdesk", Caller{Roles: []string{RoleFrontDesk}}, true, nil},
		{"professional", Caller{Roles: []string{RoleProfessional}, ProfessionalID: &id}, false, &id},
		{"professional and manager", Caller{Roles: []string{RoleProfessional, RoleManager}, ProfessionalID: &id}, true, nil},
		{"unlinked professional", Caller{Roles: []string{RoleProfessional}}, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caller.ClinicWide(); got != tt.clinicWide {
				t.Errorf("ClinicWide() = %v, want %v", got, tt.clinicWide)
			}
			got := tt.caller.ScopedProfessionalID()
			if (got == nil) != (tt.scoped == nil) || (got != nil && *got != *tt.scoped) {
				t.Errorf("ScopedProfessionalID() = %v, want %v", got, tt.scoped)
			}
		})
	}
}

func TestCallerFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDKey, "u-9")
	ctx = context.WithValue(ctx, UserRolesKey, []string{RoleProfessional})
	ctx = context.WithValue(ctx, ProfessionalIDKey, int64(11))

	c := CallerFromContext(ctx)
	if c.UserID != "u-9" || !c.HasRole(RoleProfessional) || c.HasRole(RoleAdmin) {
		t.Errorf("unexpected caller %+v", c)
	}
	if c.ProfessionalID == nil || *c.ProfessionalID != 11 {
		t.Errorf("expected professional id 11, got %v", c.ProfessionalID)
	}
}

func TestCallerFromContext_Empty(t *testing.T) {
	c := CallerFromContext(context.Background())
	if c.UserID != "" || len(c.Roles) != 0 || c.ProfessionalID != nil {
		t.Errorf("expected empty caller, got %+v", c)
	}
}
