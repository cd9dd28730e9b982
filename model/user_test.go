package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleSuperAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleSuperAdmin, RoleUser, true},
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
	}

	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.min); got != tc.want {
			t.Fatalf("%s.AtLeast(%s) = %v, want %v", tc.role, tc.min, got, tc.want)
		}
	}
}

func TestRoleAtLeastUnknownRole(t *testing.T) {
	if Role("TEACHER").AtLeast(RoleUser) {
		t.Fatalf("unknown role should not satisfy any requirement")
	}
	if RoleSuperAdmin.AtLeast(Role("")) {
		t.Fatalf("unknown minimum should never be satisfied")
	}
}

func TestRoleIsValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAdmin, RoleSuperAdmin} {
		if !r.IsValid() {
			t.Fatalf("expected %s to be valid", r)
		}
	}
	if Role("root").IsValid() {
		t.Fatalf("expected unknown role to be invalid")
	}
}
