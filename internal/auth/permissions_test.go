package auth

import "testing"

func TestRolePermissions(t *testing.T) {
	if !Can(RoleManager, PermManageProperties) {
		t.Error("managers must manage properties")
	}
	if !Can(RoleManager, PermSendSMS) {
		t.Error("managers must send sms")
	}
	if Can(RoleTenant, PermManageProperties) {
		t.Error("tenants must not manage properties")
	}
	if !Can(RoleTenant, PermSubmitMaintenanceRequest) {
		t.Error("tenants must submit maintenance requests")
	}
	if Can(RoleContractor, PermPayRent) {
		t.Error("contractors must not pay rent")
	}
	if !Can(RoleContractor, PermViewMaintenanceStatus) {
		t.Error("contractors must view maintenance status")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"tenant":     RoleTenant,
		"TENANT":     RoleTenant,
		"contractor": RoleContractor,
		"manager":    RoleManager,
		"":           RoleManager,
		"admin":      RoleManager,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}
