package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDestinationDecisionTable(t *testing.T) {
	cases := []struct {
		name string
		set  RoleSet
		want Destination
	}{
		{"no roles", nil, DestUserHome},
		{"empty set", RoleSet{}, DestUserHome},
		{"only cliente", RoleSet{RoleCliente}, DestClienteDashboard},
		{"only admin", RoleSet{RoleAdmin}, DestAdminDashboard},
		{"admin then cliente", RoleSet{RoleAdmin, RoleCliente}, DestRoleSelection},
		{"cliente then admin", RoleSet{RoleCliente, RoleAdmin}, DestRoleSelection},
		{"duplicate cliente rows", RoleSet{RoleCliente, RoleCliente}, DestClienteDashboard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveDestination(tc.set))
		})
	}
}

func TestDeriveDestinationIsPure(t *testing.T) {
	set := RoleSet{RoleAdmin, RoleCliente}
	first := DeriveDestination(set)
	second := DeriveDestination(set)
	assert.Equal(t, first, second)
	assert.Equal(t, DestRoleSelection, first)
}

func TestParseRoleRejectsUnknownLabels(t *testing.T) {
	for _, raw := range []string{"", "root", "customer", "ADMIN", "Cliente"} {
		_, ok := ParseRole(raw)
		assert.False(t, ok, "label %q must not parse", raw)
	}
	admin, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, admin)
}

func TestRoleSetHelpers(t *testing.T) {
	set := RoleSet{RoleCliente, RoleCliente, RoleAdmin}
	assert.False(t, set.Empty())
	assert.True(t, set.Has(RoleAdmin))
	assert.True(t, set.Has(RoleCliente))
	assert.Equal(t, 2, set.Distinct())
	assert.Equal(t, []string{"cliente", "cliente", "admin"}, set.Strings())
}

func TestDestinationPaths(t *testing.T) {
	assert.Equal(t, "/home", DestUserHome.Path())
	assert.Equal(t, "/cliente", DestClienteDashboard.Path())
	assert.Equal(t, "/admin", DestAdminDashboard.Path())
	assert.Equal(t, "/roles/select", DestRoleSelection.Path())
}

func TestDestinationTerminalStates(t *testing.T) {
	assert.Equal(t, StateUserHome, DestUserHome.State())
	assert.Equal(t, StateClienteDashboard, DestClienteDashboard.State())
	assert.Equal(t, StateAdminDashboard, DestAdminDashboard.State())
	assert.Equal(t, StateRoleSelection, DestRoleSelection.State())
}
