package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		parsed, ok := ParseRole(string(r))
		assert.True(t, ok)
		assert.Equal(t, r, parsed)
	}

	_, ok := ParseRole("gerente")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
	_, ok = ParseRole("ADMIN")
	assert.False(t, ok, "role matching is case sensitive")
}

func TestRoleCan(t *testing.T) {
	cases := []struct {
		rol  Role
		perm Permission
		want bool
	}{
		{RoleAdmin, PermUsuarioAdmin, true},
		{RoleAdmin, PermDispositivoAdmin, true},
		{RoleSupervisor, PermStockAjustar, true},
		{RoleSupervisor, PermUsuarioAdmin, false},
		{RoleCapitan, PermOrdenAnular, true},
		{RoleCapitan, PermStockAjustar, false},
		{RoleMesero, PermOrdenCrear, true},
		{RoleMesero, PermOrdenAnular, false},
		{RoleMesero, PermReporteVer, false},
		{RoleCocina, PermComandaVer, true},
		{RoleCocina, PermOrdenCrear, false},
		{RoleBar, PermComandaVer, true},
		{RoleBar, PermMesaAdmin, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.rol.Can(tc.perm), "%s / %s", tc.rol, tc.perm)
	}
}

func TestComandaPermissionsSplitByWorkflow(t *testing.T) {
	// Whoever opens orders can send them to the stations; the stations
	// themselves only read what arrives.
	for _, r := range []Role{RoleAdmin, RoleCapitan, RoleMesero, RoleSupervisor} {
		assert.True(t, r.Can(PermComandaEnviar), "%s must be able to send comandas", r)
	}
	for _, r := range []Role{RoleCocina, RoleBar} {
		assert.True(t, r.Can(PermComandaVer), "%s reads its station queue", r)
		assert.False(t, r.Can(PermComandaEnviar), "%s must not send comandas", r)
	}
}

func TestUnknownRoleHasNoPermissions(t *testing.T) {
	r := Role("hacker")
	assert.False(t, r.Valid())
	assert.False(t, r.Can(PermOrdenVer))
}

func TestOnlyAdminManagesUsersAndDevices(t *testing.T) {
	for _, r := range Roles() {
		if r == RoleAdmin {
			continue
		}
		assert.False(t, r.Can(PermUsuarioAdmin), "%s must not manage users", r)
		assert.False(t, r.Can(PermDispositivoAdmin), "%s must not manage devices", r)
	}
}
