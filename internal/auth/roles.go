// Package auth defines the closed role enumeration and the capability table
// that maps each role to its permitted actions. Authorization decisions go
// through Role.Can — role strings are never compared ad hoc at call sites.
package auth

// Role is one of the six fixed staff roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCapitan    Role = "capitan"
	RoleMesero     Role = "mesero"
	RoleCocina     Role = "cocina"
	RoleBar        Role = "bar"
	RoleSupervisor Role = "supervisor"
)

// Permission names an action that can be granted to a role.
type Permission string

const (
	PermOrdenCrear       Permission = "orden:crear"
	PermOrdenCerrar      Permission = "orden:cerrar"
	PermOrdenAnular      Permission = "orden:anular"
	PermOrdenVer         Permission = "orden:ver"
	PermComandaVer       Permission = "comanda:ver"
	PermComandaEnviar    Permission = "comanda:enviar"
	PermMesaVer          Permission = "mesa:ver"
	PermMesaAdmin        Permission = "mesa:admin"
	PermProductoVer      Permission = "producto:ver"
	PermProductoAdmin    Permission = "producto:admin"
	PermStockAjustar     Permission = "stock:ajustar"
	PermReporteVer       Permission = "reporte:ver"
	PermUsuarioAdmin     Permission = "usuario:admin"
	PermDispositivoAdmin Permission = "dispositivo:admin"
)

// grants is the single source of truth: role → permitted actions.
// Built once at init into the capability lookup used by Role.Can.
var grants = map[Role][]Permission{
	RoleAdmin: {
		PermOrdenCrear, PermOrdenCerrar, PermOrdenAnular, PermOrdenVer,
		PermComandaVer, PermComandaEnviar, PermMesaVer, PermMesaAdmin,
		PermProductoVer, PermProductoAdmin, PermStockAjustar,
		PermReporteVer, PermUsuarioAdmin, PermDispositivoAdmin,
	},
	RoleCapitan: {
		PermOrdenCrear, PermOrdenCerrar, PermOrdenAnular, PermOrdenVer,
		PermComandaEnviar, PermMesaVer, PermProductoVer, PermReporteVer,
	},
	RoleMesero: {
		PermOrdenCrear, PermOrdenCerrar, PermOrdenVer,
		PermComandaEnviar, PermMesaVer, PermProductoVer,
	},
	RoleCocina: {
		PermOrdenVer, PermComandaVer, PermProductoVer,
	},
	RoleBar: {
		PermOrdenVer, PermComandaVer, PermProductoVer,
	},
	RoleSupervisor: {
		PermOrdenCrear, PermOrdenCerrar, PermOrdenAnular, PermOrdenVer,
		PermComandaVer, PermComandaEnviar, PermMesaVer,
		PermProductoVer, PermStockAjustar, PermReporteVer,
	},
}

var capabilities map[Role]map[Permission]bool

func init() {
	capabilities = make(map[Role]map[Permission]bool, len(grants))
	for role, perms := range grants {
		set := make(map[Permission]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		capabilities[role] = set
	}
}

// ParseRole validates a raw role string against the closed enumeration.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := capabilities[r]
	return r, ok
}

// Valid reports whether r is one of the six known roles.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Can reports whether the role is granted the given permission.
// Unknown roles have no permissions.
func (r Role) Can(p Permission) bool {
	return capabilities[r][p]
}

// Roles lists every valid role, for validator tags and admin UIs.
func Roles() []Role {
	return []Role{RoleAdmin, RoleCapitan, RoleMesero, RoleCocina, RoleBar, RoleSupervisor}
}
