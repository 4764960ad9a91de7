package roles

// Role is a label bound to an identity through a user_roles row. The set of
// valid labels is closed; anything else coming back from storage is treated
// as absent at resolution time.
type Role string

const (
	// RoleAdmin grants access to the platform administration panel.
	RoleAdmin Role = "admin"
	// RoleCliente marks an establishment owner account.
	RoleCliente Role = "cliente"
)

// ParseRole validates a raw role label.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleCliente:
		return RoleCliente, true
	default:
		return "", false
	}
}

// RoleSet is the ordered sequence of roles held by one identity as observed
// at resolution time. Order follows the store's natural return order; no
// sorting is applied on top of it.
type RoleSet []Role

// Empty reports whether no role is held.
func (s RoleSet) Empty() bool {
	return len(s) == 0
}

// Has reports whether the set contains the given role.
func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Distinct counts distinct role values in the set.
func (s RoleSet) Distinct() int {
	seen := make(map[Role]struct{}, len(s))
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}

// Strings returns the set as raw labels, preserving order.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// Destination is the view the routing logic selects for an identity.
type Destination int

const (
	// DestUserHome is the end-consumer experience and the least-privileged
	// default for identities without roles or with unresolvable roles.
	DestUserHome Destination = iota
	// DestClienteDashboard is the establishment owner dashboard.
	DestClienteDashboard
	// DestAdminDashboard is the platform administration panel.
	DestAdminDashboard
	// DestRoleSelection asks a multi-role identity to pick explicitly.
	DestRoleSelection
)

// String names the destination for logs and the session JSON view.
func (d Destination) String() string {
	switch d {
	case DestClienteDashboard:
		return "cliente_dashboard"
	case DestAdminDashboard:
		return "admin_dashboard"
	case DestRoleSelection:
		return "role_selection"
	default:
		return "user_home"
	}
}

// Path maps the destination to its route.
func (d Destination) Path() string {
	switch d {
	case DestClienteDashboard:
		return "/cliente"
	case DestAdminDashboard:
		return "/admin"
	case DestRoleSelection:
		return "/roles/select"
	default:
		return "/home"
	}
}

// DeriveDestination applies the routing decision table. Rules are evaluated
// in order and the first match wins: an empty set lands on the consumer home,
// a single role lands on its dashboard, and two or more distinct roles are
// ambiguous, so the choice is deferred to the user instead of silently
// preferring one of them.
func DeriveDestination(set RoleSet) Destination {
	switch {
	case set.Empty():
		return DestUserHome
	case set.Distinct() >= 2:
		return DestRoleSelection
	case set.Has(RoleCliente):
		return DestClienteDashboard
	case set.Has(RoleAdmin):
		return DestAdminDashboard
	default:
		return DestUserHome
	}
}

// State tracks one browsing session through the resolution lifecycle.
type State int

const (
	// StateUnauthenticated is the initial state and the target of every
	// sign-out, from anywhere.
	StateUnauthenticated State = iota
	// StateResolving covers the window between an auth transition and the
	// arrival of its role query response.
	StateResolving
	// Terminal states, one per destination.
	StateUserHome
	StateClienteDashboard
	StateAdminDashboard
	StateRoleSelection
)

// String names the state for logs and the session JSON view.
func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateUserHome:
		return "user_home"
	case StateClienteDashboard:
		return "cliente_dashboard"
	case StateAdminDashboard:
		return "admin_dashboard"
	case StateRoleSelection:
		return "role_selection"
	default:
		return "unauthenticated"
	}
}

// State converts a destination into its terminal session state.
func (d Destination) State() State {
	switch d {
	case DestClienteDashboard:
		return StateClienteDashboard
	case DestAdminDashboard:
		return StateAdminDashboard
	case DestRoleSelection:
		return StateRoleSelection
	default:
		return StateUserHome
	}
}
