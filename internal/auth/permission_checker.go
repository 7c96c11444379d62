package auth

// Capability names checked at the HTTP boundary before any lifecycle
// operation runs. The lifecycle services trust these checks and only
// re-validate object-level ownership themselves.
const (
	ActionCreateAgenda        = "create_agenda"
	ActionEditAgenda          = "edit_agenda"
	ActionDeleteAgenda        = "delete_agenda"
	ActionApproveAgenda       = "approve_agenda"
	ActionRejectAgenda        = "reject_agenda"
	ActionViewPending         = "view_pending"
	ActionViewAllAgendas      = "view_all_agendas"
	ActionCreateUser          = "create_user"
	ActionEditUser            = "edit_user"
	ActionDeleteUser          = "delete_user"
	ActionViewStats           = "view_stats"
	ActionViewActivities      = "view_activities"
	ActionEditOwnAgenda       = "edit_own_agenda"
	ActionViewOwnAgendas      = "view_own_agendas"
	ActionViewApprovedAgendas = "view_approved_agendas"
)

var rolePermissions = map[string][]string{
	"admin": {
		ActionCreateAgenda, ActionEditAgenda, ActionDeleteAgenda,
		ActionApproveAgenda, ActionRejectAgenda, ActionViewPending,
		ActionViewAllAgendas, ActionCreateUser, ActionEditUser,
		ActionDeleteUser, ActionViewStats, ActionViewActivities,
	},
	"guru": {
		ActionCreateAgenda, ActionEditOwnAgenda, ActionViewOwnAgendas,
	},
	"siswa": {
		ActionViewApprovedAgendas,
	},
}

// HasPermission reports whether role holds action. Unknown roles and unknown
// actions are denied. Pure lookup, no side effects.
func HasPermission(role, action string) bool {
	actions, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether role holds at least one of actions.
func HasAnyPermission(role string, actions ...string) bool {
	for _, action := range actions {
		if HasPermission(role, action) {
			return true
		}
	}
	return false
}

type PermissionChecker interface {
	HasPermission(role, action string) bool
	HasAnyPermission(role string, actions ...string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(role, action string) bool {
	return HasPermission(role, action)
}

func (c *DefaultPermissionChecker) HasAnyPermission(role string, actions ...string) bool {
	return HasAnyPermission(role, actions...)
}
