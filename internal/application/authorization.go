package application

// Role classifies an account. Students and faculty share booking rights;
// administrators additionally manage the catalog and decide approvals.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Capability names an action guarded by Authorize.
type Capability string

const (
	CapabilityBook            Capability = "book"
	CapabilityViewRooms       Capability = "view_rooms"
	CapabilityManageRooms     Capability = "manage_rooms"
	CapabilityManageSchedules Capability = "manage_schedules"
	CapabilityDecideApprovals Capability = "decide_approvals"
	CapabilityManageUsers     Capability = "manage_users"
)

// Authorize returns ErrUnauthorized unless the principal's role grants capability.
func Authorize(principal Principal, capability Capability) error {
	if principal.UserID == "" || !principal.Role.Valid() {
		return ErrUnauthorized
	}

	switch capability {
	case CapabilityBook, CapabilityViewRooms:
		return nil
	case CapabilityManageRooms, CapabilityManageSchedules, CapabilityDecideApprovals, CapabilityManageUsers:
		if principal.IsAdmin() {
			return nil
		}
	}
	return ErrUnauthorized
}
