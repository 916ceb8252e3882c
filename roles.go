package authflow

// Role is a closed set of application roles carried in access-token claims.
// Unknown role strings never match any Role and route to the safe fallback.
type Role string

const (
	// RoleAdmin is the platform administrator.
	RoleAdmin Role = "ADMIN"
	// RoleHR is the human-resources lead.
	RoleHR Role = "RESP_RH"
	// RoleNurse is the occupational-health nurse.
	RoleNurse Role = "NURSE"
	// RolePhysician is the occupational physician.
	RolePhysician Role = "PHYSICIAN"
	// RoleHSE is the health-safety-environment lead.
	RoleHSE Role = "RESP_HSE"
	// RoleEmployee is the baseline employee role.
	RoleEmployee Role = "EMPLOYEE"
)

// Landing paths for role homes and guard redirects.
const (
	PathAdminHome     = "/admin"
	PathHRHome        = "/hr"
	PathNurseHome     = "/nurse"
	PathPhysicianHome = "/physician"
	PathHSEHome       = "/hse"
	PathEmployeeHome  = "/employee"
	PathLogin         = "/login"
	PathForbidden     = "/forbidden"
)

// roleHomePriority fixes the landing-page precedence for users holding more
// than one role. First match wins.
var roleHomePriority = []struct {
	role Role
	path string
}{
	{RoleAdmin, PathAdminHome},
	{RoleHR, PathHRHome},
	{RoleNurse, PathNurseHome},
	{RolePhysician, PathPhysicianHome},
	{RoleHSE, PathHSEHome},
	{RoleEmployee, PathEmployeeHome},
}

// RoleHome maps a decoded role set to its landing path. Total and
// deterministic: unknown or empty role sets resolve to [PathLogin].
func RoleHome(roles []string) string {
	for _, entry := range roleHomePriority {
		for _, r := range roles {
			if Role(r) == entry.role {
				return entry.path
			}
		}
	}
	return PathLogin
}

// HasRole reports whether the decoded role set contains role.
func HasRole(roles []string, role Role) bool {
	for _, r := range roles {
		if Role(r) == role {
			return true
		}
	}
	return false
}
