package auth

const (
	RoleMinister      = "Minister"
	RoleStrategicUnit = "Strategic Unit"
	RoleChiefCEO      = "Chief CEO"
	RoleCEO           = "CEO"
	RoleWorker        = "Worker"
	RoleSystemAdmin   = "System Admin"
)

var AllRoles = []string{
	RoleMinister,
	RoleStrategicUnit,
	RoleChiefCEO,
	RoleCEO,
	RoleWorker,
	RoleSystemAdmin,
}

// PlanningRoles may own plans and performance entries.
var PlanningRoles = []string{
	RoleWorker,
	RoleCEO,
	RoleChiefCEO,
	RoleStrategicUnit,
	RoleMinister,
}

// ValidatorRoles sit on the approval chain.
var ValidatorRoles = []string{
	RoleCEO,
	RoleChiefCEO,
	RoleStrategicUnit,
	RoleMinister,
}

func IsValidRole(role string) bool {
	return HasRole(role, AllRoles...)
}

func HasRole(role string, allowed ...string) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

// RequiresSubsector reports roles whose users belong to a single subsector.
func RequiresSubsector(role string) bool {
	return role == RoleCEO || role == RoleWorker
}

// RequiresSector reports roles whose users belong to a single sector.
func RequiresSector(role string) bool {
	return role == RoleChiefCEO || RequiresSubsector(role)
}
