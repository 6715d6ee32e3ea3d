package model

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProvider Role = "provider"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleProvider || r == RoleCustomer
}

// Actor is the authenticated caller. ProviderID is only set for provider accounts.
type Actor struct {
	UserID     string
	Role       Role
	ProviderID string
}

// CanManageProvider reports whether the actor may edit providerID's calendar.
func (a Actor) CanManageProvider(providerID string) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleProvider:
		return a.ProviderID != "" && a.ProviderID == providerID
	}
	return false
}
