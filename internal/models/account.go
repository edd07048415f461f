package models

import (
	"time"
)

const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
)

// Account is a wallet participant. The id is the identity provider's stable
// subject and doubles as the QR payload a merchant displays.
type Account struct {
	ID        string
	CreatedAt time.Time
	Role      string
	Balance   int64
}

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleMerchant
}
