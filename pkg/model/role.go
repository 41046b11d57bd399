package model

// Role names as the backend reports them. Comparison is case-insensitive
// and lives in the rbac package.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Permission represents a specific action that can be checked against a session.
type Permission int

const (
	PermBrowse         Permission = iota // Anyone, including anonymous visitors
	PermPlaceOrder                       // Any logged-in user
	PermManageProducts                   // Admins: add, modify, delete products
)

func (p Permission) String() string {
	switch p {
	case PermBrowse:
		return "browse"
	case PermPlaceOrder:
		return "place_order"
	case PermManageProducts:
		return "manage_products"
	default:
		return "unknown"
	}
}
