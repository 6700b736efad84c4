package identity

// RoleAdmin is the role token that grants cross-owner read access.
// Comparison is case-sensitive.
const RoleAdmin = "Admin"

// Identity is the request-scoped caller identity. A zero UserID means
// the caller could not be resolved. Each request gets its own instance;
// it is written once by the resolver middleware and read-only after.
type Identity struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

func (i Identity) IsAuthenticated() bool { return i.UserID != 0 }

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
