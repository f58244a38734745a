package users

import (
	"fmt"
	"strings"
	"time"

	autherrors "github.com/jrsteele09/smartbill-auth/internal/errors"
)

// Role is the user's position within their company. It is always encoded as one of
// the strings below, never as a number.
type Role string

const (
	RoleUnset         Role = ""
	RoleEmployee      Role = "employee"
	RoleBusinessOwner Role = "business_owner"
)

// ParseRole accepts the canonical names plus the PascalCase spelling the web client
// historically sent ("Employee", "BusinessOwner").
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "employee":
		return RoleEmployee, nil
	case "business_owner", "businessowner":
		return RoleBusinessOwner, nil
	}
	return RoleUnset, fmt.Errorf("%w: %q", autherrors.ErrInvalidRole, s)
}

func (r Role) IsSet() bool {
	return r != RoleUnset
}

type User struct {
	ID            string    `json:"id"`                  // Stable first-party identifier
	Subject       string    `json:"-"`                   // Identity provider subject id
	Email         string    `json:"email"`               // User's email address
	Name          string    `json:"name,omitempty"`      // Display name
	Picture       string    `json:"picture,omitempty"`   // Avatar URL
	EmailVerified bool      `json:"email_verified"`      // As reported by the identity provider
	Role          Role      `json:"role"`                // Unset until the user picks one
	CompanyID     string    `json:"companyId,omitempty"` // Optional company reference
	CreatedAt     time.Time `json:"created_at"`
	LastLogin     time.Time `json:"last_login"`
}

// ApplyProfile refreshes the provider-owned fields after a successful login
func (u *User) ApplyProfile(name, picture string, emailVerified bool, loginTime time.Time) {
	u.Name = name
	u.Picture = picture
	u.EmailVerified = emailVerified
	u.LastLogin = loginTime
}
