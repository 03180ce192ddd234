package models

import (
	"fmt"
	"strings"
)

// Role is a per-lab privilege level. The numeric values form a strict total
// order so authorization is a single comparison.
type Role int

const (
	RoleNone Role = iota
	RoleViewer
	RoleTechnician
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleViewer:     "viewer",
	RoleTechnician: "technician",
	RoleAdmin:      "admin",
}

// String implements fmt.Stringer.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "none"
}

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	return r >= RoleViewer && r <= RoleAdmin
}

// AtLeast reports whether r satisfies the minimum role min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r >= min
}

// ParseRole converts a role name to a Role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if strings.EqualFold(s, name) {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
