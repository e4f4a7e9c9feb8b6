package adapter

import "fmt"

// Role identifies one pipeline stage category.
type Role string

const (
	RoleCapture  Role = "capture"
	RoleWatcher  Role = "watcher"
	RoleMux      Role = "mux"
	RoleColor    Role = "color"
	RoleUploader Role = "uploader"
	RoleNotifier Role = "notifier"
	RoleAI       Role = "ai"
)

// Roles lists every known role in pipeline order.
func Roles() []Role {
	return []Role{RoleCapture, RoleWatcher, RoleMux, RoleColor, RoleUploader, RoleNotifier, RoleAI}
}

// ParseRole converts a string to a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	for _, known := range Roles() {
		if role == known {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }
