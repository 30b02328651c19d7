package schema

import (
	"fmt"
	"regexp"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionWrite  Action = "write"
)

// Role expressions understood by the backend.
const (
	RoleAny   = "any"
	RoleUsers = "users"
	RoleAdmin = "label:admin"
)

// Permission grants an action to a role expression, rendered as read("any").
type Permission struct {
	Action Action `json:"action"`
	Role   string `json:"role"`
}

func Read(role string) Permission   { return Permission{Action: ActionRead, Role: role} }
func Create(role string) Permission { return Permission{Action: ActionCreate, Role: role} }
func Update(role string) Permission { return Permission{Action: ActionUpdate, Role: role} }
func Delete(role string) Permission { return Permission{Action: ActionDelete, Role: role} }
func Write(role string) Permission  { return Permission{Action: ActionWrite, Role: role} }

func (p Permission) String() string {
	return fmt.Sprintf("%s(%q)", p.Action, p.Role)
}

var permissionRe = regexp.MustCompile(`^(read|create|update|delete|write)\("([^"]+)"\)$`)

// ParsePermission parses the read("any") form produced by String.
func ParsePermission(s string) (Permission, error) {
	m := permissionRe.FindStringSubmatch(s)
	if m == nil {
		return Permission{}, fmt.Errorf("invalid permission %q", s)
	}
	return Permission{Action: Action(m[1]), Role: m[2]}, nil
}

// PermissionStrings renders permissions in declaration order.
func PermissionStrings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.String()
	}
	return out
}

// ParsePermissions is the inverse of PermissionStrings.
func ParsePermissions(raw []string) ([]Permission, error) {
	out := make([]Permission, 0, len(raw))
	for _, s := range raw {
		p, err := ParsePermission(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
