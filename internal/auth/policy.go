package auth

import (
	"fmt"
	"strings"
)

// Roles known to the policies below.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
)

// Named policies.
const (
	PolicyAdminOnly   = "AdminOnly"
	PolicyManagerOnly = "ManagerOnly"
)

var policyRoles = map[string]string{
	PolicyAdminOnly:   RoleAdmin,
	PolicyManagerOnly: RoleManager,
}

// Policy is the set of roles allowed through a gate. The zero value admits
// any authenticated caller.
type Policy struct {
	names []string
	roles map[string]struct{}
}

// ParsePolicy parses a comma separated list of policy names. A caller passes
// if their role satisfies any one of them.
func ParsePolicy(list string) (Policy, error) {
	p := Policy{}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		role, ok := policyRoles[name]
		if !ok {
			return Policy{}, fmt.Errorf("unknown policy %q", name)
		}
		if p.roles == nil {
			p.roles = make(map[string]struct{})
		}
		p.names = append(p.names, name)
		p.roles[role] = struct{}{}
	}
	return p, nil
}

// MustParsePolicy is like ParsePolicy but panics on an unknown name. It is
// meant for route tables built at startup.
func MustParsePolicy(list string) Policy {
	p, err := ParsePolicy(list)
	if err != nil {
		panic(err)
	}
	return p
}

// Allows reports whether role passes the policy. Role names are case-sensitive.
func (p Policy) Allows(role string) bool {
	if len(p.roles) == 0 {
		return true
	}
	_, ok := p.roles[role]
	return ok
}

func (p Policy) String() string {
	if len(p.names) == 0 {
		return "Authenticated"
	}
	return strings.Join(p.names, ",")
}
