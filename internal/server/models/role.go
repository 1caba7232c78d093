package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rnbmx/bmxshop/internal/common"
)

// Role is a closed enumeration of permission tiers.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AllRoles lists every known role; the migration seeds exactly these.
var AllRoles = []Role{RoleUser, RoleAdmin}

// ParseRole accepts "user", "USER" and "ROLE_USER" style names.
// Unknown names fail with common.ErrUnknownRole.
func ParseRole(name string) (Role, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "ROLE_")
	for _, r := range AllRoles {
		if string(r) == n {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownRole, name)
}

// ParseRoles parses every name, failing on the first unknown one.
// Duplicates are collapsed.
func ParseRoles(names []string) (RoleSet, error) {
	set := make(RoleSet, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		set[r] = struct{}{}
	}
	return set, nil
}

func (r Role) String() string { return string(r) }

// RoleSet is the set of roles held by one identity.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Names returns the role names sorted for stable output.
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// Slice returns the roles sorted by name.
func (s RoleSet) Slice() []Role {
	names := s.Names()
	out := make([]Role, len(names))
	for i, n := range names {
		out[i] = Role(n)
	}
	return out
}
