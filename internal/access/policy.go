// Package access holds the page access policy table and the per-request
// tenant scope used to narrow data queries.
package access

import (
	"sort"
	"strings"

	"github.com/viniuy/e-barangay/internal/models"
)

// UnauthorizedPath is where the gatekeeper sends denied callers.
const UnauthorizedPath = "/unauthorized"

// Policy maps a route prefix to the roles allowed to load it.
// An empty role list makes the prefix public.
type Policy map[string][]models.Role

// DefaultPolicy is the portal's page table.
var DefaultPolicy = Policy{
	"/":              {},
	"/login":         {},
	"/signup":        {},
	"/services":      {},
	"/facilities":    {},
	"/barangays":     {},
	UnauthorizedPath: {},
	"/profile":       {models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin},
	"/user":          {models.RoleUser},
	"/requests":      {models.RoleUser},
	"/admin":         {models.RoleAdmin},
	"/super-admin":   {models.RoleSuperAdmin},
}

// CanAccess answers whether role may load routePrefix. Unknown prefixes deny.
// An empty role means the caller has no session.
func (p Policy) CanAccess(routePrefix string, role models.Role) bool {
	roles, ok := p[routePrefix]
	if !ok {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Match returns the longest table prefix covering path. A prefix covers a
// path it equals or extends at a "/" boundary; "/" covers only itself.
func (p Policy) Match(path string) (string, bool) {
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	prefixes := make([]string, 0, len(p))
	for prefix := range p {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, prefix := range prefixes {
		if path == prefix {
			return prefix, true
		}
		if prefix != "/" && strings.HasPrefix(path, prefix+"/") {
			return prefix, true
		}
	}
	return "", false
}

// Allows combines Match and CanAccess for a concrete path.
func (p Policy) Allows(path string, role models.Role) (string, bool) {
	prefix, ok := p.Match(path)
	if !ok {
		return "", false
	}
	return prefix, p.CanAccess(prefix, role)
}
