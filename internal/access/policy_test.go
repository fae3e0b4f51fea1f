package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viniuy/e-barangay/internal/models"
)

var allRoles = []models.Role{"", models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin}

func TestCanAccess_UnknownPrefixDenies(t *testing.T) {
	for _, prefix := range []string{"/nope", "/admin/", "/dashboard", ""} {
		for _, role := range allRoles {
			assert.False(t, DefaultPolicy.CanAccess(prefix, role), "prefix %q role %q", prefix, role)
		}
	}
}

func TestCanAccess_PublicPrefixAllowsEveryone(t *testing.T) {
	for prefix, roles := range DefaultPolicy {
		if len(roles) != 0 {
			continue
		}
		for _, role := range allRoles {
			assert.True(t, DefaultPolicy.CanAccess(prefix, role), "prefix %q role %q", prefix, role)
		}
	}
}

func TestCanAccess_RoleMembership(t *testing.T) {
	assert.True(t, DefaultPolicy.CanAccess("/admin", models.RoleAdmin))
	assert.False(t, DefaultPolicy.CanAccess("/admin", models.RoleUser))
	assert.False(t, DefaultPolicy.CanAccess("/admin", models.RoleSuperAdmin))
	assert.False(t, DefaultPolicy.CanAccess("/admin", ""))
	assert.True(t, DefaultPolicy.CanAccess("/profile", models.RoleSuperAdmin))
}

func TestMatch(t *testing.T) {
	cases := []struct {
		path   string
		prefix string
		found  bool
	}{
		{"/", "/", true},
		{"", "/", true},
		{"/admin", "/admin", true},
		{"/admin/", "/admin", true},
		{"/admin/items/123", "/admin", true},
		{"/administrator", "", false},
		{"/super-admin/barangays", "/super-admin", true},
		{"/random/page", "", false},
	}
	for _, tc := range cases {
		prefix, found := DefaultPolicy.Match(tc.path)
		assert.Equal(t, tc.found, found, tc.path)
		assert.Equal(t, tc.prefix, prefix, tc.path)
	}
}

func TestAllows(t *testing.T) {
	_, ok := DefaultPolicy.Allows("/admin/requests", models.RoleAdmin)
	assert.True(t, ok)

	_, ok = DefaultPolicy.Allows("/admin/requests", models.RoleUser)
	assert.False(t, ok)

	_, ok = DefaultPolicy.Allows("/unknown", models.RoleSuperAdmin)
	assert.False(t, ok)
}
