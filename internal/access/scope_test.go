package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniuy/e-barangay/internal/apperror"
	"github.com/viniuy/e-barangay/internal/models"
)

func adminScope(b *uuid.UUID) *Scope {
	return &Scope{UserID: uuid.New(), Role: models.RoleAdmin, BarangayID: b}
}

func TestBarangayForNewItem(t *testing.T) {
	own := uuid.New()
	other := uuid.New()

	got, err := adminScope(&own).BarangayForNewItem(nil)
	require.NoError(t, err)
	assert.Equal(t, own, *got)

	_, err = adminScope(&own).BarangayForNewItem(&other)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = adminScope(nil).BarangayForNewItem(nil)
	assert.ErrorIs(t, err, ErrNoBarangay)

	super := &Scope{UserID: uuid.New(), Role: models.RoleSuperAdmin}
	got, err = super.BarangayForNewItem(&other)
	require.NoError(t, err)
	assert.Equal(t, other, *got)

	user := &Scope{UserID: uuid.New(), Role: models.RoleUser}
	_, err = user.BarangayForNewItem(nil)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestCanManageItem(t *testing.T) {
	own := uuid.New()
	other := uuid.New()

	assert.NoError(t, adminScope(&own).CanManageItem(&models.Item{BarangayID: &own}))
	assert.Error(t, adminScope(&own).CanManageItem(&models.Item{BarangayID: &other}))
	assert.Error(t, adminScope(&own).CanManageItem(&models.Item{}))
	assert.NoError(t, (&Scope{Role: models.RoleSuperAdmin}).CanManageItem(&models.Item{}))
}

func TestCanManageRequest(t *testing.T) {
	own := uuid.New()
	owner := uuid.New()
	req := &models.Request{UserID: owner, Item: &models.Item{BarangayID: &own}}

	assert.NoError(t, adminScope(&own).CanManageRequest(req))
	other := uuid.New()
	assert.Error(t, adminScope(&other).CanManageRequest(req))

	assert.NoError(t, (&Scope{UserID: owner, Role: models.RoleUser}).CanManageRequest(req))
	assert.Error(t, (&Scope{UserID: uuid.New(), Role: models.RoleUser}).CanManageRequest(req))

	var anon *Scope
	assert.True(t, apperror.Is(anon.CanManageRequest(req), apperror.KindUnauthorized))
}

func TestCacheKey(t *testing.T) {
	var anon *Scope
	assert.Equal(t, "anon", anon.CacheKey())

	b := uuid.New()
	assert.Equal(t, "admin:"+b.String(), adminScope(&b).CacheKey())
	assert.Equal(t, "super", (&Scope{Role: models.RoleSuperAdmin}).CacheKey())
}
