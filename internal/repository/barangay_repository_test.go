package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/internal/testutil"
)

func TestBarangayRepository_GetByNameIgnoresCase(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	repo := repository.NewBarangayRepository(db)
	ctx := context.Background()

	b := testutil.CreateBarangay(t, db, "San Jose")

	got, err := repo.GetByName(ctx, "san jose")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)

	got, err = repo.GetByName(ctx, "San Roque")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestBarangayRepository_DeleteCascades(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	repo := repository.NewBarangayRepository(db)
	users := repository.NewUserRepository(db)
	items := repository.NewItemRepository(db)
	requests := repository.NewRequestRepository(db)
	ctx := context.Background()

	doomed := testutil.CreateBarangay(t, db, "Doomed")
	kept := testutil.CreateBarangay(t, db, "Kept")
	resident := testutil.CreateUser(t, db, models.RoleUser, doomed)
	doomedItem := testutil.CreateItem(t, db, doomed)
	keptItem := testutil.CreateItem(t, db, kept)
	doomedReq := testutil.CreateRequest(t, db, resident, doomedItem, models.StatusPending)
	keptReq := testutil.CreateRequest(t, db, resident, keptItem, models.StatusPending)
	require.NoError(t, requests.AppendAction(ctx, &models.RequestAction{
		RequestID:  doomedReq.ID,
		ActionType: models.StatusApproved,
	}))

	require.NoError(t, repo.Delete(ctx, doomed.ID))

	gone, err := repo.GetByID(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	item, err := items.GetByID(ctx, doomedItem.ID)
	require.NoError(t, err)
	assert.Nil(t, item)

	req, err := requests.GetByID(ctx, doomedReq.ID)
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.Equal(t, int64(0), testutil.CountActions(t, db, doomedReq.ID))

	// users survive, detached
	u, err := users.GetUserByID(ctx, resident.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Nil(t, u.BarangayID)

	req, err = requests.GetByID(ctx, keptReq.ID)
	require.NoError(t, err)
	assert.NotNil(t, req)
}

func TestCategoryRepository_DeleteDetachesItems(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	repo := repository.NewCategoryRepository(db)
	items := repository.NewItemRepository(db)
	ctx := context.Background()

	b := testutil.CreateBarangay(t, db, "San Jose")
	c := testutil.CreateCategory(t, db, "Permits")
	item := testutil.CreateItem(t, db, b, func(i *models.Item) { i.CategoryID = &c.ID })

	require.NoError(t, repo.Delete(ctx, c.ID))

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)
}
