package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type UserFilter struct {
	Role   models.Role
	Search string
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "LOWER(username) = LOWER(?)", username)
}

// GetUserByID returns nil, nil when the user does not exist.
func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Barangay").Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns users visible through scope, newest first.
func (r *UserRepository) ListUsers(ctx context.Context, f UserFilter, scope ScopeFunc) ([]models.User, error) {
	q, err := applyScope(r.db.WithContext(ctx).Model(&models.User{}), scope)
	if err != nil {
		return nil, err
	}

	if f.Role != "" {
		q = q.Where("users.role = ?", f.Role)
	}
	if f.Search != "" {
		cols := []string{"users.username", "users.email", "users.first_name", "users.last_name"}
		q = q.Where(searchClause(cols...), repeatArg(likePattern(f.Search), len(cols))...)
	}

	var users []models.User
	err = q.Preload("Barangay").Order("users.created_at DESC").Find(&users).Error
	return users, err
}

// UpdateUser writes the given columns. Keys are column names.
func (r *UserRepository) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteUser removes the user and their requests. Audit entries the user
// recorded as staff are kept with the admin cleared.
func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RequestAction{}).Where("admin_id = ?", id).Update("admin_id", nil).Error; err != nil {
			return err
		}

		requestIDs := tx.Model(&models.Request{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("request_id IN (?)", requestIDs).Delete(&models.RequestAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Request{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
}
