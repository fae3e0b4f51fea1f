package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/apperror"
	"github.com/viniuy/e-barangay/internal/cache"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/internal/utils"
	"github.com/viniuy/e-barangay/pkg/logger"
)

var (
	ErrUserNotFound   = apperror.NotFound("User not found")
	ErrDeleteSelf     = apperror.Validation("You cannot delete your own account")
	ErrInvalidRole    = apperror.Validation("Invalid role")
	ErrForbiddenField = apperror.Forbidden("Not allowed to change this field")
)

// CreateUserInput is an account created by a SUPER_ADMIN.
type CreateUserInput struct {
	SignupInput
	Role       models.Role
	IsVerified bool
}

// UserPatch holds optional changes; nil fields are left untouched.
// BarangayID "" detaches the user from its barangay.
type UserPatch struct {
	FirstName          *string
	LastName           *string
	ContactNumber      *string
	Address            *string
	IDDocumentURL      *string
	AddressDocumentURL *string
	Password           *string
	IsVerified         *bool
	Role               *models.Role
	BarangayID         *string
}

func (p UserPatch) touchesProfile() bool {
	return p.FirstName != nil || p.LastName != nil || p.ContactNumber != nil || p.Address != nil ||
		p.IDDocumentURL != nil || p.AddressDocumentURL != nil || p.Password != nil
}

type UserService struct {
	users     *repository.UserRepository
	barangays *repository.BarangayRepository
	listings  *cache.Cache
}

func NewUserService(users *repository.UserRepository, barangays *repository.BarangayRepository, listings *cache.Cache) *UserService {
	return &UserService{users: users, barangays: barangays, listings: listings}
}

func (s *UserService) List(ctx context.Context, scope *access.Scope, f repository.UserFilter) ([]models.User, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, ErrInvalidRole
	}

	users, err := s.users.ListUsers(ctx, f, func(db *gorm.DB) (*gorm.DB, error) { return scope.Users(db) })
	if err != nil {
		if apperror.Is(err, apperror.KindForbidden) {
			return nil, err
		}
		logger.Log.Error("Failed to list users", zap.Error(err))
		return nil, apperror.Internal(err)
	}
	return users, nil
}

// Get returns a user the caller may see: itself, its barangay's users for
// ADMIN, anyone for SUPER_ADMIN.
func (s *UserService) Get(ctx context.Context, scope *access.Scope, id uuid.UUID) (*models.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canView(scope, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, scope *access.Scope, in CreateUserInput) (*models.User, error) {
	if !scope.IsSuperAdmin() {
		return nil, apperror.Forbidden("Forbidden")
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateCredentials(in.Username, in.Email, in.Password); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}
	if err := s.ensureBarangay(ctx, in.BarangayID); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &models.User{
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  hashed,
		Role:          in.Role,
		BarangayID:    in.BarangayID,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Address:       strings.TrimSpace(in.Address),
		IsVerified:    in.IsVerified,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		logger.Log.Error("Failed to create user", zap.String("username", in.Username), zap.Error(err))
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("User created by super admin",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("actor_id", scope.UserID.String()),
	)
	return s.get(ctx, user.ID)
}

// Update applies p to user id. Callers edit their own profile; ADMIN verifies
// users of its barangay; SUPER_ADMIN may change anything.
func (s *UserService) Update(ctx context.Context, scope *access.Scope, id uuid.UUID, p UserPatch) (*models.User, error) {
	if scope == nil {
		return nil, apperror.Unauthorized("Not authenticated")
	}

	target, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	self := target.ID == scope.UserID
	if !self && !scope.IsSuperAdmin() && !scope.IsAdmin() {
		return nil, apperror.Forbidden("Forbidden")
	}
	if scope.IsAdmin() && !self {
		if err := s.canView(scope, target); err != nil {
			return nil, err
		}
		if p.touchesProfile() {
			return nil, ErrForbiddenField
		}
	}
	if (p.Role != nil || p.BarangayID != nil) && !scope.IsSuperAdmin() {
		return nil, ErrForbiddenField
	}
	if p.IsVerified != nil && !scope.IsAdmin() && !scope.IsSuperAdmin() {
		return nil, ErrForbiddenField
	}

	fields := map[string]interface{}{}
	setTrimmed := func(column string, v *string) {
		if v != nil {
			fields[column] = strings.TrimSpace(*v)
		}
	}
	setTrimmed("first_name", p.FirstName)
	setTrimmed("last_name", p.LastName)
	setTrimmed("contact_number", p.ContactNumber)
	setTrimmed("address", p.Address)
	if p.IDDocumentURL != nil {
		fields["id_document_url"] = trimmedOrNil(p.IDDocumentURL)
	}
	if p.AddressDocumentURL != nil {
		fields["address_document_url"] = trimmedOrNil(p.AddressDocumentURL)
	}
	if p.Password != nil {
		if len(*p.Password) < 8 || len(*p.Password) > 128 {
			return nil, apperror.Validation("Password must be between 8 and 128 characters")
		}
		hashed, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		fields["password_hash"] = hashed
	}
	if p.IsVerified != nil {
		fields["is_verified"] = *p.IsVerified
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, ErrInvalidRole
		}
		if self && *p.Role != models.RoleSuperAdmin {
			return nil, apperror.Validation("You cannot demote your own account")
		}
		fields["role"] = *p.Role
	}
	if p.BarangayID != nil {
		if *p.BarangayID == "" {
			fields["barangay_id"] = nil
		} else {
			bid, err := uuid.Parse(*p.BarangayID)
			if err != nil {
				return nil, apperror.Validation("Invalid barangayId")
			}
			if err := s.ensureBarangay(ctx, &bid); err != nil {
				return nil, err
			}
			fields["barangay_id"] = bid
		}
	}

	if err := s.users.UpdateUser(ctx, id, fields); err != nil {
		logger.Log.Error("Failed to update user", zap.String("user_id", id.String()), zap.Error(err))
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("User updated",
		zap.String("user_id", id.String()),
		zap.String("actor_id", scope.UserID.String()),
		zap.Int("fields", len(fields)),
	)
	return s.get(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, scope *access.Scope, id uuid.UUID) error {
	if !scope.IsSuperAdmin() {
		return apperror.Forbidden("Forbidden")
	}
	if id == scope.UserID {
		return ErrDeleteSelf
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		logger.Log.Error("Failed to delete user", zap.String("user_id", id.String()), zap.Error(err))
		return apperror.Internal(err)
	}
	// the user's requests went with it
	s.listings.Invalidate(ctx, cache.NamespaceRequests)

	logger.Log.Info("User deleted",
		zap.String("user_id", id.String()),
		zap.String("actor_id", scope.UserID.String()),
	)
	return nil
}

func (s *UserService) canView(scope *access.Scope, user *models.User) error {
	switch {
	case scope == nil:
		return apperror.Unauthorized("Not authenticated")
	case scope.UserID == user.ID, scope.IsSuperAdmin():
		return nil
	case scope.IsAdmin():
		if scope.BarangayID == nil {
			return access.ErrNoBarangay
		}
		if user.BarangayID == nil || *user.BarangayID != *scope.BarangayID {
			return apperror.Forbidden("User belongs to another barangay")
		}
		return nil
	default:
		return apperror.Forbidden("Forbidden")
	}
}

func (s *UserService) get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ensureUnique(ctx context.Context, username, email string) error {
	if u, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return apperror.Internal(err)
	} else if u != nil {
		return ErrEmailAlreadyExists
	}
	if u, err := s.users.GetUserByUsername(ctx, username); err != nil {
		return apperror.Internal(err)
	} else if u != nil {
		return ErrUsernameAlreadyExists
	}
	return nil
}

func (s *UserService) ensureBarangay(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	b, err := s.barangays.GetByID(ctx, *id)
	if err != nil {
		return apperror.Internal(err)
	}
	if b == nil {
		return ErrBarangayNotFound
	}
	return nil
}
