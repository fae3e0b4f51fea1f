package access

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/apperror"
	"github.com/viniuy/e-barangay/internal/models"
)

// ErrNoBarangay is returned for ADMIN callers that are not bound to a barangay.
var ErrNoBarangay = apperror.Forbidden("Admin is not assigned to a barangay")

// Scope is the data partition of the current caller. A nil *Scope is an
// anonymous caller.
type Scope struct {
	UserID     uuid.UUID
	Role       models.Role
	BarangayID *uuid.UUID
}

// ForUser derives the scope of an authenticated user.
func ForUser(u *models.User) *Scope {
	if u == nil {
		return nil
	}
	return &Scope{UserID: u.ID, Role: u.Role, BarangayID: u.BarangayID}
}

func (s *Scope) IsSuperAdmin() bool { return s != nil && s.Role == models.RoleSuperAdmin }
func (s *Scope) IsAdmin() bool      { return s != nil && s.Role == models.RoleAdmin }
func (s *Scope) IsUser() bool       { return s != nil && s.Role == models.RoleUser }

// adminBarangay returns the bound barangay of an ADMIN caller.
func (s *Scope) adminBarangay() (uuid.UUID, error) {
	if s.BarangayID == nil || *s.BarangayID == uuid.Nil {
		return uuid.Nil, ErrNoBarangay
	}
	return *s.BarangayID, nil
}

// Items narrows an items query. requested is the caller-supplied barangay
// filter; it is ANDed with the role scope, never substituted for it.
func (s *Scope) Items(db *gorm.DB, requested *uuid.UUID) (*gorm.DB, error) {
	if s.IsAdmin() {
		b, err := s.adminBarangay()
		if err != nil {
			return nil, err
		}
		db = db.Where("items.barangay_id = ?", b)
	}
	if requested != nil {
		db = db.Where("items.barangay_id = ?", *requested)
	}
	return db, nil
}

// Requests narrows a requests query. The query must be on the requests table.
func (s *Scope) Requests(db *gorm.DB, requested *uuid.UUID) (*gorm.DB, error) {
	switch {
	case s == nil:
		return nil, apperror.Unauthorized("Not authenticated")
	case s.IsSuperAdmin():
	case s.IsAdmin():
		b, err := s.adminBarangay()
		if err != nil {
			return nil, err
		}
		db = db.Where("requests.item_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Item{}).Select("id").Where("barangay_id = ?", b))
	default:
		db = db.Where("requests.user_id = ?", s.UserID)
	}
	if requested != nil {
		db = db.Where("requests.item_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Item{}).Select("id").Where("barangay_id = ?", *requested))
	}
	return db, nil
}

// Users narrows a users query: ADMIN sees its barangay, SUPER_ADMIN everyone.
func (s *Scope) Users(db *gorm.DB) (*gorm.DB, error) {
	switch {
	case s.IsSuperAdmin():
		return db, nil
	case s.IsAdmin():
		b, err := s.adminBarangay()
		if err != nil {
			return nil, err
		}
		return db.Where("users.barangay_id = ?", b), nil
	default:
		return nil, apperror.Forbidden("Forbidden")
	}
}

// BarangayForNewItem decides the tenant binding of an item being created.
func (s *Scope) BarangayForNewItem(requested *uuid.UUID) (*uuid.UUID, error) {
	switch {
	case s.IsSuperAdmin():
		return requested, nil
	case s.IsAdmin():
		b, err := s.adminBarangay()
		if err != nil {
			return nil, err
		}
		if requested != nil && *requested != b {
			return nil, apperror.Forbidden("Cannot create items for another barangay")
		}
		return &b, nil
	default:
		return nil, apperror.Forbidden("Forbidden")
	}
}

// CanManageItem reports whether the caller may edit or delete item.
func (s *Scope) CanManageItem(item *models.Item) error {
	switch {
	case s.IsSuperAdmin():
		return nil
	case s.IsAdmin():
		b, err := s.adminBarangay()
		if err != nil {
			return err
		}
		if item.BarangayID == nil || *item.BarangayID != b {
			return apperror.Forbidden("Item belongs to another barangay")
		}
		return nil
	default:
		return apperror.Forbidden("Forbidden")
	}
}

// CanManageRequest reports whether the caller may act on req as staff or, for
// USER callers, as its owner. req.Item must be loaded for ADMIN callers.
func (s *Scope) CanManageRequest(req *models.Request) error {
	switch {
	case s == nil:
		return apperror.Unauthorized("Not authenticated")
	case s.IsSuperAdmin():
		return nil
	case s.IsAdmin():
		b, err := s.adminBarangay()
		if err != nil {
			return err
		}
		if req.Item == nil || req.Item.BarangayID == nil || *req.Item.BarangayID != b {
			return apperror.Forbidden("Request belongs to another barangay")
		}
		return nil
	default:
		if req.UserID != s.UserID {
			return apperror.Forbidden("Request belongs to another user")
		}
		return nil
	}
}

// CacheKey identifies the partition for cached listings.
func (s *Scope) CacheKey() string {
	if s == nil {
		return "anon"
	}
	switch s.Role {
	case models.RoleSuperAdmin:
		return "super"
	case models.RoleAdmin:
		if s.BarangayID == nil {
			return "admin:none"
		}
		return "admin:" + s.BarangayID.String()
	default:
		return fmt.Sprintf("user:%s", s.UserID)
	}
}
