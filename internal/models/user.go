package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff is true for barangay staff and super admins.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username           string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email              string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash       string     `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	Role               Role       `gorm:"type:varchar(20);not null;default:'USER';index" json:"role"`
	BarangayID         *uuid.UUID `gorm:"type:uuid;index" json:"barangayId"`
	Barangay           *Barangay  `gorm:"foreignKey:BarangayID;constraint:OnDelete:SET NULL" json:"barangay,omitempty"`
	FirstName          string     `gorm:"type:varchar(100)" json:"firstName"`
	LastName           string     `gorm:"type:varchar(100)" json:"lastName"`
	ContactNumber      string     `gorm:"type:varchar(30)" json:"contactNumber"`
	Address            string     `gorm:"type:text" json:"address"`
	IsVerified         bool       `gorm:"not null;default:false" json:"isVerified"`
	IDDocumentURL      *string    `gorm:"type:text" json:"idDocumentUrl"`
	AddressDocumentURL *string    `gorm:"type:text" json:"addressDocumentUrl"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
