package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemType string

const (
	ItemTypeService  ItemType = "service"
	ItemTypeFacility ItemType = "facility"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeService || t == ItemTypeFacility
}

type ItemStatus string

const (
	ItemAvailable   ItemStatus = "available"
	ItemUnavailable ItemStatus = "unavailable"
	ItemMaintenance ItemStatus = "maintenance"
	ItemArchived    ItemStatus = "archived"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemAvailable, ItemUnavailable, ItemMaintenance, ItemArchived:
		return true
	}
	return false
}

// Item is a requestable service or facility listing.
type Item struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string     `gorm:"type:varchar(150);not null" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	Type           ItemType   `gorm:"type:varchar(20);not null;default:'service';index" json:"type"`
	CategoryID     *uuid.UUID `gorm:"type:uuid;index" json:"categoryId"`
	Category       *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	ProcessingTime string     `gorm:"type:varchar(100)" json:"processingTime"`
	Availability   string     `gorm:"type:varchar(150)" json:"availability"`
	BookingRules   *string    `gorm:"type:text" json:"bookingRules"`
	Status         ItemStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	ImageURL       *string    `gorm:"type:text" json:"imageUrl"`
	BarangayID     *uuid.UUID `gorm:"type:uuid;index" json:"barangayId"`
	Barangay       *Barangay  `gorm:"foreignKey:BarangayID;constraint:OnDelete:CASCADE" json:"barangay,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
