package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Request is a citizen's application against one Item.
type Request struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"userId"`
	User      *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"itemId"`
	Item      *Item           `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"item,omitempty"`
	Status    RequestStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Reason    *string         `gorm:"type:text" json:"reason"`
	Actions   []RequestAction `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"actions,omitempty"`
	CreatedAt time.Time       `gorm:"index" json:"submittedAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RequestAction is an append-only audit entry for one status transition.
type RequestAction struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"requestId"`
	AdminID    *uuid.UUID    `gorm:"type:uuid;index" json:"adminId"`
	Admin      *User         `gorm:"foreignKey:AdminID;constraint:OnDelete:SET NULL" json:"admin,omitempty"`
	ActionType RequestStatus `gorm:"type:varchar(20);not null" json:"actionType"`
	Remarks    *string       `gorm:"type:text" json:"remarks"`
	CreatedAt  time.Time     `gorm:"index" json:"createdAt"`
}

func (a *RequestAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
