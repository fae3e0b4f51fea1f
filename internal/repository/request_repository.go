package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/models"
)

// ErrStaleStatus is returned when a request no longer has the status an
// update was conditioned on.
var ErrStaleStatus = errors.New("request status changed concurrently")

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{db: tx}
}

// Transaction runs fn with a repository bound to a new transaction.
func (r *RequestRepository) Transaction(ctx context.Context, fn func(repo *RequestRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

type RequestFilter struct {
	ID     *uuid.UUID
	Status models.RequestStatus
	ItemID *uuid.UUID
}

func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetByID loads the request with its item and requester.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var req models.Request
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("User").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// List returns requests matching f inside scope, newest first.
func (r *RequestRepository) List(ctx context.Context, f RequestFilter, scope ScopeFunc) ([]models.Request, error) {
	q, err := applyScope(r.db.WithContext(ctx).Model(&models.Request{}), scope)
	if err != nil {
		return nil, err
	}

	if f.ID != nil {
		q = q.Where("requests.id = ?", *f.ID)
	}
	if f.Status != "" {
		q = q.Where("requests.status = ?", f.Status)
	}
	if f.ItemID != nil {
		q = q.Where("requests.item_id = ?", *f.ItemID)
	}

	var out []models.Request
	err = q.Preload("Item").Preload("User").Order("requests.created_at DESC").Find(&out).Error
	return out, err
}

// UpdateStatus moves the request from one status to another. It fails with
// ErrStaleStatus if the stored status is no longer from.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// AppendAction records an audit entry. Actions are never updated or deleted
// individually.
func (r *RequestRepository) AppendAction(ctx context.Context, action *models.RequestAction) error {
	return r.db.WithContext(ctx).Create(action).Error
}

// ListActions returns the audit trail of a request, oldest first.
func (r *RequestRepository) ListActions(ctx context.Context, requestID uuid.UUID) ([]models.RequestAction, error) {
	var out []models.RequestAction
	err := r.db.WithContext(ctx).
		Preload("Admin").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
