package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/apperror"
	"github.com/viniuy/e-barangay/internal/broker"
	"github.com/viniuy/e-barangay/internal/cache"
	"github.com/viniuy/e-barangay/internal/lifecycle"
	"github.com/viniuy/e-barangay/internal/metrics"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/pkg/logger"
)

var (
	ErrRequestNotFound    = apperror.NotFound("Request not found")
	ErrItemUnavailable    = apperror.Validation("Item is not available for requests")
	ErrInvalidStatus      = apperror.Validation("Invalid status")
	ErrOnlyCancel         = apperror.Forbidden("Residents may only cancel their own requests")
	ErrAlreadyProcessed   = apperror.Validation("Request was already processed")
	ErrActorMismatch      = apperror.Forbidden("adminUserId does not match the current session")
	ErrSubmitRequiresUser = apperror.Forbidden("Only residents can submit requests")
)

type RequestQuery struct {
	ID         *uuid.UUID
	Status     models.RequestStatus
	ItemID     *uuid.UUID
	BarangayID *uuid.UUID
}

func (q RequestQuery) cacheKey(scope *access.Scope) string {
	return fmt.Sprintf("%s|id=%s|status=%s|item=%s|brgy=%s",
		scope.CacheKey(), uuidOrEmpty(q.ID), q.Status, uuidOrEmpty(q.ItemID), uuidOrEmpty(q.BarangayID))
}

// TransitionInput is a status change requested by the caller.
type TransitionInput struct {
	RequestID uuid.UUID
	Status    models.RequestStatus
	Remarks   *string
	// AdminUserID, when set, must be the caller.
	AdminUserID *uuid.UUID
}

type RequestService struct {
	requests *repository.RequestRepository
	items    *repository.ItemRepository
	cache    *cache.Cache
	events   broker.EventBroker
	metrics  *metrics.Metrics
}

func NewRequestService(
	requests *repository.RequestRepository,
	items *repository.ItemRepository,
	c *cache.Cache,
	events broker.EventBroker,
	m *metrics.Metrics,
) *RequestService {
	return &RequestService{
		requests: requests,
		items:    items,
		cache:    c,
		events:   events,
		metrics:  m,
	}
}

// List returns the requests visible to scope.
func (s *RequestService) List(ctx context.Context, scope *access.Scope, q RequestQuery) ([]models.Request, error) {
	if q.Status != "" && !lifecycle.Known(q.Status) {
		return nil, ErrInvalidStatus
	}

	filter := repository.RequestFilter{ID: q.ID, Status: q.Status, ItemID: q.ItemID}
	scopeFn := func(db *gorm.DB) (*gorm.DB, error) { return scope.Requests(db, q.BarangayID) }

	out, err := cache.Fetch(ctx, s.cache, cache.NamespaceRequests, q.cacheKey(scope), func() ([]models.Request, error) {
		return s.requests.List(ctx, filter, scopeFn)
	})
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Log.Error("Failed to list requests", zap.Error(err))
		return nil, apperror.Internal(err)
	}
	return out, nil
}

// Submit files a new pending request against an available item.
func (s *RequestService) Submit(ctx context.Context, scope *access.Scope, itemID uuid.UUID, reason *string) (*models.Request, error) {
	if scope == nil {
		return nil, apperror.Unauthorized("Not authenticated")
	}
	if !scope.IsUser() {
		return nil, ErrSubmitRequiresUser
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.Status != models.ItemAvailable {
		logger.Log.Warn("Request for unavailable item",
			zap.String("item_id", itemID.String()),
			zap.String("item_status", string(item.Status)),
		)
		return nil, ErrItemUnavailable
	}

	req := &models.Request{
		UserID: scope.UserID,
		ItemID: itemID,
		Status: models.StatusPending,
		Reason: trimmedOrNil(reason),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		logger.Log.Error("Failed to create request",
			zap.String("user_id", scope.UserID.String()),
			zap.String("item_id", itemID.String()),
			zap.Error(err),
		)
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Request submitted",
		zap.String("request_id", req.ID.String()),
		zap.String("user_id", scope.UserID.String()),
		zap.String("item_id", itemID.String()),
	)

	s.metrics.RequestSubmitted()
	s.afterChange(ctx, broker.RequestEvent{
		Type:       broker.EventRequestSubmitted,
		RequestID:  req.ID,
		ItemID:     itemID,
		UserID:     scope.UserID,
		BarangayID: item.BarangayID,
		Status:     req.Status,
		ActorID:    scope.UserID,
		OccurredAt: req.CreatedAt,
	})

	return s.get(ctx, req.ID)
}

// Transition applies a status change. The status update and, for staff
// actors, the audit entry are written in one transaction.
func (s *RequestService) Transition(ctx context.Context, scope *access.Scope, in TransitionInput) (*models.Request, error) {
	if scope == nil {
		return nil, apperror.Unauthorized("Not authenticated")
	}
	if in.AdminUserID != nil && *in.AdminUserID != scope.UserID {
		logger.Log.Warn("Transition actor mismatch",
			zap.String("user_id", scope.UserID.String()),
			zap.String("admin_user_id", in.AdminUserID.String()),
		)
		return nil, ErrActorMismatch
	}
	if !lifecycle.Known(in.Status) {
		return nil, ErrInvalidStatus
	}

	// 1. Load and authorize
	req, err := s.get(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if err := scope.CanManageRequest(req); err != nil {
		return nil, err
	}
	if scope.IsUser() && in.Status != models.StatusCancelled {
		return nil, ErrOnlyCancel
	}

	// 2. Validate the transition
	from := req.Status
	next, err := lifecycle.Next(from, in.Status)
	if err != nil {
		logger.Log.Warn("Rejected request transition",
			zap.String("request_id", req.ID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(in.Status)),
		)
		return nil, apperror.Validation(fmt.Sprintf("Cannot change a %s request to %s", from, in.Status))
	}

	// 3. Apply atomically
	staff := scope.IsAdmin() || scope.IsSuperAdmin()
	err = s.requests.Transaction(ctx, func(repo *repository.RequestRepository) error {
		if err := repo.UpdateStatus(ctx, req.ID, from, next); err != nil {
			return err
		}
		if !staff {
			// self-cancel leaves no audit entry
			return nil
		}
		actor := scope.UserID
		return repo.AppendAction(ctx, &models.RequestAction{
			RequestID:  req.ID,
			AdminID:    &actor,
			ActionType: next,
			Remarks:    trimmedOrNil(in.Remarks),
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, ErrAlreadyProcessed
		}
		logger.Log.Error("Failed to apply request transition",
			zap.String("request_id", req.ID.String()),
			zap.Error(err),
		)
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Request transitioned",
		zap.String("request_id", req.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
		zap.String("actor_id", scope.UserID.String()),
		zap.String("actor_role", string(scope.Role)),
	)

	s.metrics.RequestTransitioned(string(from), string(next))

	var barangayID *uuid.UUID
	if req.Item != nil {
		barangayID = req.Item.BarangayID
	}
	s.afterChange(ctx, broker.RequestEvent{
		Type:           broker.EventRequestTransitioned,
		RequestID:      req.ID,
		ItemID:         req.ItemID,
		UserID:         req.UserID,
		BarangayID:     barangayID,
		Status:         next,
		PreviousStatus: from,
		ActorID:        scope.UserID,
		OccurredAt:     time.Now().UTC(),
	})

	return s.get(ctx, req.ID)
}

// Actions returns the audit trail of a request visible to scope.
func (s *RequestService) Actions(ctx context.Context, scope *access.Scope, requestID uuid.UUID) ([]models.RequestAction, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := scope.CanManageRequest(req); err != nil {
		return nil, err
	}

	actions, err := s.requests.ListActions(ctx, requestID)
	if err != nil {
		logger.Log.Error("Failed to list request actions", zap.String("request_id", requestID.String()), zap.Error(err))
		return nil, apperror.Internal(err)
	}
	return actions, nil
}

func (s *RequestService) get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// afterChange invalidates cached listings and publishes evt. Failures are
// logged only; the change is already committed.
func (s *RequestService) afterChange(ctx context.Context, evt broker.RequestEvent) {
	s.cache.Invalidate(ctx, cache.NamespaceRequests)

	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		logger.Log.Warn("Failed to publish request event",
			zap.String("request_id", evt.RequestID.String()),
			zap.String("type", string(evt.Type)),
			zap.Error(err),
		)
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
