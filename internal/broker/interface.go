package broker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/viniuy/e-barangay/internal/models"
)

type EventType string

const (
	EventRequestSubmitted    EventType = "request.submitted"
	EventRequestTransitioned EventType = "request.transitioned"
)

// RequestEvent is published after a request is created or changes status.
type RequestEvent struct {
	Type           EventType            `json:"type"`
	RequestID      uuid.UUID            `json:"requestId"`
	ItemID         uuid.UUID            `json:"itemId"`
	UserID         uuid.UUID            `json:"userId"`
	BarangayID     *uuid.UUID           `json:"barangayId"`
	Status         models.RequestStatus `json:"status"`
	PreviousStatus models.RequestStatus `json:"previousStatus,omitempty"`
	ActorID        uuid.UUID            `json:"actorId"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

// EventBroker distributes request events between server instances.
type EventBroker interface {
	Publish(ctx context.Context, evt RequestEvent) error
	// Subscribe delivers events until ctx is cancelled, then closes the channel.
	Subscribe(ctx context.Context) (<-chan RequestEvent, error)
	Close() error
}
