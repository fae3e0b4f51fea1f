package broker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniuy/e-barangay/internal/models"
)

func TestRedisEventBroker_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	b := NewRedisEventBroker(client)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.Subscribe(ctx)
	require.NoError(t, err)

	barangay := uuid.New()
	sent := RequestEvent{
		Type:           EventRequestTransitioned,
		RequestID:      uuid.New(),
		ItemID:         uuid.New(),
		UserID:         uuid.New(),
		BarangayID:     &barangay,
		Status:         models.StatusApproved,
		PreviousStatus: models.StatusPending,
		ActorID:        uuid.New(),
		OccurredAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, b.Publish(ctx, sent))

	select {
	case got := <-events:
		assert.Equal(t, sent.RequestID, got.RequestID)
		assert.Equal(t, models.StatusApproved, got.Status)
		assert.Equal(t, barangay, *got.BarangayID)
		assert.True(t, sent.OccurredAt.Equal(got.OccurredAt))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisEventBroker_SubscribeStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	b := NewRedisEventBroker(client)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := b.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.NoError(t, b.Close())
}
