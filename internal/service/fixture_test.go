package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/broker"
	"github.com/viniuy/e-barangay/internal/cache"
	"github.com/viniuy/e-barangay/internal/metrics"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/internal/service"
	"github.com/viniuy/e-barangay/internal/session"
	"github.com/viniuy/e-barangay/internal/storage"
	"github.com/viniuy/e-barangay/internal/testutil"
)

// recordingBroker keeps published events in memory.
type recordingBroker struct {
	mu     sync.Mutex
	events []broker.RequestEvent
}

func (b *recordingBroker) Publish(_ context.Context, evt broker.RequestEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBroker) Subscribe(ctx context.Context) (<-chan broker.RequestEvent, error) {
	ch := make(chan broker.RequestEvent)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (b *recordingBroker) Close() error { return nil }

func (b *recordingBroker) Events() []broker.RequestEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broker.RequestEvent(nil), b.events...)
}

type services struct {
	db       *gorm.DB
	mini     *miniredis.Miniredis
	events   *recordingBroker
	sessions *session.Codec
	store    *storage.LocalProvider

	auth       *service.AuthService
	barangays  *service.BarangayService
	categories *service.CategoryService
	items      *service.ItemService
	requests   *service.RequestService
	users      *service.UserService
	uploads    *service.UploadService
}

func newServices(t testing.TB) *services {
	t.Helper()

	db := testutil.SetupTestDatabase(t)
	mr, rdb := testutil.SetupTestRedis(t)

	userRepo := repository.NewUserRepository(db)
	barangayRepo := repository.NewBarangayRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	itemRepo := repository.NewItemRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	listings := cache.New(rdb, time.Minute)
	sessions := session.NewCodec("service-test-secret", time.Hour, userRepo, rdb)
	events := &recordingBroker{}
	store := storage.NewLocalProvider(t.TempDir(), "/uploads")
	m := metrics.New()

	return &services{
		db:         db,
		mini:       mr,
		events:     events,
		sessions:   sessions,
		store:      store,
		auth:       service.NewAuthService(userRepo, barangayRepo, sessions, "development"),
		barangays:  service.NewBarangayService(barangayRepo, listings),
		categories: service.NewCategoryService(categoryRepo, listings),
		items:      service.NewItemService(itemRepo, categoryRepo, barangayRepo, listings),
		requests:   service.NewRequestService(requestRepo, itemRepo, listings, events, m),
		users:      service.NewUserService(userRepo, barangayRepo, listings),
		uploads:    service.NewUploadService(store, userRepo, m),
	}
}
