package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/config"
	"github.com/viniuy/e-barangay/internal/database"
	"github.com/viniuy/e-barangay/internal/metrics"
	"github.com/viniuy/e-barangay/internal/server"
	"github.com/viniuy/e-barangay/internal/storage"
)

// SetupTestDatabase creates a private in-memory SQLite database with every
// table migrated. No Docker required.
func SetupTestDatabase(t testing.TB) *gorm.DB {
	t.Helper()

	// a named shared-cache memory db lives as long as one connection is open
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open("sqlite", dsn, true)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Logf("Warning: Failed to close database: %v", err)
		}
	})
	return db
}

// SetupTestRedis starts miniredis and returns a client for it.
func SetupTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// CleanDatabase deletes all rows, children first (SQLite has no TRUNCATE).
func CleanDatabase(t testing.TB, db *gorm.DB) {
	t.Helper()

	tables := []string{"request_actions", "requests", "items", "users", "categories", "barangays"}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("Warning: Failed to clean table %s: %v", table, err)
		}
	}
}

// TestConfig is a development config with generous rate limits.
func TestConfig(t testing.TB) *config.Config {
	return &config.Config{
		Environment:          "development",
		WebRoot:              t.TempDir(),
		SessionSecret:        "test-session-secret",
		SessionTTL:           time.Hour,
		StorageProvider:      "local",
		StorageRoot:          t.TempDir(),
		StoragePublic:        "/uploads",
		RateLimitMaxRequests: 10000,
		RateLimitWindow:      time.Minute,
		LoginRateLimit:       10000,
		CacheTTL:             time.Minute,
	}
}

// Env is a fully wired server on test infrastructure.
type Env struct {
	Config  *config.Config
	DB      *gorm.DB
	Mini    *miniredis.Miniredis
	Redis   *redis.Client
	Storage *storage.LocalProvider
	Server  *server.Server
	Router  *gin.Engine
}

// NewEnv builds an Env. mutate, when given, adjusts the config before wiring.
func NewEnv(t testing.TB, mutate ...func(*config.Config)) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := TestConfig(t)
	for _, m := range mutate {
		m(cfg)
	}

	db := SetupTestDatabase(t)
	mr, rdb := SetupTestRedis(t)
	store := storage.NewLocalProvider(cfg.StorageRoot, cfg.StoragePublic)

	srv := server.New(server.Deps{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Storage: store,
		Metrics: metrics.New(),
	})

	return &Env{
		Config:  cfg,
		DB:      db,
		Mini:    mr,
		Redis:   rdb,
		Storage: store,
		Server:  srv,
		Router:  srv.Engine,
	}
}

// Reset empties the database and Redis between tests.
func (e *Env) Reset(t testing.TB) {
	CleanDatabase(t, e.DB)
	e.Mini.FlushAll()
}
