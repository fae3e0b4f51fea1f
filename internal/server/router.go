// Package server wires repositories, services and handlers into a gin engine.
package server

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/broker"
	"github.com/viniuy/e-barangay/internal/cache"
	"github.com/viniuy/e-barangay/internal/config"
	"github.com/viniuy/e-barangay/internal/handler"
	"github.com/viniuy/e-barangay/internal/metrics"
	"github.com/viniuy/e-barangay/internal/middleware"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/internal/service"
	"github.com/viniuy/e-barangay/internal/session"
	"github.com/viniuy/e-barangay/internal/storage"
)

// Deps are the external resources the server runs on. Redis is optional;
// without it rate limiting, caching, revocation and events are off.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Storage storage.Provider
	Events  broker.EventBroker
	Metrics *metrics.Metrics
	Policy  access.Policy
}

type Server struct {
	Engine   *gin.Engine
	Hub      *handler.EventHub
	Sessions *session.Codec
}

func New(d Deps) *Server {
	cfg := d.Config
	if d.Policy == nil {
		d.Policy = access.DefaultPolicy
	}
	if d.Events == nil && d.Redis != nil {
		d.Events = broker.NewRedisEventBroker(d.Redis)
	}

	// Repositories
	userRepo := repository.NewUserRepository(d.DB)
	barangayRepo := repository.NewBarangayRepository(d.DB)
	categoryRepo := repository.NewCategoryRepository(d.DB)
	itemRepo := repository.NewItemRepository(d.DB)
	requestRepo := repository.NewRequestRepository(d.DB)

	listings := cache.New(d.Redis, cfg.CacheTTL)
	sessions := session.NewCodec(cfg.SessionSecret, cfg.SessionTTL, userRepo, d.Redis)

	// Services
	authService := service.NewAuthService(userRepo, barangayRepo, sessions, cfg.Environment)
	barangayService := service.NewBarangayService(barangayRepo, listings)
	categoryService := service.NewCategoryService(categoryRepo, listings)
	itemService := service.NewItemService(itemRepo, categoryRepo, barangayRepo, listings)
	requestService := service.NewRequestService(requestRepo, itemRepo, listings, d.Events, d.Metrics)
	userService := service.NewUserService(userRepo, barangayRepo, listings)
	uploadService := service.NewUploadService(d.Storage, userRepo, d.Metrics)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	accessHandler := handler.NewAccessHandler(d.Policy)
	barangayHandler := handler.NewBarangayHandler(barangayService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	itemHandler := handler.NewItemHandler(itemService)
	requestHandler := handler.NewRequestHandler(requestService)
	userHandler := handler.NewUserHandler(userService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	healthHandler := handler.NewHealthHandler(d.DB, d.Redis)
	pageHandler := handler.NewPageHandler(cfg.WebRoot)

	var hub *handler.EventHub
	if d.Events != nil {
		hub = handler.NewEventHub(d.Events, d.Metrics, cfg.AllowedOrigins())
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	security := middleware.SecurityOptions{Production: cfg.IsProduction()}
	if origin := middleware.OriginOf(d.Storage.URL("")); origin != "" {
		security.MediaOrigins = append(security.MediaOrigins, origin)
	}
	router.Use(middleware.SecurityHeaders(security))
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	router.Use(middleware.Session(sessions))

	router.GET("/health", healthHandler.Health)

	if local, ok := d.Storage.(*storage.LocalProvider); ok && strings.HasPrefix(local.PublicURL, "/") {
		router.Static(local.PublicURL, local.RootPath)
	}

	api := router.Group("/api")
	loginLimit := func(c *gin.Context) { c.Next() }
	if d.Redis != nil {
		api.Use(middleware.NewRateLimiter(d.Redis, middleware.RateLimiterConfig{
			Name:        "api",
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
		}).Middleware())
		loginLimit = middleware.NewRateLimiter(d.Redis, middleware.RateLimiterConfig{
			Name:        "login",
			MaxRequests: cfg.LoginRateLimit,
			Window:      cfg.RateLimitWindow,
		}).Middleware()
	}

	staff := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	super := middleware.RequireRole(models.RoleSuperAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", loginLimit, authHandler.Signup)
		auth.POST("/login", loginLimit, authHandler.Login)
		auth.GET("/me", middleware.RequireAuth(), authHandler.Me)
		auth.POST("/logout", authHandler.Logout)
	}

	api.GET("/access", accessHandler.Check)

	api.GET("/items", itemHandler.List)
	api.POST("/items", staff, itemHandler.Create)
	api.PATCH("/items", staff, itemHandler.Update)
	api.DELETE("/items", staff, itemHandler.Delete)

	requests := api.Group("/requests", middleware.RequireAuth())
	{
		requests.GET("", requestHandler.List)
		requests.POST("", middleware.RequireRole(models.RoleUser), requestHandler.Submit)
		requests.PATCH("", requestHandler.Transition)
		requests.GET("/:id/actions", requestHandler.Actions)
		if hub != nil {
			requests.GET("/events", hub.Serve)
		}
	}

	api.GET("/barangays", barangayHandler.List)
	api.POST("/barangays", super, barangayHandler.Create)
	api.PUT("/barangays", super, barangayHandler.Update)
	api.DELETE("/barangays", super, barangayHandler.Delete)

	api.GET("/categories", categoryHandler.List)
	api.POST("/categories", staff, categoryHandler.Create)
	api.DELETE("/categories", super, categoryHandler.Delete)

	users := api.Group("/users", middleware.RequireAuth())
	{
		users.GET("", staff, userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", super, userHandler.Create)
		users.PUT("", userHandler.Update)
		users.DELETE("", super, userHandler.Delete)
	}

	upload := api.Group("/upload", middleware.RequireAuth())
	{
		upload.POST("", uploadHandler.Upload)
		upload.DELETE("", uploadHandler.Delete)
	}

	router.NoRoute(pageHandler.Static, middleware.Gatekeeper(d.Policy), pageHandler.Index)

	return &Server{Engine: router, Hub: hub, Sessions: sessions}
}
