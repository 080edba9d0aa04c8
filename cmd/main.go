package main

import (
	"callhub-service/internal/handler"
	"callhub-service/internal/middleware"
	"callhub-service/internal/model"
	"callhub-service/internal/service"
	"callhub-service/internal/store"
	"callhub-service/pkg/config"
	"callhub-service/pkg/database"
	"callhub-service/pkg/jwtutil"
	"callhub-service/pkg/logger"
	"callhub-service/pkg/provider"
	"callhub-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("callhub")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting callhub service...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.User{},
		&model.Call{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&cfg.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Choose the call provider implementation
	var callProvider provider.CallProvider
	if cfg.Provider.UseMock {
		callProvider = provider.NewMock()
		log.Info("Using mock call provider")
	} else {
		callProvider = provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Timeout)
	}

	// Wire stores and services
	st := store.NewGormStore(db)
	audit := service.NewAuditRecorder(st.Audit(), log)
	accounts := service.NewAccountService(st, jwt, audit, log)
	calls := service.NewCallService(st.Calls(), callProvider, audit, log)

	authHandler := handler.NewAuthHandler(accounts)
	tenantHandler := handler.NewTenantHandler(accounts)
	userHandler := handler.NewUserHandler(accounts)
	callHandler := handler.NewCallHandler(calls)
	auditHandler := handler.NewAuditHandler(st.Audit(), audit)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters: the tenant resolver runs
	// before auth so the authorizer can cross-check the resolved tenant.
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())
	e.Use(middleware.TenantResolver(st.Tenants()))

	// Public routes
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/signup", authHandler.Signup)

	// Login requires a resolved tenant but no token
	auth := e.Group("/auth")
	auth.Use(middleware.RequireTenant)
	auth.POST("/login", authHandler.Login)

	// API routes - all require a resolved tenant and authentication
	api := e.Group("/api")
	api.Use(middleware.RequireTenant)
	api.Use(middleware.Auth(jwt, st.Users(), audit))

	users := api.Group("/users")
	users.GET("/me", userHandler.Me)
	users.POST("", userHandler.Create, middleware.RequireAdmin)

	tenants := api.Group("/tenants")
	tenants.GET("/current", tenantHandler.Current)
	tenants.PATCH("/branding", tenantHandler.UpdateBranding, middleware.RequireAdmin)

	callRoutes := api.Group("/calls")
	callRoutes.POST("", callHandler.Create)
	callRoutes.GET("", callHandler.List)
	callRoutes.GET("/:id/status", callHandler.Status)
	callRoutes.GET("/:id/transcript", callHandler.Transcript)

	api.GET("/audit", auditHandler.List, middleware.RequireAdmin)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
