package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"worktrack/internal/config"
	"worktrack/internal/events"
	"worktrack/internal/handler"
	"worktrack/internal/middleware"
	"worktrack/internal/model"
	"worktrack/internal/service"
	"worktrack/internal/store"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	http    *http.Server
	config  *config.Config
	store   store.Store
	redis   *redis.Client
	bus     *events.Bus
	liveHub *handler.LiveHub
	offices *service.OfficeService
}

// NewServer creates a new server instance; redisClient may be nil
func NewServer(cfg *config.Config, st store.Store, redisClient *redis.Client, bus *events.Bus) *Server {
	if bus == nil {
		bus = events.NewLocalBus()
	}
	return &Server{
		config: cfg,
		store:  st,
		redis:  redisClient,
		bus:    bus,
	}
}

// Setup initializes services, handlers and routes
func (s *Server) Setup() {
	cfg := s.config

	// Services
	s.offices = service.NewOfficeService(s.store, s.redis, cfg.OfficeDetectionRadius)
	authService := service.NewAuthService(s.store, cfg.JWTSecret, cfg.JWTExpiresIn, cfg.BcryptCost)
	employeeService := service.NewEmployeeService(s.store)
	attendanceService := service.NewAttendanceService(s.store, s.offices, s.bus, cfg.MaxLocationSamples)
	movementService := service.NewMovementService(s.store, s.bus, cfg.MaxLocationSamples)
	locationService := service.NewLocationService(s.store, s.redis, s.bus, cfg.MaxLocationSamples)
	reportService := service.NewReportService(s.store)
	exportService := service.NewExportService(s.store)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, employeeService)
	employeeHandler := handler.NewEmployeeHandler(employeeService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	movementHandler := handler.NewMovementHandler(movementService)
	locationHandler := handler.NewLocationHandler(locationService, s.offices)
	officeHandler := handler.NewOfficeHandler(s.offices)
	reportHandler := handler.NewReportHandler(reportService, exportService)

	s.liveHub = handler.NewLiveHub(s.bus)
	wsHandler := handler.NewWSHandler(s.liveHub)
	go s.liveHub.Run()
	log.Println("[Server] Live hub started")

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(cors(cfg.CORSOrigins))

	// Swagger UI
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.router.GET("/health", s.health)

	limits := s.rateLimits()
	requireAuth := middleware.Auth(authService)

	public := s.router.Group("/api/v1")
	public.Use(limits...)
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
	}

	live := s.router.Group("/ws")
	live.Use(requireAuth, middleware.RequireManager())
	{
		live.GET("/live", wsHandler.HandleLive)
		live.GET("/stats", wsHandler.Stats)
	}

	api := s.router.Group("/api/v1")
	api.Use(requireAuth)
	api.Use(limits...)
	{
		// Auth
		api.POST("/auth/logout", authHandler.Logout)
		api.POST("/auth/change-password", authHandler.ChangePassword)
		api.GET("/auth/me", authHandler.Me)

		// Employees
		api.GET("/employees/profile", employeeHandler.GetProfile)
		api.PUT("/employees/profile", employeeHandler.UpdateProfile)
		api.GET("/employees", middleware.RequireManager(), employeeHandler.List)
		api.GET("/employees/:id", middleware.RequireManager(), employeeHandler.Get)
		api.PATCH("/employees/:id/status", middleware.RequireAdmin(), employeeHandler.SetStatus)
		api.PATCH("/employees/:id/role", middleware.RequireAdmin(), employeeHandler.SetRole)

		// Attendance
		api.POST("/attendance/clock-in", attendanceHandler.ClockIn)
		api.POST("/attendance/clock-out", attendanceHandler.ClockOut)
		api.POST("/attendance/clock-out/auto", attendanceHandler.AutoClockOut)
		api.PUT("/attendance/:id/force-clock-out", middleware.RequireManager(), attendanceHandler.ForceClockOut)
		api.GET("/attendance/status", attendanceHandler.Status)
		api.GET("/attendance/current", attendanceHandler.Current)
		api.GET("/attendance/history", attendanceHandler.History)
		api.GET("/attendance/:id/path", attendanceHandler.Path)

		// Movements
		api.POST("/movements", movementHandler.Start)
		api.POST("/movements/end", movementHandler.End)
		api.POST("/movements/:id/end", movementHandler.End)
		api.POST("/movements/:id/cancel", movementHandler.Cancel)
		api.GET("/movements/active", movementHandler.Active)
		api.GET("/movements/history", movementHandler.History)
		api.GET("/movements/:id", movementHandler.Get)

		// Location
		api.POST("/location/update", locationHandler.Update)
		api.POST("/location/validate", locationHandler.Validate)
		api.GET("/location/current", locationHandler.Current)
		api.GET("/location/history", locationHandler.History)

		// Offices
		api.GET("/offices", officeHandler.List)
		api.POST("/offices", middleware.RequireAdmin(), officeHandler.Create)
		api.PUT("/offices/:id", middleware.RequireAdmin(), officeHandler.Update)
		api.PATCH("/offices/:id/status", middleware.RequireAdmin(), officeHandler.SetStatus)

		// Reports
		api.GET("/reports/dashboard", middleware.RequireManager(), reportHandler.Dashboard)
		api.GET("/reports/timing", middleware.RequireManager(), reportHandler.Timing)

		// Export
		api.GET("/export/attendance", reportHandler.ExportAttendance)
		api.GET("/export/movements", middleware.RequireManager(), reportHandler.ExportMovements)
	}
}

// Bootstrap inserts the configured default offices into an empty office table
func (s *Server) Bootstrap(ctx context.Context) error {
	defaults := make([]model.OfficeLocation, 0, len(s.config.DefaultOffices))
	for _, d := range s.config.DefaultOffices {
		defaults = append(defaults, model.OfficeLocation{
			Name:         d.Name,
			Latitude:     d.Latitude,
			Longitude:    d.Longitude,
			RadiusMeters: d.RadiusMeters,
			Address:      d.Address,
		})
	}
	added, err := s.offices.Bootstrap(ctx, defaults)
	if err != nil {
		return err
	}
	if added > 0 {
		log.Printf("[Server] Added %d default offices", added)
	}
	return nil
}

// rateLimits returns the rate limit middleware, or nothing without redis
func (s *Server) rateLimits() []gin.HandlerFunc {
	rl := s.config.RateLimit
	if !rl.Enabled || s.redis == nil {
		log.Println("[Server] Rate limiting disabled")
		return nil
	}

	group := middleware.NewRateLimitGroup(middleware.NewRedisRateLimiter(s.redis), rl.DefaultRule.ToMiddlewareConfig())
	for _, rule := range rl.SpecificRules {
		group.AddSpecificConfig(rule.Path, rule.ToMiddlewareConfig())
	}
	return []gin.HandlerFunc{group.Middleware()}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	health := gin.H{"status": "ok", "store": "ok"}
	if err := s.store.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		health["status"] = "degraded"
		health["store"] = err.Error()
	}

	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			health["redis"] = err.Error()
		} else {
			health["redis"] = "ok"
		}
	} else {
		health["redis"] = "disabled"
	}

	if s.bus.Connected() {
		health["events"] = "ok"
	} else {
		health["events"] = "disconnected"
	}

	if s.bus.JetStreamEnabled() {
		health["jetstream"] = "enabled"
		if info, err := s.bus.StreamInfo(); err == nil {
			health["jetstream_events"] = gin.H{
				"messages": info.State.Msgs,
				"bytes":    info.State.Bytes,
			}
		}
	} else {
		health["jetstream"] = "disabled"
	}

	health["live_clients"] = s.liveHub.ClientCount()
	c.JSON(status, health)
}

func cors(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimSpace(o)] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[Server] HTTP server listening on %s", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Shutdown stops accepting requests, waits for in-flight ones and stops the live hub
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.liveHub != nil {
		s.liveHub.Stop()
		log.Println("[Server] Live hub stopped")
	}
	return err
}
