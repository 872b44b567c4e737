package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/visualjsx/studio/backend/internal/api/http"
	"github.com/visualjsx/studio/backend/internal/api/middleware"
	"github.com/visualjsx/studio/backend/internal/api/ws"
	"github.com/visualjsx/studio/backend/internal/compiler"
	"github.com/visualjsx/studio/backend/internal/domain/component"
	"github.com/visualjsx/studio/backend/internal/infrastructure/config"
	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
	"github.com/visualjsx/studio/backend/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	store   *component.Store
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	httpSrv *http.Server
}

// NewServer builds the full service from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing studio backend",
		zap.String("port", cfg.Server.Port),
		zap.Duration("autosave_debounce", cfg.Editor.AutosaveDebounce),
		zap.Duration("serialize_timeout", cfg.Editor.SerializeTimeout),
	)

	metrics := monitoring.NewMetrics()

	store := component.NewStore().WithMetrics(metrics)
	if cfg.Seed.Enabled {
		seeder := component.NewSeeder(store, cfg.Seed.Dir, logger)
		if err := seeder.Seed(context.Background()); err != nil {
			logger.Warn("Failed to seed starter components", zap.Error(err))
		}
	}

	comp := compiler.New()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(store, comp, logger, cfg.Editor.SurfaceWidth)
	wsHandler := ws.NewHandler(ws.Config{
		SurfaceWidth:     cfg.Editor.SurfaceWidth,
		Debounce:         cfg.Editor.AutosaveDebounce,
		SerializeTimeout: cfg.Editor.SerializeTimeout,
	}, store, comp, logger).WithMetrics(metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/components", handlers.ListComponents)
	router.POST("/components", handlers.CreateComponent)
	router.GET("/components/:id", handlers.GetComponent)
	router.PUT("/components/:id", handlers.UpdateComponent)
	router.GET("/components/:id/preview", handlers.PreviewComponent)

	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized", zap.Int("seeded_components", store.Count()))

	return &Server{
		router:  router,
		store:   store,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	return s.logger.Sync()
}
