// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"concertticket/internal/ledger"
	"concertticket/internal/operator"
	"concertticket/internal/shared/config"
	"concertticket/internal/shared/database"
	"concertticket/internal/shared/middleware"
	"concertticket/internal/transactions"
	"concertticket/internal/venues"
	"concertticket/pkg/cache"
	"concertticket/pkg/logger"
	"concertticket/pkg/ratelimit"
)

// Router holds all route dependencies
type Router struct {
	config      *config.Config
	db          *database.DB
	runtime     *ledger.Runtime
	cache       cache.Service
	operator    operator.Service
	rateLimiter *ratelimit.RateLimiter
	logger      *logger.Logger
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, rt *ledger.Runtime, c cache.Service, op operator.Service, rl *ratelimit.RateLimiter, l *logger.Logger) *Router {
	return &Router{
		config:      cfg,
		db:          db,
		runtime:     rt,
		cache:       c,
		operator:    op,
		rateLimiter: rl,
		logger:      l,
	}
}

// Engine builds the gin engine with the global middleware and every route
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	if err := engine.SetTrustedProxies(r.config.TrustedProxies); err != nil {
		r.logger.WithError(err).Warn("Invalid trusted proxies, ignoring forwarding headers")
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(r.logger))

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if r.rateLimiter != nil {
		engine.Use(ratelimit.Middleware(r.rateLimiter))
	}

	r.SetupRoutes(engine)
	return engine
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupVenueRoutes(api)
		r.setupTransactionRoutes(api)
		r.setupOperatorRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "concertticket-ledger",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "concertticket-ledger",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET(r.config.GetAPIBasePath()+"/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"store":       r.config.Ledger.Store,
			"programs":    r.runtime.Programs(),
			"cache":       r.db.Redis != nil,
			"timestamp":   time.Now(),
		})
	})
}

func (r *Router) setupVenueRoutes(rg *gin.RouterGroup) {
	venueRepo := venues.NewRepository(r.runtime, r.cache, r.config.Redis.CacheTTL)
	venueService := venues.NewService(venueRepo)
	venues.SetupVenueRoutes(rg, venues.NewController(venueService))
}

func (r *Router) setupTransactionRoutes(rg *gin.RouterGroup) {
	txService := transactions.NewService(r.runtime, r.cache, r.config.Redis.CacheTTL)
	transactions.SetupTransactionRoutes(rg, transactions.NewController(txService))
}

func (r *Router) setupOperatorRoutes(rg *gin.RouterGroup) {
	operator.SetupOperatorRoutes(rg, operator.NewController(r.operator), r.config)
}
