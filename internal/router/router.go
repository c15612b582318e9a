package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docsense/internal/handler"
	"docsense/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health   *handler.HealthHandler
	Document *handler.DocumentHandler
	Schema   *handler.SchemaHandler
}

// Options are the router settings taken from config.
type Options struct {
	AllowedOrigins []string
	// MaxBodyBytes bounds upload request bodies; zero disables the limit.
	MaxBodyBytes int64
	// Validator guards the processing routes; nil leaves them open.
	Validator middleware.TokenValidator
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, opts Options, log zerolog.Logger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Public routes
	r.GET("/", h.Health.Welcome)
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)
	r.GET("/schema", h.Schema.List)
	r.GET("/schema/:category", h.Schema.Get)

	// Processing routes
	protected := r.Group("")
	protected.Use(middleware.AuthMiddleware(opts.Validator))
	protected.Use(middleware.BodyLimit(opts.MaxBodyBytes))
	protected.POST("/upload", h.Document.Upload)
	protected.POST("/detect-text-multiple", h.Document.DetectTextMultiple)
	protected.POST("/report", h.Document.Report)

	return r
}
