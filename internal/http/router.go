package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/gma-backend/internal/http/handlers"
	httpMW "github.com/yungbote/gma-backend/internal/http/middleware"
	"github.com/yungbote/gma-backend/internal/http/response"
	"github.com/yungbote/gma-backend/internal/observability"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	TracingEnabled bool

	AuthMiddleware *httpMW.AuthMiddleware

	ProfileHandler   *httpH.ProfileHandler
	UploadHandler    *httpH.UploadHandler
	BlindTestHandler *httpH.BlindTestHandler
	StaticHandler    *httpH.StaticHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "gma-backend"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/health", cfg.HealthHandler.Health)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	am := cfg.AuthMiddleware
	authed := func(doctor bool) []gin.HandlerFunc {
		if am == nil {
			return nil
		}
		if doctor {
			return []gin.HandlerFunc{am.RequireAuth(), am.RequireDoctor()}
		}
		return []gin.HandlerFunc{am.RequireAuth()}
	}

	// Static video access
	if cfg.StaticHandler != nil {
		if cfg.StaticHandler.Public() {
			r.GET("/uploads/:filename", cfg.StaticHandler.Serve)
		} else {
			r.GET("/uploads/:filename", append(authed(true), cfg.StaticHandler.Serve)...)
		}
	}

	api := r.Group("/api")

	// Profile: identity only, so GET can report a missing doctor.
	if cfg.ProfileHandler != nil {
		profile := api.Group("/auth", authed(false)...)
		profile.GET("/profile", cfg.ProfileHandler.GetProfile)
		profile.POST("/profile", cfg.ProfileHandler.UpsertProfile)
	}

	// Doctor-scoped resources
	if cfg.UploadHandler != nil {
		uploads := api.Group("/uploads", authed(true)...)
		uploads.GET("/", cfg.UploadHandler.List)
		uploads.GET("/history", cfg.UploadHandler.List)
		uploads.POST("/", cfg.UploadHandler.Upload)
		uploads.DELETE("/:id", cfg.UploadHandler.Delete)
		uploads.PUT("/:id", cfg.UploadHandler.Rename)
		uploads.GET("/:id/download", cfg.UploadHandler.Download)
	}
	if cfg.BlindTestHandler != nil {
		tests := api.Group("/tests", authed(true)...)
		tests.POST("/instant", cfg.BlindTestHandler.Instant)
		tests.POST("/full", cfg.BlindTestHandler.Full)
		tests.GET("/history", cfg.BlindTestHandler.History)
	}

	r.NoRoute(func(c *gin.Context) {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("route not found"))
	})
	return r
}
