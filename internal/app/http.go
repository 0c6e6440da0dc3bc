package app

import (
	"github.com/yungbote/gma-backend/internal/http"
	httpH "github.com/yungbote/gma-backend/internal/http/handlers"
	httpMW "github.com/yungbote/gma-backend/internal/http/middleware"
	"github.com/yungbote/gma-backend/internal/observability"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Profile   *httpH.ProfileHandler
	Upload    *httpH.UploadHandler
	BlindTest *httpH.BlindTestHandler
	Static    *httpH.StaticHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(cfg.APIVersion),
		Profile:   httpH.NewProfileHandler(log, services.Doctor),
		Upload:    httpH.NewUploadHandler(log, services.Upload),
		BlindTest: httpH.NewBlindTestHandler(log, services.BlindTest),
		Static:    httpH.NewStaticHandler(log, services.Upload, cfg.UploadsPublicStatic),
	}
}

func wireMiddleware(log *logger.Logger, clients Clients, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, clients.Verifier, services.Doctor),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:              log,
		ServiceName:      cfg.Otel.ServiceName,
		CORSOrigins:      cfg.CORSOrigins,
		Metrics:          metrics,
		TracingEnabled:   cfg.Otel.Enabled,
		AuthMiddleware:   middleware.Auth,
		ProfileHandler:   handlers.Profile,
		UploadHandler:    handlers.Upload,
		BlindTestHandler: handlers.BlindTest,
		StaticHandler:    handlers.Static,
		HealthHandler:    handlers.Health,
	})
}
