package app

import (
	"fmt"

	httpserver "github.com/yungbote/openlearn-backend/internal/http"
	httpH "github.com/yungbote/openlearn-backend/internal/http/handlers"
	httpMW "github.com/yungbote/openlearn-backend/internal/http/middleware"
	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Material *httpH.MaterialHandler
	Learning *httpH.LearningHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(log, services.Auth),
		Material: httpH.NewMaterialHandler(log, services.Materials),
		Learning: httpH.NewLearningHandler(log, services.Sessions, services.Answers),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *httpserver.Server {
	return httpserver.NewServer(fmt.Sprintf(":%d", cfg.Port), httpserver.RouterConfig{
		Log:             log,
		APIPrefix:       cfg.APIV1Prefix,
		Origins:         cfg.CORSOrigins,
		Metrics:         metrics,
		TraceName:       cfg.ProjectName,
		EnableOtel:      cfg.Otel.Enabled,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		MaterialHandler: handlers.Material,
		LearningHandler: handlers.Learning,
	})
}
