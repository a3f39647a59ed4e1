package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/openlearn-backend/internal/http/handlers"
	httpMW "github.com/yungbote/openlearn-backend/internal/http/middleware"
	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log        *logger.Logger
	APIPrefix  string
	Origins    []string
	Metrics    *observability.Metrics
	TraceName  string
	EnableOtel bool

	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	MaterialHandler *httpH.MaterialHandler
	LearningHandler *httpH.LearningHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.EnableOtel {
		r.Use(otelgin.Middleware(cfg.TraceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.Origins))

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	api := r.Group(prefix)

	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Auth
	if cfg.AuthHandler != nil {
		api.POST("/auth/signup", cfg.AuthHandler.Signup)
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		api.POST("/auth/logout", cfg.AuthHandler.Logout)
		protected.GET("/auth/me", cfg.AuthHandler.Me)
	}

	// Materials
	if cfg.MaterialHandler != nil {
		protected.POST("/materials/upload", cfg.MaterialHandler.Upload)
		protected.GET("/materials", cfg.MaterialHandler.List)
	}

	// Learning
	if cfg.LearningHandler != nil {
		protected.POST("/learning/ask", cfg.LearningHandler.Ask)
		protected.POST("/learning/sessions", cfg.LearningHandler.CreateSession)
		protected.GET("/learning/sessions", cfg.LearningHandler.ListSessions)
		protected.GET("/learning/sessions/:id", cfg.LearningHandler.GetSession)
		protected.DELETE("/learning/sessions/:id", cfg.LearningHandler.DeleteSession)
	}

	return r
}
