package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/faceid/internal/api/handlers"
	"github.com/your-org/faceid/internal/api/ws"
	"github.com/your-org/faceid/internal/assignment"
	"github.com/your-org/faceid/internal/auth"
	"github.com/your-org/faceid/internal/queue"
	"github.com/your-org/faceid/internal/storage"
)

type RouterConfig struct {
	APIKey      string
	DB          *storage.PostgresStore
	Objects     *storage.MinIOStore
	Producer    *queue.Producer
	Hub         *ws.Hub
	Assignments *assignment.Service
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Objects, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (API key + owner scoping)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))
	v1.Use(auth.OwnerMiddleware())

	// WebSocket feed of analysis completions
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Persons
	personH := handlers.NewPersonHandler(cfg.DB)
	v1.POST("/persons", personH.Create)
	v1.GET("/persons", personH.List)
	v1.GET("/persons/:id", personH.Get)
	v1.PATCH("/persons/:id", personH.Update)
	v1.DELETE("/persons/:id", personH.Delete)

	// Faces
	faceH := handlers.NewFaceHandler(cfg.Assignments)
	v1.GET("/faces/unassigned", faceH.ListUnassigned)
	v1.GET("/faces/:id/suggestions", faceH.Suggestions)
	v1.POST("/faces/:id/assign", faceH.Assign)
	v1.POST("/faces/:id/unassign", faceH.Unassign)
	v1.POST("/faces/:id/ignore", faceH.Ignore)

	// Analysis
	analysisH := handlers.NewAnalysisHandler(cfg.DB)
	v1.GET("/analysis/:photoId", analysisH.GetByPhoto)

	return r
}
