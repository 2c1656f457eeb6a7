package server

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/verdicthq/verdict/pkg/logger"
)

// buildRouter assembles the gin engine: middleware chain, API routes,
// docs UI and the metrics endpoint.
func (s *Server) buildRouter(ctx context.Context) *gin.Engine {
	if s.cfg.Runtime.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestIDMiddleware(logger.FromContext(ctx)))
	engine.Use(LoggerMiddleware())
	if s.cfg.Server.CORSEnabled {
		engine.Use(CORSMiddleware())
	}
	if s.deps.Monitoring != nil {
		engine.Use(s.deps.Monitoring.GinMiddleware())
		if s.deps.Monitoring.Enabled() {
			engine.GET(s.deps.Monitoring.Path(), gin.WrapH(s.deps.Monitoring.ExporterHandler()))
		}
	}

	engine.GET("/healthz", s.health)
	registerDocs(engine)

	api := engine.Group("/api/v1")
	{
		api.POST("/questions", s.askQuestion)
		api.POST("/ingest", s.ingestDocuments)
		api.GET("/routes", s.listRoutes)
	}
	return engine
}
