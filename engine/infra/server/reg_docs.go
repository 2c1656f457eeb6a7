package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/verdicthq/verdict/docs"
)

const swaggerModelsExpandDepthCollapsed = -1

// registerDocs attaches the Swagger UI and the raw swagger document.
func registerDocs(engine *gin.Engine) {
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Host = ""
	docs.SwaggerInfo.Schemes = []string{"http", "https"}
	engine.GET("/docs/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
		ginSwagger.DefaultModelsExpandDepth(swaggerModelsExpandDepthCollapsed),
	))
	engine.GET("/swagger/index.html", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
}
