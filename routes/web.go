package routes

import (
	"net/http"

	"github.com/address-cleaner/app/controllers"
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes thiết lập web routes
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Address Cleaner Service",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Address Cleaner API v1",
				"endpoints": map[string]string{
					"clean":       "POST /v1/addresses/clean",
					"batch":       "POST /v1/addresses/jobs",
					"job_status":  "GET /v1/addresses/jobs/:jobID/status",
					"job_results": "GET /v1/addresses/jobs/:jobID/results?format=json|ndjson|csv&gzip=1",
					"provinces":   "GET /v1/catalog/provinces",
					"districts":   "GET /v1/catalog/provinces/:province/districts",
					"search":      "GET /v1/catalog/search?q=&level=",
					"health":      "GET /health",
					"metrics":     "GET /metrics",
				},
			})
		})
	}
}
