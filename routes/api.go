package routes

import (
	"net/http"

	"github.com/address-cleaner/app/controllers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Controllers tập controller được đăng ký route
type Controllers struct {
	Address *controllers.AddressController
	Admin   *controllers.AdminController
	Catalog *controllers.CatalogController
	Health  *controllers.HealthController
}

// SetupAPIRoutes thiết lập tất cả API routes
func SetupAPIRoutes(router *gin.Engine, ctrl Controllers) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/clean", ctrl.Address.CleanAddress)
			addresses.POST("/jobs", ctrl.Address.SubmitJob)
			addresses.GET("/jobs/:jobID/status", ctrl.Address.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", ctrl.Address.GetJobResults)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/provinces", ctrl.Catalog.ListProvinces)
			catalog.GET("/provinces/:province/districts", ctrl.Catalog.ListDistricts)
			catalog.GET("/search", ctrl.Catalog.Search)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/catalog/seed", ctrl.Admin.SeedCatalog)
			admin.POST("/indexes/build", ctrl.Admin.BuildIndexes)
			admin.POST("/cache/invalidate", ctrl.Admin.InvalidateCache)
			admin.GET("/stats", ctrl.Admin.GetStats)
		}

		v1.GET("/health", ctrl.Health.Health)
	}
}

// SetupHealthRoutes thiết lập health check routes
func SetupHealthRoutes(router *gin.Engine, health *controllers.HealthController) {
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)
	router.GET("/live", health.Live)
}

// SetupMetricsRoutes thiết lập metrics routes (cho Prometheus)
func SetupMetricsRoutes(router *gin.Engine, gatherer prometheus.Gatherer) {
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// SetupAllRoutes thiết lập tất cả routes
func SetupAllRoutes(router *gin.Engine, ctrl Controllers, gatherer prometheus.Gatherer, logger *zap.Logger) {
	setupMiddleware(router, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctrl.Health)
	SetupAPIRoutes(router, ctrl)
	SetupMetricsRoutes(router, gatherer)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}
