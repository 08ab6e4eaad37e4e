package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/app/responses"
	"github.com/address-cleaner/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController controller xử lý các request admin
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController tạo mới AdminController
func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// unavailable trả về true và ghi 503 nếu err là lỗi thiếu cấu hình
func unavailable(c *gin.Context, err error) bool {
	if errors.Is(err, services.ErrSearchDisabled) || errors.Is(err, services.ErrCacheDisabled) {
		c.JSON(http.StatusServiceUnavailable, responses.NewError("SERVICE_UNAVAILABLE", err.Error(), nil))
		return true
	}
	return false
}

// SeedCatalog seed catalog đang nạp vào MongoDB và Meilisearch
func (ac *AdminController) SeedCatalog(c *gin.Context) {
	var req requests.SeedCatalogRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil))
			return
		}
	}
	if c.Query("dry_run") == "true" {
		req.DryRun = true
	}

	startTime := time.Now()
	validation, result, err := ac.adminService.SeedCatalog(c.Request.Context(), req.DryRun, req.RebuildIndexes)
	if unavailable(c, err) {
		return
	}
	if err != nil {
		ac.logger.Error("Lỗi seed catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewError("SEED_ERROR", "Lỗi seed catalog: "+err.Error(), validation))
		return
	}

	resp := responses.SeedCatalogResponse{
		ValidationPassed: validation.Passed,
		Warnings:         validation.Warnings,
		DryRun:           req.DryRun,
		Message:          "Validation hoàn thành thành công",
	}
	if result != nil {
		resp.UnitsProcessed = result.UnitsProcessed
		resp.IndexesBuilt = result.IndexesBuilt
		resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()
		resp.Message = "Seed catalog thành công"
	}
	c.JSON(http.StatusOK, resp)
}

// BuildIndexes cấu hình index Meilisearch
func (ac *AdminController) BuildIndexes(c *gin.Context) {
	startTime := time.Now()

	err := ac.adminService.BuildIndexes(c.Request.Context())
	if unavailable(c, err) {
		return
	}
	if err != nil {
		ac.logger.Error("Lỗi build indexes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewError("BUILD_ERROR", "Lỗi build indexes: "+err.Error(), nil))
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "Build indexes thành công",
		Data:      gin.H{"processing_time_ms": time.Since(startTime).Milliseconds()},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// InvalidateCache xóa cache
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil))
			return
		}
	}

	err := ac.adminService.InvalidateCache(c.Request.Context(), req.All)
	if unavailable(c, err) {
		return
	}
	if err != nil {
		ac.logger.Error("Lỗi invalidate cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewError("INVALIDATE_ERROR", "Lỗi invalidate cache: "+err.Error(), nil))
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "Đã invalidate cache",
		Data:      gin.H{"all": req.All},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.NewError("STATS_ERROR", "Lỗi lấy thống kê: "+err.Error(), nil))
		return
	}

	resp := responses.AdminStatsResponse{
		Catalog:       stats.Catalog,
		CacheEnabled:  stats.Cache != nil,
		JobsTotal:     stats.JobsTotal,
		JobsRunning:   stats.JobsRunning,
		UptimeSeconds: stats.UptimeSeconds,
		LastUpdated:   time.Now().Format(time.RFC3339),
	}
	if stats.Cache != nil {
		resp.CacheHitRate = stats.Cache.HitRate
		resp.TotalCached = stats.Cache.TotalItems
	}
	c.JSON(http.StatusOK, resp)
}
