package responses

import (
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/catalog"
)

// CleanAddressResponse response làm sạch địa chỉ đơn lẻ
type CleanAddressResponse struct {
	CatalogVersion   string                  `json:"catalog_version"`    // Phiên bản catalog
	Result           *models.ResolvedAddress `json:"result"`             // Kết quả pipeline
	Summary          models.Summary          `json:"summary"`            // Dạng phẳng
	ProcessingTimeMs int64                   `json:"processing_time_ms"` // Thời gian xử lý (ms)
	CacheHit         bool                    `json:"cache_hit"`          // Có hit cache không
}

// BatchCleanResponse response tạo batch job
type BatchCleanResponse struct {
	JobID            string `json:"job_id"`            // ID của job
	EstimatedSeconds int    `json:"estimated_seconds"` // Thời gian ước tính (giây)
	TotalAddresses   int    `json:"total_addresses"`   // Tổng số địa chỉ
	Message          string `json:"message"`           // Thông báo
}

// JobStatusResponse response trạng thái job
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`
	Status             string  `json:"status"`
	Progress           float64 `json:"progress"` // 0.0 - 1.0
	Processed          int     `json:"processed"`
	Total              int     `json:"total"`
	EstimatedRemaining int     `json:"estimated_remaining"` // giây
	Message            string  `json:"message"`
}

// JobStatus constants
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// ProvincesResponse danh sách tỉnh
type ProvincesResponse struct {
	CatalogVersion string   `json:"catalog_version"`
	Provinces      []string `json:"provinces"`
}

// DistrictsResponse danh sách quận/huyện của một tỉnh
type DistrictsResponse struct {
	Province  string   `json:"province"`
	Districts []string `json:"districts"`
}

// CatalogSearchResponse kết quả tìm kiếm catalog
type CatalogSearchResponse struct {
	Query string             `json:"query"`
	Hits  []models.AdminUnit `json:"hits"`
}

// SeedCatalogResponse response seed catalog
type SeedCatalogResponse struct {
	ValidationPassed bool     `json:"validation_passed"`
	Warnings         []string `json:"warnings,omitempty"`
	UnitsProcessed   int      `json:"units_processed,omitempty"`
	IndexesBuilt     int      `json:"indexes_built,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms,omitempty"`
	DryRun           bool     `json:"dry_run"`
	Message          string   `json:"message"`
}

// AdminStatsResponse response thống kê admin
type AdminStatsResponse struct {
	Catalog       catalog.Stats `json:"catalog"`
	CacheEnabled  bool          `json:"cache_enabled"`
	CacheHitRate  float64       `json:"cache_hit_rate"`
	TotalCached   int64         `json:"total_cached"`
	JobsTotal     int           `json:"jobs_total"`
	JobsRunning   int           `json:"jobs_running"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	LastUpdated   string        `json:"last_updated"`
}

// ErrorResponse response lỗi
type ErrorResponse struct {
	Error     string      `json:"error"`             // Mã lỗi
	Message   string      `json:"message"`           // Thông báo lỗi
	Details   interface{} `json:"details,omitempty"` // Chi tiết lỗi
	Timestamp string      `json:"timestamp"`         // Thời gian xảy ra lỗi
	RequestID string      `json:"request_id,omitempty"`
}

// NewError tạo ErrorResponse với timestamp hiện tại
func NewError(code, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// SuccessResponse response thành công
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// HealthCheckResponse response kiểm tra sức khỏe
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}
