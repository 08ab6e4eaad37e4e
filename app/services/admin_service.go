package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/catalog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrSearchDisabled = errors.New("Meilisearch chưa được cấu hình")
	ErrCacheDisabled  = errors.New("cache chưa được cấu hình")
)

// CatalogIndexer index tìm kiếm catalog, *search.CatalogIndex thỏa mãn
type CatalogIndexer interface {
	Search(ctx context.Context, query string, level int, parentID string, limit int) ([]models.AdminUnit, error)
	BuildIndexes(ctx context.Context) error
	Seed(ctx context.Context, units []models.AdminUnit) (int, error)
}

// AdminService service quản lý admin functions
type AdminService struct {
	catalog   *catalog.Catalog
	index     CatalogIndexer   // nil nếu không có Meilisearch
	db        *mongo.Database  // nil nếu không có MongoDB
	cache     ICacheService    // nil nếu không bật cache
	addresses *AddressService
	logger    *zap.Logger
}

// CatalogValidation kết quả validation catalog
type CatalogValidation struct {
	Passed             bool     `json:"passed"`
	Warnings           []string `json:"warnings"`
	EstimatedBuildTime string   `json:"estimated_build_time"`
}

// SeedResult kết quả seed catalog
type SeedResult struct {
	UnitsProcessed   int   `json:"units_processed"`
	IndexesBuilt     int   `json:"indexes_built"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// SystemStats thống kê hệ thống
type SystemStats struct {
	Catalog       catalog.Stats          `json:"catalog"`
	Cache         *CacheStats            `json:"cache,omitempty"`
	JobsTotal     int                    `json:"jobs_total"`
	JobsRunning   int                    `json:"jobs_running"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	MemoryUsage   map[string]interface{} `json:"memory_usage"`
}

// NewAdminService tạo mới AdminService. index, db, cache có thể nil.
func NewAdminService(cat *catalog.Catalog, index CatalogIndexer, db *mongo.Database, cache ICacheService, addresses *AddressService, logger *zap.Logger) *AdminService {
	return &AdminService{
		catalog:   cat,
		index:     index,
		db:        db,
		cache:     cache,
		addresses: addresses,
		logger:    logger,
	}
}

// SearchEnabled có Meilisearch không
func (as *AdminService) SearchEnabled() bool {
	return as.index != nil
}

// ValidateCatalog kiểm tra dữ liệu trải phẳng của catalog trước khi seed
func (as *AdminService) ValidateCatalog(units []models.AdminUnit) *CatalogValidation {
	if len(units) == 0 {
		return &CatalogValidation{
			Passed:             false,
			Warnings:           []string{"Không có dữ liệu để validate"},
			EstimatedBuildTime: "0s",
		}
	}

	var warnings []string
	passed := true
	seenIDs := make(map[string]bool, len(units))
	for i, unit := range units {
		if seenIDs[unit.AdminID] {
			warnings = append(warnings, fmt.Sprintf("Duplicate AdminID: %s", unit.AdminID))
			passed = false
		}
		seenIDs[unit.AdminID] = true

		if unit.Name == "" {
			warnings = append(warnings, fmt.Sprintf("Missing Name at index %d", i))
			passed = false
		}
		if !unit.IsValidLevel() {
			warnings = append(warnings, fmt.Sprintf("Invalid Level %d at index %d", unit.Level, i))
			passed = false
		}
		// Tên không có tiền tố hành chính chỉ là cảnh báo
		if unit.AdminSubtype == models.AdminSubtypeUnknown {
			warnings = append(warnings, fmt.Sprintf("Unknown subtype for %q", unit.GetFullPath()))
		}
	}

	estimatedSeconds := len(units) / 1000
	if estimatedSeconds < 1 {
		estimatedSeconds = 1
	}

	return &CatalogValidation{
		Passed:             passed,
		Warnings:           warnings,
		EstimatedBuildTime: fmt.Sprintf("%ds", estimatedSeconds),
	}
}

// SeedCatalog validate rồi seed catalog vào MongoDB (nếu có) và Meilisearch.
// dryRun chỉ trả về validation.
func (as *AdminService) SeedCatalog(ctx context.Context, dryRun, rebuildIndexes bool) (*CatalogValidation, *SeedResult, error) {
	units := as.catalog.Units()
	validation := as.ValidateCatalog(units)
	if dryRun {
		return validation, nil, nil
	}
	if !validation.Passed {
		return validation, nil, fmt.Errorf("dữ liệu không hợp lệ: %v", validation.Warnings)
	}
	if as.index == nil {
		return validation, nil, ErrSearchDisabled
	}

	startTime := time.Now()
	result := &SeedResult{}

	if as.db != nil {
		if err := as.storeUnits(ctx, units); err != nil {
			return validation, nil, err
		}
	}

	if rebuildIndexes {
		if err := as.index.BuildIndexes(ctx); err != nil {
			return validation, nil, fmt.Errorf("lỗi build indexes: %w", err)
		}
		result.IndexesBuilt = 1
	}

	n, err := as.index.Seed(ctx, units)
	result.UnitsProcessed = n
	if err != nil {
		return validation, result, fmt.Errorf("lỗi seed Meilisearch: %w", err)
	}

	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	as.logger.Info("Đã seed catalog",
		zap.String("catalog_version", as.catalog.Version()),
		zap.Int("units", n),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs))
	return validation, result, nil
}

// storeUnits thay các đơn vị cùng phiên bản catalog trong collection admin_units
func (as *AdminService) storeUnits(ctx context.Context, units []models.AdminUnit) error {
	collection := as.db.Collection("admin_units")

	deleteResult, err := collection.DeleteMany(ctx, bson.M{"catalog_version": as.catalog.Version()})
	if err != nil {
		return fmt.Errorf("lỗi xóa dữ liệu cũ: %w", err)
	}

	docs := make([]interface{}, len(units))
	for i := range units {
		docs[i] = units[i]
	}
	if _, err := collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("lỗi lưu admin_units: %w", err)
	}

	as.logger.Info("Đã lưu admin_units vào MongoDB",
		zap.Int64("deleted_count", deleteResult.DeletedCount),
		zap.Int("inserted_count", len(docs)))
	return nil
}

// BuildIndexes cấu hình index Meilisearch
func (as *AdminService) BuildIndexes(ctx context.Context) error {
	if as.index == nil {
		return ErrSearchDisabled
	}
	if err := as.index.BuildIndexes(ctx); err != nil {
		return fmt.Errorf("lỗi build indexes: %w", err)
	}
	as.logger.Info("All indexes built successfully")
	return nil
}

// SearchCatalog tìm kiếm gần đúng trong catalog
func (as *AdminService) SearchCatalog(ctx context.Context, query string, level int, parentID string, limit int) ([]models.AdminUnit, error) {
	if as.index == nil {
		return nil, ErrSearchDisabled
	}
	return as.index.Search(ctx, query, level, parentID, limit)
}

// InvalidateCache xóa cache: all=true xóa hết, ngược lại chỉ xóa entry khác phiên bản catalog
func (as *AdminService) InvalidateCache(ctx context.Context, all bool) error {
	if as.cache == nil {
		return ErrCacheDisabled
	}
	if all {
		return as.cache.Clear(ctx)
	}
	return as.cache.InvalidateByCatalogVersion(ctx, as.catalog.Version())
}

// GetSystemStats lấy thống kê hệ thống
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Catalog: as.catalog.Stats(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
	}

	if as.addresses != nil {
		stats.JobsTotal, stats.JobsRunning = as.addresses.JobCounts()
		stats.UptimeSeconds = int64(time.Since(as.addresses.GetStartTime()).Seconds())
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Không lấy được cache stats", zap.Error(err))
		} else {
			stats.Cache = cacheStats
		}
	}
	return stats, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
