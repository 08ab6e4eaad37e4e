package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/normalizer"
)

// CacheStats thống kê cache
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

func newCacheStats(hits, misses, items int64) *CacheStats {
	stats := &CacheStats{TotalHits: hits, TotalMiss: misses, TotalItems: items}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

// ICacheService interface định nghĩa các method cần thiết cho cache
type ICacheService interface {
	// Get lấy kết quả từ cache
	Get(ctx context.Context, key string) (*models.ResolvedAddress, bool, error)

	// Set lưu kết quả vào cache
	Set(ctx context.Context, key string, result *models.ResolvedAddress) error

	// Delete xóa kết quả khỏi cache
	Delete(ctx context.Context, key string) error

	// Clear xóa tất cả cache
	Clear(ctx context.Context) error

	// InvalidateByCatalogVersion xóa các entry không thuộc phiên bản catalog hiện tại
	InvalidateByCatalogVersion(ctx context.Context, catalogVersion string) error

	// GetStats lấy thống kê cache
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists kiểm tra key có tồn tại không
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL lấy TTL còn lại của key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close đóng kết nối (nếu cần)
	Close() error
}

// CacheKey sinh cache key từ địa chỉ (đã chuẩn hóa NFC, gộp khoảng trắng) và phiên bản catalog.
// Đổi catalog thì key cũ tự động không còn khớp.
func CacheKey(raw, catalogVersion string) string {
	hash := sha256.Sum256([]byte(normalizer.CleanQuery(raw) + "\x00" + catalogVersion))
	return fmt.Sprintf("sha256:%x", hash)
}
