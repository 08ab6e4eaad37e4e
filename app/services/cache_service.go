package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCacheService cache in-process có TTL, dùng khi chạy không có Redis/MongoDB
// (batch worker, môi trường dev) và làm L1 trong test.
type MemoryCacheService struct {
	cache          *expirable.LRU[string, *memoryEntry]
	ttl            time.Duration
	catalogVersion string

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryEntry struct {
	result         *models.ResolvedAddress
	catalogVersion string
	storedAt       time.Time
}

// NewMemoryCacheService tạo mới MemoryCacheService
func NewMemoryCacheService(size int, ttl time.Duration, catalogVersion string) *MemoryCacheService {
	if size <= 0 {
		size = 1000
	}
	return &MemoryCacheService{
		cache:          expirable.NewLRU[string, *memoryEntry](size, nil, ttl),
		ttl:            ttl,
		catalogVersion: catalogVersion,
	}
}

// Get lấy kết quả từ cache
func (cs *MemoryCacheService) Get(ctx context.Context, key string) (*models.ResolvedAddress, bool, error) {
	entry, ok := cs.cache.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return entry.result, true, nil
}

// Set lưu kết quả vào cache
func (cs *MemoryCacheService) Set(ctx context.Context, key string, result *models.ResolvedAddress) error {
	cs.cache.Add(key, &memoryEntry{result: result, catalogVersion: cs.catalogVersion, storedAt: time.Now()})
	return nil
}

// Delete xóa item khỏi cache
func (cs *MemoryCacheService) Delete(ctx context.Context, key string) error {
	cs.cache.Remove(key)
	return nil
}

// Clear xóa toàn bộ cache
func (cs *MemoryCacheService) Clear(ctx context.Context) error {
	cs.cache.Purge()
	cs.hits.Store(0)
	cs.misses.Store(0)
	return nil
}

// InvalidateByCatalogVersion xóa entry có phiên bản catalog khác
func (cs *MemoryCacheService) InvalidateByCatalogVersion(ctx context.Context, catalogVersion string) error {
	for _, key := range cs.cache.Keys() {
		entry, ok := cs.cache.Peek(key)
		if ok && entry.catalogVersion != catalogVersion {
			cs.cache.Remove(key)
		}
	}
	return nil
}

// GetStats lấy thống kê cache
func (cs *MemoryCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	return newCacheStats(cs.hits.Load(), cs.misses.Load(), int64(cs.cache.Len())), nil
}

// Exists kiểm tra key có tồn tại không
func (cs *MemoryCacheService) Exists(ctx context.Context, key string) (bool, error) {
	return cs.cache.Contains(key), nil
}

// GetTTL lấy TTL còn lại của key
func (cs *MemoryCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	entry, ok := cs.cache.Peek(key)
	if !ok || cs.ttl <= 0 {
		return 0, nil
	}
	remaining := cs.ttl - time.Since(entry.storedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close không cần thiết cho in-memory cache
func (cs *MemoryCacheService) Close() error {
	return nil
}
