package services

import (
	"context"
	"errors"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/metrics"
	"go.uber.org/zap"
)

// HybridCacheService cache service kết hợp L1 (Redis, nhanh) + L2 (MongoDB, persistent)
type HybridCacheService struct {
	l1      ICacheService
	l2      ICacheService
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHybridCacheService tạo mới hybrid cache service
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger, m *metrics.Metrics) *HybridCacheService {
	return &HybridCacheService{
		l1:      l1,
		l2:      l2,
		logger:  logger,
		metrics: m,
	}
}

// both chạy fn song song trên cả 2 tầng và gộp lỗi
func (hcs *HybridCacheService) both(fn func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, layer := range []ICacheService{hcs.l1, hcs.l2} {
		go func(c ICacheService) {
			errCh <- fn(c)
		}(layer)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get lấy kết quả từ cache (L1 trước, L2 sau)
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.ResolvedAddress, bool, error) {
	result, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi L1 cache, fallback L2", zap.Error(err))
	} else if found {
		hcs.metrics.IncCache("l1", "hit")
		return result, true, nil
	}
	hcs.metrics.IncCache("l1", "miss")

	result, found, err = hcs.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		hcs.metrics.IncCache("l2", "miss")
		hcs.logger.Debug("Cache miss (L1 & L2)", zap.String("key", key))
		return nil, false, nil
	}
	hcs.metrics.IncCache("l2", "hit")

	// Đồng bộ L2 -> L1
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.l1.Set(bgCtx, key, result); err != nil {
			hcs.logger.Warn("Lỗi sync L2->L1", zap.Error(err), zap.String("key", key))
		}
	}()

	return result, true, nil
}

// Set lưu kết quả vào cả 2 tầng
func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.ResolvedAddress) error {
	return hcs.both(func(c ICacheService) error { return c.Set(ctx, key, result) })
}

// Delete xóa key khỏi cả 2 tầng
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) })
}

// Clear xóa toàn bộ cache
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return err
	}
	hcs.logger.Info("Đã clear hybrid cache")
	return nil
}

// InvalidateByCatalogVersion xóa cache không thuộc phiên bản catalog hiện tại
func (hcs *HybridCacheService) InvalidateByCatalogVersion(ctx context.Context, catalogVersion string) error {
	err := hcs.both(func(c ICacheService) error { return c.InvalidateByCatalogVersion(ctx, catalogVersion) })
	if err != nil {
		return err
	}
	hcs.logger.Info("Đã invalidate hybrid cache", zap.String("catalog_version", catalogVersion))
	return nil
}

// GetStats gộp thống kê 2 tầng; một tầng lỗi thì dùng tầng còn lại
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1Stats, l1Err := hcs.l1.GetStats(ctx)
	l2Stats, l2Err := hcs.l2.GetStats(ctx)

	switch {
	case l1Err != nil && l2Err != nil:
		return nil, errors.Join(l1Err, l2Err)
	case l1Err != nil:
		return l2Stats, nil
	case l2Err != nil:
		return l1Stats, nil
	}

	return newCacheStats(
		l1Stats.TotalHits+l2Stats.TotalHits,
		l1Stats.TotalMiss+l2Stats.TotalMiss,
		l1Stats.TotalItems+l2Stats.TotalItems,
	), nil
}

// Exists kiểm tra key có tồn tại không (L1 trước, L2 sau)
func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.l1.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi check L1 exists, fallback L2", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.l2.Exists(ctx, key)
}

// GetTTL lấy TTL của key từ L1
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l1.GetTTL(ctx, key)
}

// Close đóng kết nối cả 2 tầng
func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() })
}
