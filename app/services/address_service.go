package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/helpers/utils"
	"github.com/address-cleaner/internal/catalog"
	"github.com/address-cleaner/internal/metrics"
	"github.com/address-cleaner/internal/normalizer"
	"github.com/address-cleaner/internal/pipeline"
	"go.uber.org/zap"
)

var (
	ErrEmptyAddress  = errors.New("địa chỉ không được để trống")
	ErrEmptyBatch    = errors.New("danh sách địa chỉ rỗng")
	ErrBatchTooLarge = errors.New("danh sách địa chỉ vượt quá giới hạn")
	ErrJobNotFound   = errors.New("job không tồn tại")
	ErrJobNotDone    = errors.New("job chưa hoàn thành")
)

// estimatedPerAddress thời gian ước tính cho một địa chỉ: 4 lần gọi model có delay + 2 lần nghỉ giữa stage
const estimatedPerAddress = 25 * time.Second

// Cleaner phần pipeline mà AddressService cần, *pipeline.Cleaner thỏa mãn
type Cleaner interface {
	pipeline.Resolver
	Catalog() *catalog.Catalog
}

// AddressService service làm sạch địa chỉ: cache + pipeline + batch job
type AddressService struct {
	cleaner      Cleaner
	cache        ICacheService // nil nếu không bật cache
	workers      int
	maxBatchSize int
	logger       *zap.Logger
	metrics      *metrics.Metrics
	startTime    time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*job
}

// JobStatus trạng thái của job
type JobStatus struct {
	JobID              string
	Status             string
	Progress           float64
	Processed          int
	Total              int
	EstimatedRemaining int
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type job struct {
	status  JobStatus
	results []*models.ResolvedAddress
}

// AddressServiceOptions tham số của AddressService
type AddressServiceOptions struct {
	Workers      int
	MaxBatchSize int
}

// NewAddressService tạo mới AddressService. cache có thể nil.
func NewAddressService(cleaner Cleaner, cache ICacheService, opts AddressServiceOptions, logger *zap.Logger, m *metrics.Metrics) *AddressService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 20000
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AddressService{
		cleaner:      cleaner,
		cache:        cache,
		workers:      opts.Workers,
		maxBatchSize: opts.MaxBatchSize,
		logger:       logger,
		metrics:      m,
		startTime:    time.Now(),
		baseCtx:      ctx,
		cancel:       cancel,
		jobs:         make(map[string]*job),
	}
}

// CatalogVersion phiên bản catalog đang dùng
func (as *AddressService) CatalogVersion() string {
	return as.cleaner.Catalog().Version()
}

// Catalog catalog đang dùng
func (as *AddressService) Catalog() *catalog.Catalog {
	return as.cleaner.Catalog()
}

// CacheEnabled có cấu hình cache không
func (as *AddressService) CacheEnabled() bool {
	return as.cache != nil
}

// Clean làm sạch một địa chỉ. Trả về kết quả và cờ cache hit.
func (as *AddressService) Clean(ctx context.Context, rawAddress string, options requests.CleanOptions) (*models.ResolvedAddress, bool, error) {
	if normalizer.CleanQuery(rawAddress) == "" {
		return nil, false, ErrEmptyAddress
	}

	useCache := options.UseCache && as.cache != nil
	var key string
	if useCache {
		key = CacheKey(rawAddress, as.CatalogVersion())
		cached, found, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Lỗi đọc cache, chạy pipeline", zap.Error(err))
		} else if found {
			return cached, true, nil
		}
	}

	result := as.cleaner.Resolve(ctx, rawAddress)

	// Kết quả dở dang do lỗi tạm thời không được cache
	if useCache && (ctx.Err() != nil || !result.Answered()) {
		as.logger.Debug("Bỏ qua cache cho kết quả không đầy đủ", zap.String("key", key))
		return result, false, nil
	}
	if useCache {
		if err := as.cache.Set(ctx, key, result); err != nil {
			as.logger.Warn("Lỗi ghi cache", zap.Error(err), zap.String("key", key))
		}
	}
	return result, false, nil
}

type resolverFunc func(ctx context.Context, raw string) *models.ResolvedAddress

func (f resolverFunc) Resolve(ctx context.Context, raw string) *models.ResolvedAddress {
	return f(ctx, raw)
}

// EstimateBatchProcessingTime ước tính thời gian xử lý batch (giây)
func (as *AddressService) EstimateBatchProcessingTime(addressCount int) int {
	rounds := (addressCount + as.workers - 1) / as.workers
	return int((time.Duration(rounds) * estimatedPerAddress).Seconds())
}

// SubmitJob tạo batch job và xử lý trong background, trả về job ID
func (as *AddressService) SubmitJob(addresses []string, options requests.CleanOptions) (string, error) {
	if len(addresses) == 0 {
		return "", ErrEmptyBatch
	}
	if len(addresses) > as.maxBatchSize {
		return "", fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(addresses), as.maxBatchSize)
	}

	jobID := utils.GenerateUUID()
	now := time.Now()

	as.mu.Lock()
	as.jobs[jobID] = &job{status: JobStatus{
		JobID:              jobID,
		Status:             "pending",
		Total:              len(addresses),
		EstimatedRemaining: as.EstimateBatchProcessingTime(len(addresses)),
		Message:            "Đang chờ xử lý",
		CreatedAt:          now,
		UpdatedAt:          now,
	}}
	as.mu.Unlock()

	as.metrics.IncJobSubmitted()
	as.wg.Add(1)
	go func() {
		defer as.wg.Done()
		as.processBatchJob(jobID, addresses, options)
	}()

	return jobID, nil
}

// processBatchJob xử lý job batch trong background
func (as *AddressService) processBatchJob(jobID string, addresses []string, options requests.CleanOptions) {
	as.updateJob(jobID, func(s *JobStatus) {
		s.Status = "running"
		s.Message = "Đang xử lý..."
	})

	resolve := resolverFunc(func(ctx context.Context, raw string) *models.ResolvedAddress {
		result, _, err := as.Clean(ctx, raw, options)
		if err != nil {
			// Dòng rỗng vẫn giữ vị trí trong kết quả
			return &models.ResolvedAddress{Raw: raw}
		}
		return result
	})

	results, err := pipeline.ResolveAll(as.baseCtx, resolve, addresses, as.workers, func(int, *models.ResolvedAddress) {
		as.updateJob(jobID, func(s *JobStatus) {
			s.Processed++
			s.Progress = float64(s.Processed) / float64(s.Total)
			s.EstimatedRemaining = as.EstimateBatchProcessingTime(s.Total - s.Processed)
		})
	})

	as.mu.Lock()
	if j, ok := as.jobs[jobID]; ok {
		j.results = results
		j.status.UpdatedAt = time.Now()
		j.status.EstimatedRemaining = 0
		if err != nil {
			j.status.Status = "failed"
			j.status.Message = err.Error()
		} else {
			j.status.Status = "done"
			j.status.Message = "Hoàn thành xử lý"
		}
	}
	as.mu.Unlock()

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total_addresses", len(addresses)),
		zap.Error(err))
}

func (as *AddressService) updateJob(jobID string, fn func(*JobStatus)) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if j, ok := as.jobs[jobID]; ok {
		fn(&j.status)
		j.status.UpdatedAt = time.Now()
	}
}

// GetJobStatus lấy trạng thái job (bản sao)
func (as *AddressService) GetJobStatus(jobID string) (JobStatus, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	j, exists := as.jobs[jobID]
	if !exists {
		return JobStatus{}, ErrJobNotFound
	}
	return j.status, nil
}

// GetJobResults lấy kết quả job đã hoàn thành
func (as *AddressService) GetJobResults(jobID string) ([]*models.ResolvedAddress, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	j, exists := as.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	if j.status.Status != "done" {
		return nil, ErrJobNotDone
	}
	return j.results, nil
}

// JobCounts tổng số job và số job đang chạy
func (as *AddressService) JobCounts() (total, running int) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for _, j := range as.jobs {
		if j.status.Status == "running" || j.status.Status == "pending" {
			running++
		}
	}
	return len(as.jobs), running
}

// GetStartTime lấy thời gian khởi động service
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}

// Shutdown huỷ các job đang chạy và chờ chúng dừng hoặc ctx hết hạn
func (as *AddressService) Shutdown(ctx context.Context) error {
	as.cancel()
	done := make(chan struct{})
	go func() {
		as.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
