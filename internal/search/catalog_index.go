package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// ErrNoUnits không có đơn vị nào để seed
var ErrNoUnits = errors.New("không có dữ liệu để seed")

const seedBatchSize = 1000

// CatalogIndex index Meilisearch của catalog hành chính
type CatalogIndex struct {
	client    meilisearch.ServiceManager
	logger    *zap.Logger
	indexName string
	timeout   time.Duration
}

// NewCatalogIndex tạo mới CatalogIndex và kiểm tra kết nối
func NewCatalogIndex(cfg Config, logger *zap.Logger) (*CatalogIndex, error) {
	if cfg.IndexName == "" {
		cfg.IndexName = "admin_units"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := newClient(cfg)

	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("không thể kết nối Meilisearch: %w", err)
	}

	return &CatalogIndex{
		client:    client,
		logger:    logger,
		indexName: cfg.IndexName,
		timeout:   cfg.Timeout,
	}, nil
}

// Healthy kiểm tra Meilisearch còn phản hồi
func (ci *CatalogIndex) Healthy() bool {
	return ci.client.IsHealthy()
}

// Search tìm đơn vị hành chính theo tên, lọc theo level/parent nếu có
func (ci *CatalogIndex) Search(ctx context.Context, query string, level int, parentID string, limit int) ([]models.AdminUnit, error) {
	if query == "" {
		return nil, errors.New("query không được để trống")
	}
	if limit <= 0 {
		limit = 10
	}

	req := &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Filter: Filter(level, parentID),
	}
	result, err := ci.client.Index(ci.indexName).Search(query, req)
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm kiếm Meilisearch: %w", err)
	}

	units := make([]models.AdminUnit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		units = append(units, unitFromHit(hitMap))
	}
	return units, nil
}

// BuildIndexes cấu hình index: thuộc tính tìm kiếm, filter, synonyms viết tắt
func (ci *CatalogIndex) BuildIndexes(ctx context.Context) error {
	index := ci.client.Index(ci.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"name", "normalized_name", "path"},
		FilterableAttributes: []string{"admin_id", "level", "parent_id", "admin_subtype", "catalog_version"},
		SortableAttributes:   []string{"level", "admin_id"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		StopWords:            []string{"cua", "va", "tai"},
		Synonyms:             abbreviationSynonyms,
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  3,
				TwoTypos: 7,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("lỗi cấu hình index: %w", err)
	}

	if err := ci.waitTask(ctx, task.TaskUID); err != nil {
		return err
	}
	ci.logger.Info("Đã cấu hình index Meilisearch", zap.String("index", ci.indexName))
	return nil
}

// abbreviationSynonyms các viết tắt địa chỉ thường gặp
var abbreviationSynonyms = map[string][]string{
	"tp":    {"thanh pho"},
	"hcm":   {"ho chi minh", "sai gon"},
	"tphcm": {"thanh pho ho chi minh"},
	"hn":    {"ha noi"},
	"q":     {"quan"},
	"h":     {"huyen"},
	"p":     {"phuong"},
	"tx":    {"thi xa"},
	"tt":    {"thi tran"},
}

// Seed nạp các đơn vị catalog vào index theo lô, trả về số document đã gửi
func (ci *CatalogIndex) Seed(ctx context.Context, units []models.AdminUnit) (int, error) {
	if len(units) == 0 {
		return 0, ErrNoUnits
	}
	index := ci.client.Index(ci.indexName)

	for _, b := range Batches(len(units), seedBatchSize) {
		docs := make([]map[string]interface{}, 0, b[1]-b[0])
		for _, unit := range units[b[0]:b[1]] {
			docs = append(docs, unitDocument(unit))
		}

		task, err := index.AddDocuments(docs, "id")
		if err != nil {
			return b[0], fmt.Errorf("lỗi thêm documents batch %d-%d: %w", b[0], b[1], err)
		}
		if err := ci.waitTask(ctx, task.TaskUID); err != nil {
			return b[0], err
		}
		ci.logger.Info("Đã thêm batch documents",
			zap.Int("from", b[0]),
			zap.Int("to", b[1]),
			zap.Int64("task_uid", task.TaskUID))
	}

	ci.logger.Info("Đã seed catalog", zap.Int("total_documents", len(units)))
	return len(units), nil
}

// waitTask chờ task Meilisearch hoàn tất hoặc hết timeout
func (ci *CatalogIndex) waitTask(ctx context.Context, taskUID int64) error {
	ctx, cancel := context.WithTimeout(ctx, ci.timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		task, err := ci.client.GetTask(taskUID)
		if err != nil {
			return fmt.Errorf("lỗi kiểm tra task %d: %w", taskUID, err)
		}
		switch task.Status {
		case meilisearch.TaskStatusSucceeded:
			return nil
		case meilisearch.TaskStatusFailed, meilisearch.TaskStatusCanceled:
			return fmt.Errorf("task %d thất bại: %s", taskUID, task.Error.Message)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("chờ task %d: %w", taskUID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// unitDocument chuyển AdminUnit sang document Meilisearch
func unitDocument(unit models.AdminUnit) map[string]interface{} {
	return map[string]interface{}{
		"id":              unit.AdminID,
		"admin_id":        unit.AdminID,
		"parent_id":       unit.ParentID,
		"level":           unit.Level,
		"name":            unit.Name,
		"normalized_name": unit.NormalizedName,
		"admin_subtype":   unit.AdminSubtype,
		"path":            unit.Path,
		"catalog_version": unit.CatalogVersion,
	}
}

// unitFromHit parse một hit Meilisearch thành AdminUnit
func unitFromHit(hit map[string]interface{}) models.AdminUnit {
	unit := models.AdminUnit{}
	unit.AdminID, _ = hit["admin_id"].(string)
	unit.ParentID, _ = hit["parent_id"].(string)
	unit.Name, _ = hit["name"].(string)
	unit.NormalizedName, _ = hit["normalized_name"].(string)
	unit.AdminSubtype, _ = hit["admin_subtype"].(string)
	unit.CatalogVersion, _ = hit["catalog_version"].(string)
	if level, ok := hit["level"].(float64); ok {
		unit.Level = int(level)
	}
	if path, ok := hit["path"].([]interface{}); ok {
		for _, p := range path {
			if s, ok := p.(string); ok {
				unit.Path = append(unit.Path, s)
			}
		}
	}
	return unit
}

// Batches chia [0, n) thành các đoạn [from, to) dài tối đa size
func Batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{i, end})
	}
	return out
}
