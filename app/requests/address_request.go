package requests

// CleanAddressRequest request làm sạch một địa chỉ
type CleanAddressRequest struct {
	Address string       `json:"address" binding:"required"` // Địa chỉ cần làm sạch
	Options CleanOptions `json:"options,omitempty"`          // Tùy chọn
}

// CleanOptions tùy chọn làm sạch
type CleanOptions struct {
	UseCache bool `json:"use_cache,omitempty"` // Có sử dụng cache không
}

// BatchCleanRequest request làm sạch hàng loạt địa chỉ
type BatchCleanRequest struct {
	Addresses []string     `json:"addresses" binding:"required,min=1,max=20000"` // Danh sách địa chỉ (tối đa 20k)
	Options   CleanOptions `json:"options,omitempty"`
}

// JobResultsQuery query string của endpoint lấy kết quả job
type JobResultsQuery struct {
	Format string `form:"format,default=json" binding:"omitempty,oneof=json ndjson csv"`
	Gzip   bool   `form:"gzip"`
}

// CatalogSearchQuery query string tìm kiếm catalog
type CatalogSearchQuery struct {
	Q      string `form:"q" binding:"required"`
	Level  int    `form:"level" binding:"omitempty,min=2,max=4"`
	Parent string `form:"parent"`
	Limit  int    `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
}

// SeedCatalogRequest request seed catalog lên Meilisearch
type SeedCatalogRequest struct {
	DryRun         bool `json:"dry_run,omitempty"`         // Chỉ validate, không ghi
	RebuildIndexes bool `json:"rebuild_indexes,omitempty"` // Có rebuild indexes không
}

// InvalidateCacheRequest request xóa cache
type InvalidateCacheRequest struct {
	All bool `json:"all,omitempty"` // true: xóa toàn bộ; false: chỉ xóa entry khác phiên bản catalog
}
