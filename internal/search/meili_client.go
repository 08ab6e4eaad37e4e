// Package search index catalog hành chính lên Meilisearch để tra cứu gần đúng
// (endpoint /v1/catalog/search). Pipeline làm sạch không phụ thuộc package này.
package search

import (
	"fmt"
	"time"

	ms "github.com/meilisearch/meilisearch-go"
)

// Config cấu hình Meilisearch
type Config struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
}

func newClient(cfg Config) ms.ServiceManager {
	return ms.New(cfg.Host, ms.WithAPIKey(cfg.APIKey))
}

// Filter tạo filter theo level và parent_id; level 0 thì bỏ qua level
func Filter(level int, parentID string) string {
	switch {
	case level == 0 && parentID == "":
		return ""
	case parentID == "":
		return fmt.Sprintf("level = %d", level)
	case level == 0:
		return fmt.Sprintf("parent_id = %q", parentID)
	}
	return fmt.Sprintf("level = %d AND parent_id = %q", level, parentID)
}
