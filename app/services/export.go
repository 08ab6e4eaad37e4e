package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/address-cleaner/app/models"
)

// Định dạng xuất kết quả
const (
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
	FormatCSV    = "csv"
)

// ContentType MIME type tương ứng với định dạng
func ContentType(format string) string {
	switch format {
	case FormatNDJSON:
		return "application/x-ndjson"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// WriteResults ghi kết quả theo định dạng. json/ndjson ghi record đầy đủ,
// csv ghi dạng phẳng Summary. Kết quả nil (job bị huỷ giữa chừng) bị bỏ qua.
func WriteResults(w io.Writer, format string, results []*models.ResolvedAddress) error {
	switch format {
	case FormatJSON, "":
		out := make([]*models.ResolvedAddress, 0, len(results))
		for _, r := range results {
			if r != nil {
				out = append(out, r)
			}
		}
		return json.NewEncoder(w).Encode(out)

	case FormatNDJSON:
		enc := json.NewEncoder(w)
		for _, r := range results {
			if r == nil {
				continue
			}
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("lỗi ghi ndjson: %w", err)
			}
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(models.SummaryHeader); err != nil {
			return fmt.Errorf("lỗi ghi csv: %w", err)
		}
		for _, r := range results {
			if r == nil {
				continue
			}
			if err := cw.Write(r.Summarize().Row()); err != nil {
				return fmt.Errorf("lỗi ghi csv: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	}
	return fmt.Errorf("định dạng không hỗ trợ: %q", format)
}
