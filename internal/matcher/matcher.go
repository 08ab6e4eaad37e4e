// Package matcher so khớp chuỗi tự do (model output, geocode) với tên chuẩn trong catalog.
package matcher

import (
	"sort"
	"strings"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/normalizer"
)

// Tiền tố hành chính bị bỏ khỏi tên ứng viên trước khi so khớp
var (
	provinceHonorifics = []string{"Thành phố ", "Tỉnh "}
	districtHonorifics = []string{"Huyện ", "Quận ", "Thành phố ", "Thị xã "}
	wardHonorifics     = []string{"Phường ", "Thị trấn ", "Xã "}
)

// ProvinceHonorifics bản sao danh sách tiền tố cấp tỉnh
func ProvinceHonorifics() []string { return append([]string(nil), provinceHonorifics...) }

// DistrictHonorifics bản sao danh sách tiền tố cấp quận/huyện
func DistrictHonorifics() []string { return append([]string(nil), districtHonorifics...) }

// WardHonorifics bản sao danh sách tiền tố cấp phường/xã
func WardHonorifics() []string { return append([]string(nil), wardHonorifics...) }

// StripHonorific bỏ một tiền tố hành chính ở đầu tên (nếu có)
func StripHonorific(name string, honorifics []string) string {
	for _, h := range honorifics {
		if strings.HasPrefix(name, h) {
			return strings.TrimPrefix(name, h)
		}
	}
	return name
}

type masked struct {
	folded   string
	original string
}

// maskCandidates bỏ tiền tố, fold, rồi sắp xếp giảm dần theo độ dài dạng fold.
// Tên dài hơn phải được thử trước để "Tân An" không bị "An" chiếm chỗ.
func maskCandidates(candidates []string, honorifics []string) []masked {
	list := make([]masked, 0, len(candidates))
	for _, c := range candidates {
		folded := normalizer.Fold(StripHonorific(c, honorifics))
		if strings.TrimSpace(folded) == "" {
			continue
		}
		list = append(list, masked{folded: folded, original: c})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return len(list[i].folded) > len(list[j].folded)
	})
	return list
}

// Match chọn ứng viên đầu tiên (theo thứ tự dài trước) có dạng fold đã bỏ tiền tố
// nằm trong dạng fold của raw. Không có thì Unresolved.
func Match(raw string, candidates []string, honorifics []string) models.Field {
	if strings.TrimSpace(raw) == "" {
		return models.Unresolved()
	}
	foldedRaw := normalizer.Fold(raw)
	for _, m := range maskCandidates(candidates, honorifics) {
		if strings.Contains(foldedRaw, m.folded) {
			return models.Resolved(m.original)
		}
	}
	return models.Unresolved()
}

// MatchDistrict so khớp district với danh sách district của một tỉnh
func MatchDistrict(raw string, districts []string) models.Field {
	return Match(raw, districts, districtHonorifics)
}

// MatchWard so khớp ward với danh sách ward của một district
func MatchWard(raw string, wards []string) models.Field {
	return Match(raw, wards, wardHonorifics)
}

// MatchProvince thử khớp chính xác (không dấu, lowercase, có hoặc không tiền tố) trước, sau đó tới
// chứa chuỗi: tỉnh đầu tiên theo thứ tự catalog có dạng fold nằm trong raw.
func MatchProvince(raw string, provinces []string) models.Field {
	if strings.TrimSpace(raw) == "" {
		return models.Unresolved()
	}
	trimmed := strings.TrimSpace(raw)
	foldedRaw := normalizer.Fold(trimmed)
	foldedStripped := normalizer.Fold(StripHonorific(trimmed, provinceHonorifics))

	for _, p := range provinces {
		folded := normalizer.Fold(p)
		if folded == foldedRaw || folded == foldedStripped {
			return models.Resolved(p)
		}
	}
	for _, p := range provinces {
		if strings.Contains(foldedRaw, normalizer.Fold(p)) {
			return models.Resolved(p)
		}
	}
	return models.Unresolved()
}
