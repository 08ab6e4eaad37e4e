// Package catalog giữ danh mục hành chính tham chiếu (tỉnh → quận/huyện → phường/xã)
// và tập tổ hợp outlier. Catalog được build một lần khi khởi động và chỉ đọc sau đó,
// an toàn khi dùng đồng thời từ nhiều goroutine.
package catalog

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/normalizer"
)

// municipalCities các thành phố trực thuộc trung ương
var municipalCities = map[string]struct{}{
	"Hồ Chí Minh": {},
	"Hà Nội":      {},
	"Hải Phòng":   {},
	"Huế":         {},
	"Cần Thơ":     {},
	"Đà Nẵng":     {},
}

// IsMunicipality kiểm tra tên tỉnh (không tiền tố) có phải thành phố trực thuộc trung ương
func IsMunicipality(province string) bool {
	_, ok := municipalCities[province]
	return ok
}

// Pair một tổ hợp district/ward trong cùng tỉnh
type Pair struct {
	District string
	Ward     string
}

// String dạng "ward, district" dùng trong danh sách ứng viên của prompt
func (p Pair) String() string {
	return p.Ward + ", " + p.District
}

// Stats thống kê catalog
type Stats struct {
	Version   string `json:"version"`
	Provinces int    `json:"provinces"`
	Districts int    `json:"districts"`
	Wards     int    `json:"wards"`
	Outliers  int    `json:"outliers"`
}

// Catalog danh mục hành chính bất biến
type Catalog struct {
	version   string
	provinces []string
	districts map[string][]string
	wards     map[string]map[string][]string
	units     map[string]json.RawMessage
	outliers  map[string]struct{}
}

// OutlierKey khóa "{province}, {district}, {ward}" của tập outlier
func OutlierKey(province, district, ward string) string {
	return fmt.Sprintf("%s, %s, %s", province, district, ward)
}

// Version phiên bản catalog (hash nội dung dữ liệu nguồn)
func (c *Catalog) Version() string {
	return c.version
}

// Provinces danh sách tỉnh theo thứ tự trong dữ liệu nguồn
func (c *Catalog) Provinces() []string {
	return slices.Clone(c.provinces)
}

// HasProvince kiểm tra tỉnh có trong catalog (so khớp chính xác)
func (c *Catalog) HasProvince(province string) bool {
	_, ok := c.districts[province]
	return ok
}

// Districts danh sách quận/huyện của tỉnh, nil nếu tỉnh không tồn tại
func (c *Catalog) Districts(province string) []string {
	return slices.Clone(c.districts[province])
}

// Wards danh sách phường/xã của quận/huyện, nil nếu không tồn tại
func (c *Catalog) Wards(province, district string) []string {
	return slices.Clone(c.wards[province][district])
}

// Pairs tất cả tổ hợp district/ward của tỉnh, theo thứ tự dữ liệu nguồn
func (c *Catalog) Pairs(province string) []Pair {
	var pairs []Pair
	for _, district := range c.districts[province] {
		for _, ward := range c.wards[province][district] {
			pairs = append(pairs, Pair{District: district, Ward: ward})
		}
	}
	return pairs
}

// Contains kiểm tra tổ hợp có trong catalog (không xét outlier)
func (c *Catalog) Contains(province, district, ward string) bool {
	_, ok := c.units[unitKey(province, district, ward)]
	return ok
}

// IsOutlier kiểm tra tổ hợp có nằm trong tập outlier
func (c *Catalog) IsOutlier(province, district, ward string) bool {
	_, ok := c.outliers[OutlierKey(province, district, ward)]
	return ok
}

// IsKnownCombination tổ hợp hợp lệ: có trong catalog và không phải outlier
func (c *Catalog) IsKnownCombination(province, district, ward string) bool {
	return c.Contains(province, district, ward) && !c.IsOutlier(province, district, ward)
}

// Unit metadata của phường/xã (có thể rỗng)
func (c *Catalog) Unit(province, district, ward string) (json.RawMessage, bool) {
	raw, ok := c.units[unitKey(province, district, ward)]
	return raw, ok
}

// Stats thống kê số lượng đơn vị
func (c *Catalog) Stats() Stats {
	s := Stats{Version: c.version, Provinces: len(c.provinces), Outliers: len(c.outliers)}
	for _, p := range c.provinces {
		s.Districts += len(c.districts[p])
		for _, d := range c.districts[p] {
			s.Wards += len(c.wards[p][d])
		}
	}
	return s
}

// Units trải phẳng catalog thành AdminUnit để index tìm kiếm
func (c *Catalog) Units() []models.AdminUnit {
	units := make([]models.AdminUnit, 0, len(c.provinces)+len(c.units))
	for pi, p := range c.provinces {
		pid := fmt.Sprintf("p%02d", pi+1)
		subtype := models.AdminSubtypeProvince
		if IsMunicipality(p) {
			subtype = models.AdminSubtypeMunicipality
		}
		units = append(units, c.unit(pid, "", models.LevelProvince, p, subtype, []string{p}))

		for di, d := range c.districts[p] {
			did := fmt.Sprintf("%s-d%03d", pid, di+1)
			units = append(units, c.unit(did, pid, models.LevelDistrict, d,
				models.SubtypeFor(models.LevelDistrict, d), []string{p, d}))

			for wi, w := range c.wards[p][d] {
				wid := fmt.Sprintf("%s-w%04d", did, wi+1)
				units = append(units, c.unit(wid, did, models.LevelWard, w,
					models.SubtypeFor(models.LevelWard, w), []string{p, d, w}))
			}
		}
	}
	return units
}

func (c *Catalog) unit(id, parent string, level int, name, subtype string, path []string) models.AdminUnit {
	return models.AdminUnit{
		AdminID:        id,
		ParentID:       parent,
		Level:          level,
		Name:           name,
		NormalizedName: normalizer.Fold(name),
		AdminSubtype:   subtype,
		Path:           path,
		CatalogVersion: c.version,
	}
}

func unitKey(province, district, ward string) string {
	return province + "\x00" + district + "\x00" + ward
}
