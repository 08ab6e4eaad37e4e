package models

import "strings"

// AdminUnit đơn vị hành chính trong catalog, dạng document để index lên Meilisearch
type AdminUnit struct {
	AdminID        string   `json:"admin_id" bson:"admin_id"`                       // ID ổn định sinh từ đường dẫn tên
	ParentID       string   `json:"parent_id,omitempty" bson:"parent_id,omitempty"` // ID của đơn vị cha
	Level          int      `json:"level" bson:"level"`                             // 2=province, 3=district, 4=ward
	Name           string   `json:"name" bson:"name"`                               // Tên chuẩn trong catalog
	NormalizedName string   `json:"normalized_name" bson:"normalized_name"`         // Tên không dấu, lowercase
	AdminSubtype   string   `json:"admin_subtype" bson:"admin_subtype"`             // Loại phụ suy ra từ tiền tố tên
	Path           []string `json:"path" bson:"path"`                               // Tên từ tỉnh đến đơn vị hiện tại
	CatalogVersion string   `json:"catalog_version" bson:"catalog_version"`
}

// AdminSubtype constants
const (
	AdminSubtypeProvince          = "province"
	AdminSubtypeMunicipality      = "municipality"
	AdminSubtypeUrbanDistrict     = "urban_district"
	AdminSubtypeRuralDistrict     = "rural_district"
	AdminSubtypeCityUnderProvince = "city_under_province"
	AdminSubtypeTown              = "town"
	AdminSubtypeWard              = "ward"
	AdminSubtypeCommune           = "commune"
	AdminSubtypeTownship          = "township"
	AdminSubtypeUnknown           = "unknown"
)

// Level constants
const (
	LevelProvince = 2
	LevelDistrict = 3
	LevelWard     = 4
)

var districtSubtypes = []struct{ prefix, subtype string }{
	{"Quận ", AdminSubtypeUrbanDistrict},
	{"Huyện ", AdminSubtypeRuralDistrict},
	{"Thành phố ", AdminSubtypeCityUnderProvince},
	{"Thị xã ", AdminSubtypeTown},
}

var wardSubtypes = []struct{ prefix, subtype string }{
	{"Phường ", AdminSubtypeWard},
	{"Xã ", AdminSubtypeCommune},
	{"Thị trấn ", AdminSubtypeTownship},
}

// SubtypeFor suy ra admin_subtype từ tiền tố của tên ở cấp district/ward
func SubtypeFor(level int, name string) string {
	var table []struct{ prefix, subtype string }
	switch level {
	case LevelDistrict:
		table = districtSubtypes
	case LevelWard:
		table = wardSubtypes
	default:
		return AdminSubtypeProvince
	}
	for _, t := range table {
		if strings.HasPrefix(name, t.prefix) {
			return t.subtype
		}
	}
	return AdminSubtypeUnknown
}

// IsValidLevel kiểm tra level có hợp lệ không
func (au *AdminUnit) IsValidLevel() bool {
	return au.Level >= LevelProvince && au.Level <= LevelWard
}

// GetFullPath trả về đường dẫn đầy đủ từ tỉnh
func (au *AdminUnit) GetFullPath() string {
	return strings.Join(au.Path, " > ")
}
