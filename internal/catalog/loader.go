package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrDuplicateName tên trùng lặp ở cùng một cấp
	ErrDuplicateName = errors.New("tên đơn vị hành chính bị trùng")
	// ErrEmptyCatalog catalog không có tỉnh nào
	ErrEmptyCatalog = errors.New("catalog rỗng")
)

// Load đọc catalog và tập outlier từ file JSON
func Load(catalogPath, outliersPath string) (*Catalog, error) {
	catalogJSON, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("không đọc được catalog %s: %w", catalogPath, err)
	}

	var outliersJSON []byte
	if outliersPath != "" {
		outliersJSON, err = os.ReadFile(outliersPath)
		if err != nil {
			return nil, fmt.Errorf("không đọc được outliers %s: %w", outliersPath, err)
		}
	}

	return Parse(catalogJSON, outliersJSON)
}

// Parse build Catalog từ JSON province → district → ward → metadata và
// danh sách outlier "province, district, ward". Thứ tự key trong JSON được giữ nguyên.
func Parse(catalogJSON, outliersJSON []byte) (*Catalog, error) {
	c := &Catalog{
		districts: make(map[string][]string),
		wards:     make(map[string]map[string][]string),
		units:     make(map[string]json.RawMessage),
		outliers:  make(map[string]struct{}),
	}

	err := decodeOrderedObject(catalogJSON, func(province string, districtsRaw json.RawMessage) error {
		if _, dup := c.districts[province]; dup {
			return fmt.Errorf("%w: tỉnh %q", ErrDuplicateName, province)
		}
		c.provinces = append(c.provinces, province)
		c.districts[province] = []string{}
		c.wards[province] = make(map[string][]string)

		return decodeOrderedObject(districtsRaw, func(district string, wardsRaw json.RawMessage) error {
			if _, dup := c.wards[province][district]; dup {
				return fmt.Errorf("%w: %q thuộc %q", ErrDuplicateName, district, province)
			}
			c.districts[province] = append(c.districts[province], district)
			c.wards[province][district] = []string{}

			return decodeWards(wardsRaw, func(ward string, meta json.RawMessage) error {
				key := unitKey(province, district, ward)
				if _, dup := c.units[key]; dup {
					return fmt.Errorf("%w: %q thuộc %q, %q", ErrDuplicateName, ward, district, province)
				}
				c.wards[province][district] = append(c.wards[province][district], ward)
				c.units[key] = meta
				return nil
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("lỗi parse catalog: %w", err)
	}
	if len(c.provinces) == 0 {
		return nil, ErrEmptyCatalog
	}

	outliers, err := parseOutliers(outliersJSON)
	if err != nil {
		return nil, fmt.Errorf("lỗi parse outliers: %w", err)
	}
	for _, key := range outliers {
		c.outliers[key] = struct{}{}
	}

	h := sha256.New()
	h.Write(catalogJSON)
	h.Write(outliersJSON)
	c.version = hex.EncodeToString(h.Sum(nil))[:12]

	return c, nil
}

// decodeOrderedObject duyệt các cặp key/value của một JSON object theo đúng thứ tự
func decodeOrderedObject(data []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("cần JSON object, nhận %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("key không hợp lệ: %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("value của %q: %w", key, err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// decodeWards chấp nhận object ward → metadata hoặc mảng tên ward
func decodeWards(data []byte, fn func(ward string, meta json.RawMessage) error) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return err
		}
		for _, name := range names {
			if err := fn(name, nil); err != nil {
				return err
			}
		}
		return nil
	}
	return decodeOrderedObject(trimmed, fn)
}

func parseOutliers(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return list, nil
	}

	var keys []string
	err := decodeOrderedObject(trimmed, func(key string, _ json.RawMessage) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}
