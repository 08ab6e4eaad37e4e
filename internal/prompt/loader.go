package prompt

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/templates.yaml
var defaultTemplatesYAML []byte

type templateFile struct {
	Templates []*Template `yaml:"templates"`
}

func parse(data []byte) ([]*Template, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Templates, nil
}

// LoadDefaults load các template nhúng sẵn
func LoadDefaults() (*Set, error) {
	templates, err := parse(defaultTemplatesYAML)
	if err != nil {
		return nil, fmt.Errorf("lỗi parse template mặc định: %w", err)
	}
	return NewSet(templates...)
}

// Load load template mặc định rồi ghi đè bằng file override (nếu có).
// Kết quả luôn phải đủ RequiredNames.
func Load(overridePath string) (*Set, error) {
	templates, err := parse(defaultTemplatesYAML)
	if err != nil {
		return nil, fmt.Errorf("lỗi parse template mặc định: %w", err)
	}

	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("không đọc được template %s: %w", overridePath, err)
		}
		overrides, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("lỗi parse template %s: %w", overridePath, err)
		}
		templates = append(templates, overrides...)
	}

	set, err := NewSet(templates...)
	if err != nil {
		return nil, err
	}
	if err := set.Require(RequiredNames...); err != nil {
		return nil, err
	}
	return set, nil
}
