// Package prompt quản lý các template prompt gửi tới completion service.
//
// Mỗi template gồm ba phần: instruction, examples (few-shot, tuỳ chọn) và input.
// Bind điền giá trị vào các placeholder dạng {name} đã khai báo và trả về cả
// bản đầy đủ lẫn bản zero-shot (không có examples).
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Tên các template pipeline sử dụng
const (
	NameProvince         = "province"
	NameDistrict         = "district"
	NameWard             = "ward"
	NameDistrictWithWard = "district_with_ward"
	NameFullAddress      = "full_address_with_hint"
)

// RequiredNames các template bắt buộc phải có
var RequiredNames = []string{NameProvince, NameDistrict, NameWard, NameDistrictWithWard, NameFullAddress}

var (
	// ErrMissingPlaceholder thiếu giá trị cho placeholder đã khai báo
	ErrMissingPlaceholder = errors.New("thiếu giá trị cho placeholder")
	// ErrUndeclaredPlaceholder template dùng placeholder chưa khai báo
	ErrUndeclaredPlaceholder = errors.New("placeholder chưa được khai báo")
	// ErrTemplateNotFound không có template với tên yêu cầu
	ErrTemplateNotFound = errors.New("không tìm thấy template")
)

var placeholderPattern = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// MissingPlaceholderError lỗi khi Bind thiếu giá trị
type MissingPlaceholderError struct {
	Template    string
	Placeholder string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("template %q: thiếu giá trị cho {%s}", e.Template, e.Placeholder)
}

// Is cho phép errors.Is(err, ErrMissingPlaceholder)
func (e *MissingPlaceholderError) Is(target error) bool {
	return target == ErrMissingPlaceholder
}

// Template một prompt có schema placeholder
type Template struct {
	Name         string   `yaml:"name"`
	Placeholders []string `yaml:"placeholders"`
	Instruction  string   `yaml:"instruction"`
	Examples     string   `yaml:"examples,omitempty"`
	Input        string   `yaml:"input"`
}

// Prompt kết quả sau khi Bind
type Prompt struct {
	Full     string
	ZeroShot string
}

// Validate kiểm tra mọi placeholder xuất hiện trong nội dung đều đã được khai báo
func (t *Template) Validate() error {
	if t.Name == "" {
		return errors.New("template thiếu name")
	}
	declared := make(map[string]struct{}, len(t.Placeholders))
	for _, p := range t.Placeholders {
		declared[p] = struct{}{}
	}
	for _, part := range []string{t.Instruction, t.Examples, t.Input} {
		for _, m := range placeholderPattern.FindAllStringSubmatch(part, -1) {
			if _, ok := declared[m[1]]; !ok {
				return fmt.Errorf("template %q: {%s}: %w", t.Name, m[1], ErrUndeclaredPlaceholder)
			}
		}
	}
	return nil
}

// Bind điền values vào template. Mọi placeholder đã khai báo phải có giá trị;
// giá trị thừa bị bỏ qua. Việc thay thế chỉ chạy một lượt nên giá trị chứa
// "{...}" không bị thay tiếp.
func (t *Template) Bind(values map[string]string) (Prompt, error) {
	pairs := make([]string, 0, len(t.Placeholders)*2)
	for _, p := range t.Placeholders {
		v, ok := values[p]
		if !ok {
			return Prompt{}, &MissingPlaceholderError{Template: t.Name, Placeholder: p}
		}
		pairs = append(pairs, "{"+p+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	instruction := strings.TrimSpace(r.Replace(t.Instruction))
	input := strings.TrimSpace(r.Replace(t.Input))
	zeroShot := instruction + "\n" + input

	full := zeroShot
	if examples := strings.TrimSpace(r.Replace(t.Examples)); examples != "" {
		full = instruction + "\n" + examples + "\n" + input
	}
	return Prompt{Full: full, ZeroShot: zeroShot}, nil
}

// Set tập template theo tên
type Set struct {
	templates map[string]*Template
}

// NewSet tạo Set từ danh sách template, template sau ghi đè template trước cùng tên
func NewSet(templates ...*Template) (*Set, error) {
	s := &Set{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		s.templates[t.Name] = t
	}
	return s, nil
}

// Get lấy template theo tên
func (s *Set) Get(name string) (*Template, error) {
	t, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return t, nil
}

// Names danh sách tên template đã sắp xếp
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require kiểm tra Set có đủ các template cần thiết
func (s *Set) Require(names ...string) error {
	for _, name := range names {
		if _, err := s.Get(name); err != nil {
			return err
		}
	}
	return nil
}
