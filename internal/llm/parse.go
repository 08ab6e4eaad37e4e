package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNotObject output parse được nhưng không phải JSON object
var ErrNotObject = errors.New("output không phải JSON object")

// ParseObject bỏ code fence Markdown, parse JSON object; nếu hỏng thì sửa
// bằng jsonrepair (dấu phẩy thừa, nháy đơn, ngoặc thiếu...) rồi parse lại.
func ParseObject(text string) (map[string]any, error) {
	cleaned := stripCodeFence(text)
	if cleaned == "" {
		return nil, errEmptyText
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		if out == nil {
			return nil, ErrNotObject
		}
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return nil, fmt.Errorf("json repair: %w", err)
	}
	var value any
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		return nil, fmt.Errorf("decode repaired json: %w", err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// stripCodeFence bỏ ```json ... ``` bao quanh câu trả lời
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// bỏ nhãn ngôn ngữ như "json"
		if !strings.ContainsAny(s[:i], "{[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// StringValue lấy giá trị chuỗi của key; không có hoặc không phải chuỗi thì ok=false
func StringValue(out map[string]any, key string) (string, bool) {
	v, ok := out[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}
