package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// UnknownMarker giá trị legacy cho mọi trường không xác định được
const UnknownMarker = "Không xác định"

// Field kết quả của một trường hành chính: Resolved(value) hoặc Unresolved.
// Trên JSON/BSON, Unresolved được ghi thành UnknownMarker.
type Field struct {
	value string
	ok    bool
}

// Resolved tạo Field đã xác định. Chuỗi rỗng hoặc chính UnknownMarker vẫn là Unresolved.
func Resolved(value string) Field {
	if value == "" || value == UnknownMarker {
		return Field{}
	}
	return Field{value: value, ok: true}
}

// Unresolved trả về Field chưa xác định
func Unresolved() Field {
	return Field{}
}

// Get trả về giá trị và cờ đã xác định
func (f Field) Get() (string, bool) {
	return f.value, f.ok
}

// IsResolved kiểm tra trường đã xác định chưa
func (f Field) IsResolved() bool {
	return f.ok
}

// String trả về giá trị, hoặc UnknownMarker nếu chưa xác định
func (f Field) String() string {
	if !f.ok {
		return UnknownMarker
	}
	return f.value
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("field phải là chuỗi: %w", err)
	}
	*f = Resolved(s)
	return nil
}

func (f Field) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(f.String())
}

func (f *Field) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("field BSON phải là string, nhận %s", t)
	}
	*f = Resolved(s)
	return nil
}
