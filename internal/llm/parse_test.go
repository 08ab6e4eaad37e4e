package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected map[string]any
	}{
		{"plain", `{"ward": "Phường Bến Nghé"}`, map[string]any{"ward": "Phường Bến Nghé"}},
		{"trailing comma", `{"district": "Quận 1",}`, map[string]any{"district": "Quận 1"}},
		{"fenced", "```json\n{\"ward\": \"Phường 12\"}\n```", map[string]any{"ward": "Phường 12"}},
		{"fenced no label", "```\n{\"ward\": \"Phường 12\"}\n```", map[string]any{"ward": "Phường 12"}},
		{"single quotes", `{'province': 'Huế'}`, map[string]any{"province": "Huế"}},
		{"missing brace", `{"province": "Cần Thơ"`, map[string]any{"province": "Cần Thơ"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ParseObject(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestParseObject_Rejects(t *testing.T) {
	_, err := ParseObject("   ")
	assert.Error(t, err)

	_, err = ParseObject("null")
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = ParseObject(`[1, 2]`)
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestStringValue(t *testing.T) {
	out := map[string]any{"province": "Huế", "count": 3.0}

	v, ok := StringValue(out, "province")
	assert.True(t, ok)
	assert.Equal(t, "Huế", v)

	_, ok = StringValue(out, "count")
	assert.False(t, ok)
	_, ok = StringValue(out, "ward")
	assert.False(t, ok)
	_, ok = StringValue(nil, "ward")
	assert.False(t, ok)
}
