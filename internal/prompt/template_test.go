package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplate() *Template {
	return &Template{
		Name:         "greet",
		Placeholders: []string{"name", "city"},
		Instruction:  "Chào {name}.",
		Examples:     "Ví dụ: {city}",
		Input:        "Địa chỉ: {name}, {city}",
	}
}

func TestBind_FullAndZeroShot(t *testing.T) {
	p, err := testTemplate().Bind(map[string]string{"name": "An", "city": "Huế"})
	require.NoError(t, err)

	assert.Equal(t, "Chào An.\nVí dụ: Huế\nĐịa chỉ: An, Huế", p.Full)
	assert.Equal(t, "Chào An.\nĐịa chỉ: An, Huế", p.ZeroShot)
}

func TestBind_NoExamples(t *testing.T) {
	tpl := testTemplate()
	tpl.Examples = ""

	p, err := tpl.Bind(map[string]string{"name": "An", "city": "Huế"})
	require.NoError(t, err)
	assert.Equal(t, p.Full, p.ZeroShot)
}

func TestBind_MissingPlaceholder(t *testing.T) {
	_, err := testTemplate().Bind(map[string]string{"name": "An"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrMissingPlaceholder))

	var mpe *MissingPlaceholderError
	require.ErrorAs(t, err, &mpe)
	assert.Equal(t, "greet", mpe.Template)
	assert.Equal(t, "city", mpe.Placeholder)
}

func TestBind_ValuesAreNotReexpanded(t *testing.T) {
	p, err := testTemplate().Bind(map[string]string{"name": "{city}", "city": "Huế"})
	require.NoError(t, err)
	assert.Equal(t, "Chào {city}.\nĐịa chỉ: {city}, Huế", p.ZeroShot)
}

func TestValidate_UndeclaredPlaceholder(t *testing.T) {
	tpl := testTemplate()
	tpl.Input = "{raw_address}"

	assert.ErrorIs(t, tpl.Validate(), ErrUndeclaredPlaceholder)
}

func TestValidate_IgnoresJSONBraces(t *testing.T) {
	tpl := &Template{Name: "json", Instruction: `Trả về {"province": "X"}`}
	assert.NoError(t, tpl.Validate())
}

func TestLoadDefaults(t *testing.T) {
	set, err := LoadDefaults()
	require.NoError(t, err)
	require.NoError(t, set.Require(RequiredNames...))

	tpl, err := set.Get(NameDistrictWithWard)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"num_district_ward", "province", "district_ward_list_str", "raw_address"},
		tpl.Placeholders)

	p, err := tpl.Bind(map[string]string{
		"num_district_ward":      "2",
		"province":               "Hà Nội",
		"district_ward_list_str": "Phường Kim Mã, Quận Ba Đình\n- Phường Bồ Đề, Quận Long Biên",
		"raw_address":            "ngõ 5 Kim Mã",
	})
	require.NoError(t, err)
	assert.Contains(t, p.Full, "ngõ 5 Kim Mã")
	assert.Contains(t, p.ZeroShot, "- Phường Bồ Đề, Quận Long Biên")
	assert.NotContains(t, p.ZeroShot, "Ví dụ")
	assert.Contains(t, p.Full, "Ví dụ")
}

func TestLoad_Override(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	content := strings.Join([]string{
		"templates:",
		"  - name: province",
		"    placeholders: [raw_address]",
		"    instruction: Tỉnh nào?",
		"    input: '{raw_address}'",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := Load(path)
	require.NoError(t, err)

	tpl, err := set.Get(NameProvince)
	require.NoError(t, err)
	p, err := tpl.Bind(map[string]string{"raw_address": "Huế"})
	require.NoError(t, err)
	assert.Equal(t, "Tỉnh nào?\nHuế", p.Full)

	_, err = set.Get(NameWard)
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	set, err := NewSet(testTemplate())
	require.NoError(t, err)
	_, err = set.Get("unknown")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Equal(t, []string{"greet"}, set.Names())
}
