package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/catalog"
	"github.com/address-cleaner/internal/matcher"
	"github.com/address-cleaner/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCompleter trả lời theo tên stage ở dòng đầu prompt "[stage]"
type stubCompleter struct {
	mu      sync.Mutex
	replies map[string]map[string]any
	calls   map[string]int
}

func newStubCompleter(replies map[string]map[string]any) *stubCompleter {
	return &stubCompleter{replies: replies, calls: map[string]int{}}
}

func (s *stubCompleter) Complete(_ context.Context, p string) map[string]any {
	stage := strings.TrimSuffix(strings.TrimPrefix(strings.SplitN(p, "\n", 2)[0], "["), "]")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[stage]++

	out := map[string]any{}
	for k, v := range s.replies[stage] {
		out[k] = v
	}
	return out
}

func (s *stubCompleter) count(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stage]
}

func (s *stubCompleter) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

type stubGeocoder struct {
	mu     sync.Mutex
	answer models.Field
	calls  int
}

func (g *stubGeocoder) ProvinceFromGeocode(context.Context, string) models.Field {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.answer
}

func stageTemplate(name string, placeholders ...string) *prompt.Template {
	lines := make([]string, len(placeholders))
	for i, p := range placeholders {
		lines[i] = p + "={" + p + "}"
	}
	return &prompt.Template{
		Name:         name,
		Placeholders: placeholders,
		Instruction:  "[" + name + "]",
		Examples:     "few-shot",
		Input:        strings.Join(lines, "\n"),
	}
}

func testTemplates(t *testing.T, overrides ...*prompt.Template) *prompt.Set {
	t.Helper()
	templates := []*prompt.Template{
		stageTemplate(prompt.NameProvince, "province_list_str", "raw_address"),
		stageTemplate(prompt.NameDistrict, "num_district", "province", "district_list_str", "raw_address"),
		stageTemplate(prompt.NameWard, "num_ward", "district", "ward_list_str", "raw_address"),
		stageTemplate(prompt.NameDistrictWithWard, "num_district_ward", "province", "district_ward_list_str", "raw_address"),
		stageTemplate(prompt.NameFullAddress, "province", "district", "ward", "dirty_address"),
	}
	set, err := prompt.NewSet(append(templates, overrides...)...)
	require.NoError(t, err)
	return set
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load("../catalog/testdata/province_district_ward.json", "../catalog/testdata/outliers_province_district_ward.json")
	require.NoError(t, err)
	return c
}

func newTestCleaner(t *testing.T, completer *stubCompleter, geocoder *stubGeocoder, templates ...*prompt.Template) *Cleaner {
	t.Helper()
	cfg := Config{Scorer: matcher.DefaultScorer(), SuggestionLimit: 3}
	c, err := New(testCatalog(t), completer, geocoder, testTemplates(t, templates...), cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	return c
}

var fullAddressReply = map[string]any{
	"vi_address": "123 Nguyễn Huệ, Phường Bến Nghé, Quận 1, Thành phố Hồ Chí Minh",
	"en_address": "123 Nguyen Hue Street, Ben Nghe Ward, District 1, Ho Chi Minh City",
}

func TestResolve_HoChiMinhEndToEnd(t *testing.T) {
	completer := newStubCompleter(map[string]map[string]any{
		prompt.NameProvince:    {"province": "Hồ Chí Minh"},
		prompt.NameDistrict:    {"district": "Quận 1"},
		prompt.NameWard:        {"ward": "Bến Nghé"},
		prompt.NameFullAddress: fullAddressReply,
	})
	geocoder := &stubGeocoder{}
	cleaner := newTestCleaner(t, completer, geocoder)

	ra := cleaner.Resolve(context.Background(), "  123 Nguyễn Huệ,\tQuận 1,  Hồ Chí Minh ")

	assert.Equal(t, "123 Nguyễn Huệ, Quận 1, Hồ Chí Minh", ra.Raw)
	assert.Equal(t, "Thành phố Hồ Chí Minh", ra.ProvinceName().String())
	assert.Equal(t, models.SourceModel, ra.Province.Source)
	assert.Equal(t, models.QualityGood, ra.Province.Quality)

	assert.Equal(t, "Quận 1", ra.DistrictName().String())
	assert.Equal(t, "Phường Bến Nghé", ra.WardName().String())
	assert.Nil(t, ra.DistrictWard)

	require.NotNil(t, ra.FullAddress)
	assert.Equal(t, models.QualityGood, ra.FullAddress.Quality)
	assert.Equal(t, fullAddressReply["vi_address"], ra.FullAddress.Field(models.KeyViAddress).String())

	assert.Equal(t, 0, geocoder.calls)
	assert.Equal(t, 4, completer.total())
}

func TestResolve_StageBindings(t *testing.T) {
	completer := newStubCompleter(map[string]map[string]any{
		prompt.NameProvince: {"province": "Hồ Chí Minh"},
		prompt.NameDistrict: {"district": "Quận 1"},
		prompt.NameWard:     {"ward": "Phường Tân Định"},
	})
	cleaner := newTestCleaner(t, completer, &stubGeocoder{})

	ra := cleaner.Resolve(context.Background(), "Tân Định, Q1")

	assert.Equal(t, "Hồ Chí Minh, Hà Nội, Long An, Tiền Giang", ra.Province.Bindings["province_list_str"])
	assert.Equal(t, map[string]string{
		"num_district":      "3",
		"province":          "Hồ Chí Minh",
		"district_list_str": "Quận 1, Quận 10, Huyện Củ Chi",
		"raw_address":       "Tân Định, Q1",
	}, ra.District.Bindings)
	assert.Equal(t, "3", ra.Ward.Bindings["num_ward"])
	assert.Equal(t, "Quận 1", ra.Ward.Bindings["district"])

	full := ra.FullAddress.Bindings
	assert.Equal(t, "Thành phố Hồ Chí Minh", full["province"])
	assert.Equal(t, "Phường Tân Định", full["ward"])
	assert.Equal(t, "Tân Định, Q1", full["dirty_address"])

	assert.True(t, strings.HasPrefix(ra.District.Prompt, "[district]\nfew-shot\n"))
	assert.NotContains(t, ra.District.ZeroShotPrompt, "few-shot")
}

func TestResolve_ShortCircuitWhenProvinceUnknown(t *testing.T) {
	completer := newStubCompleter(map[string]map[string]any{
		prompt.NameProvince: {"province": models.UnknownMarker},
	})
	geocoder := &stubGeocoder{answer: models.Unresolved()}
	cleaner := newTestCleaner(t, completer, geocoder)

	ra := cleaner.Resolve(context.Background(), "somewhere far away")

	require.NotNil(t, ra.Province)
	assert.False(t, ra.ProvinceName().IsResolved())
	assert.Equal(t, models.QualityFalse, ra.Province.Quality)
	assert.Equal(t, models.SourceGeocode, ra.Province.Source)
	assert.Nil(t, ra.District)
	assert.Nil(t, ra.Ward)
	assert.Nil(t, ra.DistrictWard)
	assert.Nil(t, ra.FullAddress)

	assert.Equal(t, 1, completer.count(prompt.NameProvince))
	assert.Equal(t, 1, completer.total())
	assert.Equal(t, 1, geocoder.calls)
	assert.Equal(t, models.QualityFalse, ra.Summarize().Quality)
}

func TestResolve_GeocodeFallback(t *testing.T) {
	testCases := []struct {
		name     string
		model    map[string]any
		geocode  string
		expected string
	}{
		{"model unknown", map[string]any{"province": models.UnknownMarker}, "Thành phố Hà Nội", "Thành phố Hà Nội"},
		{"model empty", map[string]any{}, "Long An", "Tỉnh Long An"},
		{"model not in catalog", map[string]any{"province": "Bình Dương"}, "Tiền Giang", "Tỉnh Tiền Giang"},
		{"model wrong type", map[string]any{"province": 42.0}, "Ha Noi", "Thành phố Hà Nội"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			completer := newStubCompleter(map[string]map[string]any{prompt.NameProvince: tc.model})
			geocoder := &stubGeocoder{answer: models.Resolved(tc.geocode)}
			cleaner := newTestCleaner(t, completer, geocoder)

			ra := cleaner.Resolve(context.Background(), "x")

			assert.Equal(t, tc.expected, ra.ProvinceName().String())
			assert.Equal(t, models.SourceGeocode, ra.Province.Source)
			assert.Equal(t, 1, geocoder.calls)
			assert.NotNil(t, ra.FullAddress)
		})
	}
}

func TestResolve_GeocodeAnswerOutsideCatalog(t *testing.T) {
	completer := newStubCompleter(nil)
	geocoder := &stubGeocoder{answer: models.Resolved("Bình Dương")}
	cleaner := newTestCleaner(t, completer, geocoder)

	ra := cleaner.Resolve(context.Background(), "x")

	assert.False(t, ra.ProvinceName().IsResolved())
	assert.Nil(t, ra.District)
}

func TestApplyProvinceHonorific(t *testing.T) {
	for _, city := range []string{"Hồ Chí Minh", "Hà Nội", "Hải Phòng", "Huế", "Cần Thơ", "Đà Nẵng"} {
		assert.Equal(t, "Thành phố "+city, ApplyProvinceHonorific(models.Resolved(city)).String())
	}
	for _, province := range []string{"Long An", "Tiền Giang", "Thừa Thiên Huế"} {
		assert.Equal(t, "Tỉnh "+province, ApplyProvinceHonorific(models.Resolved(province)).String())
	}
	assert.False(t, ApplyProvinceHonorific(models.Unresolved()).IsResolved())
	assert.Equal(t, models.UnknownMarker, ApplyProvinceHonorific(models.Unresolved()).String())
}

func TestResolve_DistrictWardFallback(t *testing.T) {
	testCases := []struct {
		name         string
		reply        map[string]any
		district     string
		ward         string
		resolved     bool
		fullQuality  models.Quality
		hasSuggested bool
	}{
		{"valid pair", map[string]any{"district": "Quận 10", "ward": "Phường 12"}, "Quận 10", "Phường 12", true, models.QualityGood, false},
		{"cross pair", map[string]any{"district": "Quận 1", "ward": "Phường 12"}, "", "", false, models.QualityFalse, true},
		{"outlier", map[string]any{"district": "Quận 1", "ward": "Phường Đa Kao"}, "", "", false, models.QualityFalse, true},
		{"fuzzy spelling", map[string]any{"district": "quận 10", "ward": "Phường 12"}, "", "", false, models.QualityFalse, true},
		{"only district", map[string]any{"district": "Quận 10"}, "", "", false, models.QualityFalse, false},
		{"empty", map[string]any{}, "", "", false, models.QualityFalse, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			completer := newStubCompleter(map[string]map[string]any{
				prompt.NameProvince:         {"province": "Hồ Chí Minh"},
				prompt.NameDistrict:         {"district": "Quận 99"},
				prompt.NameDistrictWithWard: tc.reply,
				prompt.NameFullAddress:      fullAddressReply,
			})
			cleaner := newTestCleaner(t, completer, &stubGeocoder{})

			ra := cleaner.Resolve(context.Background(), "Phường 12, TPHCM")

			assert.False(t, ra.District.Field(models.KeyDistrict).IsResolved())
			assert.Nil(t, ra.Ward)
			require.NotNil(t, ra.DistrictWard)
			assert.Equal(t, 0, completer.count(prompt.NameWard))

			district, dok := ra.DistrictName().Get()
			ward, wok := ra.WardName().Get()
			assert.Equal(t, tc.resolved, dok)
			assert.Equal(t, tc.resolved, wok, "district và ward phải cùng xác định hoặc cùng không")
			assert.Equal(t, tc.district, district)
			assert.Equal(t, tc.ward, ward)

			require.NotNil(t, ra.FullAddress)
			assert.Equal(t, tc.fullQuality, ra.FullAddress.Quality)
			assert.Equal(t, tc.hasSuggested, len(ra.DistrictWard.Suggestions) > 0)
		})
	}
}

func TestResolve_DistrictWardListFormat(t *testing.T) {
	completer := newStubCompleter(map[string]map[string]any{
		prompt.NameProvince: {"province": "Hà Nội"},
	})
	cleaner := newTestCleaner(t, completer, &stubGeocoder{})

	ra := cleaner.Resolve(context.Background(), "Hà Nội")

	require.NotNil(t, ra.DistrictWard)
	assert.Equal(t, "3", ra.DistrictWard.Bindings["num_district_ward"])
	assert.Equal(t,
		"Phường Điện Biên, Quận Ba Đình\n- Phường Kim Mã, Quận Ba Đình\n- Phường Bồ Đề, Quận Long Biên",
		ra.DistrictWard.Bindings["district_ward_list_str"])
	assert.Equal(t, models.UnknownMarker, ra.FullAddress.Bindings["district"])
	assert.Equal(t, models.UnknownMarker, ra.FullAddress.Bindings["ward"])
}

func TestResolve_WardSuggestions(t *testing.T) {
	completer := newStubCompleter(map[string]map[string]any{
		prompt.NameProvince: {"province": "Hồ Chí Minh"},
		prompt.NameDistrict: {"district": "Quận 1"},
		prompt.NameWard:     {"ward": "Bến Nge"},
	})
	cleaner := newTestCleaner(t, completer, &stubGeocoder{})

	ra := cleaner.Resolve(context.Background(), "Bến Nge Q1")

	require.NotNil(t, ra.Ward)
	assert.False(t, ra.WardName().IsResolved())
	assert.Equal(t, models.QualityFalse, ra.Ward.Quality)
	require.NotEmpty(t, ra.Ward.Suggestions)
	assert.Equal(t, "Phường Bến Nghé", ra.Ward.Suggestions[0])
	assert.Equal(t, models.QualityFalse, ra.FullAddress.Quality)
}

func TestResolve_Idempotent(t *testing.T) {
	completer := newStubCompleter(map[string]map[string]any{
		prompt.NameProvince:    {"province": "Long An"},
		prompt.NameDistrict:    {"district": "Thành phố Tân An"},
		prompt.NameWard:        {"ward": "Xã An Vĩnh Ngãi"},
		prompt.NameFullAddress: {"vi_address": "Xã An Vĩnh Ngãi, Thành phố Tân An, Tỉnh Long An", "en_address": "An Vinh Ngai Commune, Tan An City, Long An Province"},
	})
	cleaner := newTestCleaner(t, completer, &stubGeocoder{})

	first := cleaner.Resolve(context.Background(), "xã An Vĩnh Ngãi, TP Tân An")
	second := cleaner.Resolve(context.Background(), "xã An Vĩnh Ngãi, TP Tân An")

	assert.Equal(t, first, second)
	assert.Equal(t, "Tỉnh Long An", first.ProvinceName().String())
	assert.Equal(t, "Xã An Vĩnh Ngãi", first.WardName().String())
}

func TestResolve_BindFailureIsData(t *testing.T) {
	brokenWard := stageTemplate(prompt.NameWard, "num_ward", "district", "ward_list_str", "raw_address", "landmark")
	completer := newStubCompleter(map[string]map[string]any{
		prompt.NameProvince:    {"province": "Hồ Chí Minh"},
		prompt.NameDistrict:    {"district": "Quận 1"},
		prompt.NameWard:        {"ward": "Phường Bến Nghé"},
		prompt.NameFullAddress: fullAddressReply,
	})
	cleaner := newTestCleaner(t, completer, &stubGeocoder{}, brokenWard)

	ra := cleaner.Resolve(context.Background(), "Q1")

	require.NotNil(t, ra.Ward)
	assert.Contains(t, ra.Ward.Error, "landmark")
	assert.Empty(t, ra.Ward.Prompt)
	assert.Equal(t, models.QualityFalse, ra.Ward.Quality)
	assert.Equal(t, 0, completer.count(prompt.NameWard))

	require.NotNil(t, ra.FullAddress)
	assert.Equal(t, models.QualityFalse, ra.FullAddress.Quality)
}

func TestNew_Validation(t *testing.T) {
	cat := testCatalog(t)
	cfg := DefaultConfig()

	_, err := New(nil, newStubCompleter(nil), &stubGeocoder{}, testTemplates(t), cfg, nil, nil)
	assert.Error(t, err)

	partial, err := prompt.NewSet(stageTemplate(prompt.NameProvince, "raw_address"))
	require.NoError(t, err)
	_, err = New(cat, newStubCompleter(nil), &stubGeocoder{}, partial, cfg, nil, nil)
	assert.ErrorIs(t, err, prompt.ErrTemplateNotFound)

	c, err := New(cat, newStubCompleter(nil), &stubGeocoder{}, testTemplates(t), cfg, nil, nil)
	require.NoError(t, err)
	assert.Same(t, cat, c.Catalog())
}
