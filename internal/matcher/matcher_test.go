package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchWard_LongestFirst(t *testing.T) {
	got := MatchWard("phường Tân An", []string{"Phường An", "Phường Tân An"})

	v, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "Phường Tân An", v)
}

func TestMatchWard_NumberedWards(t *testing.T) {
	wards := []string{"Phường 1", "Phường 12"}

	assert.Equal(t, "Phường 12", MatchWard("Phường 12", wards).String())
	assert.Equal(t, "Phường 1", MatchWard("P. 1", wards).String())
}

func TestMatchDistrict(t *testing.T) {
	districts := []string{"Quận 1", "Quận 10", "Huyện Củ Chi"}

	testCases := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{"exact", "Quận 1", "Quận 1", true},
		{"longer number wins", "quan 10", "Quận 10", true},
		{"no accents", "huyen cu chi", "Huyện Củ Chi", true},
		{"other honorific", "Thị xã Củ Chi", "Huyện Củ Chi", true},
		{"unknown", "Quận Ba Đình", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := MatchDistrict(tc.raw, districts).Get()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestMatch_SkipsEmptyCandidates(t *testing.T) {
	got := MatchDistrict("Quận Gò Vấp", []string{"Quận ", "Quận Gò Vấp"})
	assert.Equal(t, "Quận Gò Vấp", got.String())
}

func TestMatchProvince(t *testing.T) {
	provinces := []string{"Hồ Chí Minh", "Hà Nội", "Long An", "Tiền Giang"}

	testCases := []struct {
		raw      string
		expected string
		ok       bool
	}{
		{"Hồ Chí Minh", "Hồ Chí Minh", true},
		{"ho chi minh", "Hồ Chí Minh", true},
		{"Thành phố Hà Nội", "Hà Nội", true},
		{"Tỉnh Long An", "Long An", true},
		{"Bình Dương", "", false},
		{"  ", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			v, ok := MatchProvince(tc.raw, provinces).Get()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestMatchProvince_ExactBeforeSubstring(t *testing.T) {
	// "An" là chuỗi con của "Long An" nhưng khớp chính xác phải thắng
	provinces := []string{"Long An", "An"}
	assert.Equal(t, "An", MatchProvince("an", provinces).String())
	assert.Equal(t, "Long An", MatchProvince("tinh long an", provinces).String())
}

func TestStripHonorific(t *testing.T) {
	assert.Equal(t, "Củ Chi", StripHonorific("Huyện Củ Chi", DistrictHonorifics()))
	assert.Equal(t, "Tân An", StripHonorific("Thành phố Tân An", DistrictHonorifics()))
	assert.Equal(t, "Tầm Vu", StripHonorific("Thị trấn Tầm Vu", WardHonorifics()))
	assert.Equal(t, "Bến Nghé", StripHonorific("Bến Nghé", WardHonorifics()))
}

func TestHonorifics_ReturnCopies(t *testing.T) {
	list := DistrictHonorifics()
	list[0] = "Ấp "
	assert.Equal(t, "Huyện ", DistrictHonorifics()[0])
	assert.Equal(t, "Huyện Củ Chi", MatchDistrict("huyen cu chi", []string{"Huyện Củ Chi"}).String())
}

func TestRank(t *testing.T) {
	s := DefaultScorer()
	wards := []string{"Phường Bến Nghé", "Phường Tân Định", "Phường Đa Kao"}

	got := s.Rank("Ben Nghe", wards, WardHonorifics(), 2)
	require.NotEmpty(t, got)
	assert.Equal(t, "Phường Bến Nghé", got[0].Name)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.LessOrEqual(t, len(got), 2)

	assert.Nil(t, s.Rank("", wards, WardHonorifics(), 3))
	assert.Nil(t, s.Rank("Ben Nghe", wards, WardHonorifics(), 0))
}

func TestSimilarity_Bounds(t *testing.T) {
	s := DefaultScorer()

	assert.InDelta(t, 1.0, s.Similarity("tan dinh", "tan dinh"), 1e-9)
	assert.Zero(t, s.Similarity("", "tan dinh"))

	score := s.Similarity("tan dinh", "tan dnh")
	assert.Greater(t, score, 0.8)
	assert.Less(t, score, 1.0)
}

func TestMatchProvince_StrippedExactBeatsCatalogOrder(t *testing.T) {
	// catalog order đặt "An" trước, nhưng bỏ tiền tố "Tỉnh " thì khớp chính xác "Long An"
	provinces := []string{"An", "Long An"}
	assert.Equal(t, "Long An", MatchProvince("Tỉnh Long An", provinces).String())
	assert.Equal(t, "An", MatchProvince("huyện Long An xưa", provinces).String())
}
