// Package pipeline chạy chuỗi stage làm sạch một địa chỉ:
// province → district → (ward | district+ward) → full address.
//
// Mỗi stage gọi completion service một lần, đối chiếu kết quả với catalog và
// trả về một ResolutionRecord bất biến. Lỗi của một stage là dữ liệu
// (Unresolved, quality False), không bao giờ là panic hay error trả ra ngoài.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/catalog"
	"github.com/address-cleaner/internal/geocode"
	"github.com/address-cleaner/internal/llm"
	"github.com/address-cleaner/internal/matcher"
	"github.com/address-cleaner/internal/metrics"
	"github.com/address-cleaner/internal/normalizer"
	"github.com/address-cleaner/internal/prompt"
	"go.uber.org/zap"
)

// Config tham số của Cleaner
type Config struct {
	// StageDelay nghỉ sau stage district và sau stage ward/district+ward
	StageDelay time.Duration
	Scorer     matcher.Scorer
	// SuggestionLimit số gợi ý tối đa cho stage không khớp, 0 thì tắt
	SuggestionLimit int
}

// DefaultConfig cấu hình mặc định
func DefaultConfig() Config {
	return Config{
		StageDelay:      2 * time.Second,
		Scorer:          matcher.DefaultScorer(),
		SuggestionLimit: 3,
	}
}

// Cleaner pipeline làm sạch địa chỉ. Một Cleaner dùng chung được cho nhiều
// goroutine: catalog và templates chỉ đọc, completer/geocoder tự đồng bộ.
type Cleaner struct {
	catalog   *catalog.Catalog
	completer llm.Completer
	geocoder  geocode.Geocoder
	templates *prompt.Set
	cfg       Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New tạo mới Cleaner
func New(
	cat *catalog.Catalog,
	completer llm.Completer,
	geocoder geocode.Geocoder,
	templates *prompt.Set,
	cfg Config,
	logger *zap.Logger,
	m *metrics.Metrics,
) (*Cleaner, error) {
	if cat == nil {
		return nil, fmt.Errorf("pipeline: thiếu catalog")
	}
	if completer == nil || geocoder == nil {
		return nil, fmt.Errorf("pipeline: thiếu completer hoặc geocoder")
	}
	if templates == nil {
		return nil, fmt.Errorf("pipeline: thiếu templates")
	}
	if err := templates.Require(prompt.RequiredNames...); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{
		catalog:   cat,
		completer: completer,
		geocoder:  geocoder,
		templates: templates,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}, nil
}

// Catalog catalog đang dùng
func (c *Cleaner) Catalog() *catalog.Catalog {
	return c.catalog
}

// Resolve chạy toàn bộ pipeline cho một địa chỉ thô
func (c *Cleaner) Resolve(ctx context.Context, raw string) *models.ResolvedAddress {
	start := time.Now()
	defer c.metrics.ObserveResolve(start)

	query := normalizer.CleanQuery(raw)
	ra := &models.ResolvedAddress{Raw: query}

	var province models.Field
	ra.Province, province = c.resolveProvince(ctx, query)
	bare, ok := province.Get()
	if !ok {
		c.logger.Info("Không xác định được tỉnh, dừng pipeline",
			zap.String("address", query),
			zap.Duration("elapsed", time.Since(start)))
		return ra
	}

	var district models.Field
	ra.District, district = c.resolveDistrict(ctx, query, bare)
	c.pause(ctx)

	if name, ok := district.Get(); ok {
		ra.Ward = c.resolveWard(ctx, query, bare, name)
	} else {
		ra.DistrictWard = c.resolveDistrictWard(ctx, query, bare)
	}
	c.pause(ctx)

	ra.FullAddress = c.resolveFullAddress(ctx, query, ra)

	c.logger.Info("Đã làm sạch địa chỉ",
		zap.String("address", query),
		zap.String("province", ra.ProvinceName().String()),
		zap.String("district", ra.DistrictName().String()),
		zap.String("ward", ra.WardName().String()),
		zap.String("quality", string(ra.FullAddress.Quality)),
		zap.Duration("elapsed", time.Since(start)))
	return ra
}

// resolveProvince trả về record (tỉnh có tiền tố) và tên tỉnh trần trong catalog
func (c *Cleaner) resolveProvince(ctx context.Context, query string) (*models.ResolutionRecord, models.Field) {
	provinces := c.catalog.Provinces()
	rec := c.ask(ctx, prompt.NameProvince, map[string]string{
		"province_list_str": strings.Join(provinces, ", "),
		"raw_address":       query,
	})

	answer := answerOf(rec, models.KeyProvince)
	province := matchProvince(answer, provinces)
	rec.Source = models.SourceModel

	if !province.IsResolved() {
		rec.Source = models.SourceGeocode
		geo := c.geocoder.ProvinceFromGeocode(ctx, query)
		province = matchProvince(geo, provinces)
		if !province.IsResolved() {
			rec.Suggestions = c.suggest(answer, provinces, matcher.ProvinceHonorifics())
		}
	}

	rec.Output = map[string]models.Field{models.KeyProvince: ApplyProvinceHonorific(province)}
	c.finish(rec, province)
	return rec, province
}

func (c *Cleaner) resolveDistrict(ctx context.Context, query, province string) (*models.ResolutionRecord, models.Field) {
	districts := c.catalog.Districts(province)
	rec := c.ask(ctx, prompt.NameDistrict, map[string]string{
		"num_district":      strconv.Itoa(len(districts)),
		"province":          province,
		"district_list_str": strings.Join(districts, ", "),
		"raw_address":       query,
	})

	answer := answerOf(rec, models.KeyDistrict)
	district := models.Unresolved()
	if v, ok := answer.Get(); ok {
		district = matcher.MatchDistrict(v, districts)
		if !district.IsResolved() {
			rec.Suggestions = c.suggest(answer, districts, matcher.DistrictHonorifics())
		}
	}

	rec.Output = map[string]models.Field{models.KeyDistrict: district}
	c.finish(rec, district)
	return rec, district
}

func (c *Cleaner) resolveWard(ctx context.Context, query, province, district string) *models.ResolutionRecord {
	wards := c.catalog.Wards(province, district)
	rec := c.ask(ctx, prompt.NameWard, map[string]string{
		"num_ward":      strconv.Itoa(len(wards)),
		"district":      district,
		"ward_list_str": strings.Join(wards, ", "),
		"raw_address":   query,
	})

	answer := answerOf(rec, models.KeyWard)
	ward := models.Unresolved()
	if v, ok := answer.Get(); ok {
		ward = matcher.MatchWard(v, wards)
		if !ward.IsResolved() {
			rec.Suggestions = c.suggest(answer, wards, matcher.WardHonorifics())
		}
	}

	rec.Output = map[string]models.Field{models.KeyWard: ward}
	c.finish(rec, ward)
	return rec
}

// resolveDistrictWard hỏi đồng thời district và ward trong danh sách "ward, district"
// của cả tỉnh. Cặp trả về phải có đúng trong catalog và không nằm trong outlier,
// nếu không cả hai đều Unresolved.
func (c *Cleaner) resolveDistrictWard(ctx context.Context, query, province string) *models.ResolutionRecord {
	pairs := c.catalog.Pairs(province)
	items := make([]string, len(pairs))
	for i, p := range pairs {
		items[i] = p.String()
	}

	rec := c.ask(ctx, prompt.NameDistrictWithWard, map[string]string{
		"num_district_ward":      strconv.Itoa(len(items)),
		"province":               province,
		"district_ward_list_str": strings.Join(items, "\n- "),
		"raw_address":            query,
	})

	district, ward := models.Unresolved(), models.Unresolved()
	d, dok := answerOf(rec, models.KeyDistrict).Get()
	w, wok := answerOf(rec, models.KeyWard).Get()
	if dok && wok {
		if c.catalog.IsKnownCombination(province, d, w) {
			district, ward = models.Resolved(d), models.Resolved(w)
		} else {
			c.logger.Debug("Tổ hợp district/ward không hợp lệ",
				zap.String("province", province),
				zap.String("district", d),
				zap.String("ward", w))
			rec.Suggestions = c.suggest(models.Resolved(catalog.Pair{District: d, Ward: w}.String()),
				c.validPairs(province, pairs), nil)
		}
	}

	rec.Output = map[string]models.Field{models.KeyDistrict: district, models.KeyWard: ward}
	c.finish(rec, district, ward)
	return rec
}

// validPairs các cặp "ward, district" không nằm trong outlier, dùng cho gợi ý
func (c *Cleaner) validPairs(province string, pairs []catalog.Pair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if !c.catalog.IsOutlier(province, p.District, p.Ward) {
			out = append(out, p.String())
		}
	}
	return out
}

func (c *Cleaner) resolveFullAddress(ctx context.Context, query string, ra *models.ResolvedAddress) *models.ResolutionRecord {
	district, ward := ra.DistrictName(), ra.WardName()
	rec := c.ask(ctx, prompt.NameFullAddress, map[string]string{
		"province":      ra.ProvinceName().String(),
		"district":      district.String(),
		"ward":          ward.String(),
		"dirty_address": query,
	})

	rec.Output = map[string]models.Field{
		models.KeyViAddress: answerOf(rec, models.KeyViAddress),
		models.KeyEnAddress: answerOf(rec, models.KeyEnAddress),
	}
	c.finish(rec, district, ward)
	return rec
}

// ask bind template và gọi completer. Bind lỗi thì không gọi model,
// record mang Error và RawOutput rỗng.
func (c *Cleaner) ask(ctx context.Context, name string, bindings map[string]string) *models.ResolutionRecord {
	rec := &models.ResolutionRecord{
		Template:  name,
		Bindings:  bindings,
		RawOutput: map[string]any{},
	}

	tpl, err := c.templates.Get(name)
	if err != nil {
		c.bindFailed(rec, err)
		return rec
	}
	p, err := tpl.Bind(bindings)
	if err != nil {
		c.bindFailed(rec, err)
		return rec
	}

	rec.Prompt = p.Full
	rec.ZeroShotPrompt = p.ZeroShot
	if out := c.completer.Complete(ctx, p.Full); out != nil {
		rec.RawOutput = out
	}
	return rec
}

func (c *Cleaner) bindFailed(rec *models.ResolutionRecord, err error) {
	rec.Error = err.Error()
	c.logger.Error("Không bind được template",
		zap.String("template", rec.Template),
		zap.Error(err))
}

func (c *Cleaner) finish(rec *models.ResolutionRecord, fields ...models.Field) {
	rec.Quality = models.QualityOf(fields...)
	c.metrics.ObserveStage(rec.Template, string(rec.Quality))
	c.logger.Debug("Stage hoàn tất",
		zap.String("stage", rec.Template),
		zap.String("quality", string(rec.Quality)))
}

func (c *Cleaner) suggest(answer models.Field, candidates, honorifics []string) []string {
	v, ok := answer.Get()
	if !ok || c.cfg.SuggestionLimit <= 0 {
		return nil
	}
	ranked := c.cfg.Scorer.Rank(v, candidates, honorifics, c.cfg.SuggestionLimit)
	if len(ranked) == 0 {
		return nil
	}
	names := make([]string, len(ranked))
	for i, s := range ranked {
		names[i] = s.Name
	}
	return names
}

func (c *Cleaner) pause(ctx context.Context) {
	if c.cfg.StageDelay <= 0 {
		return
	}
	t := time.NewTimer(c.cfg.StageDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// answerOf đọc câu trả lời chuỗi của model cho key
func answerOf(rec *models.ResolutionRecord, key string) models.Field {
	v, ok := llm.StringValue(rec.RawOutput, key)
	if !ok {
		return models.Unresolved()
	}
	return models.Resolved(strings.TrimSpace(v))
}

func matchProvince(answer models.Field, provinces []string) models.Field {
	v, ok := answer.Get()
	if !ok {
		return models.Unresolved()
	}
	return matcher.MatchProvince(v, provinces)
}

// ApplyProvinceHonorific thêm "Thành phố " cho thành phố trực thuộc trung ương,
// "Tỉnh " cho các tỉnh còn lại. Unresolved giữ nguyên.
func ApplyProvinceHonorific(province models.Field) models.Field {
	v, ok := province.Get()
	if !ok {
		return province
	}
	if catalog.IsMunicipality(v) {
		return models.Resolved("Thành phố " + v)
	}
	return models.Resolved("Tỉnh " + v)
}
