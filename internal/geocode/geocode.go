// Package geocode tra cứu tỉnh/thành của một địa chỉ qua Google Geocoding API,
// dùng làm phương án dự phòng khi model không xác định được tỉnh.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/metrics"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

const (
	// CountryCode giới hạn kết quả trong Việt Nam
	CountryCode = "VN"

	provinceComponentType = "administrative_area_level_1"
)

// ErrNoProvince kết quả không có thành phần administrative_area_level_1
var ErrNoProvince = errors.New("không có administrative_area_level_1")

// Geocoder trả về tên tỉnh thô (chưa đối chiếu catalog). Không bao giờ trả lỗi.
type Geocoder interface {
	ProvinceFromGeocode(ctx context.Context, address string) models.Field
}

// Config cấu hình GoogleGeocoder
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
}

// GoogleGeocoder Geocoder dùng Google Maps
type GoogleGeocoder struct {
	client   *maps.Client
	language string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewGoogleGeocoder tạo mới GoogleGeocoder
func NewGoogleGeocoder(cfg Config, logger *zap.Logger, m *metrics.Metrics) (*GoogleGeocoder, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("không tạo được Google Maps client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleGeocoder{client: client, language: cfg.Language, logger: logger, metrics: m}, nil
}

// ProvinceFromGeocode lấy long_name của thành phần administrative_area_level_1
// đầu tiên trong kết quả đầu tiên. Lỗi hoặc không có kết quả thì Unresolved.
func (g *GoogleGeocoder) ProvinceFromGeocode(ctx context.Context, address string) models.Field {
	province, err := g.lookup(ctx, address)
	if err != nil {
		g.logger.Warn("Geocode không xác định được tỉnh",
			zap.String("address", address),
			zap.Error(err))
		g.metrics.IncGeocode("unresolved")
		return models.Unresolved()
	}
	g.metrics.IncGeocode("resolved")
	return models.Resolved(province)
}

func (g *GoogleGeocoder) lookup(ctx context.Context, address string) (string, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:    address,
		Components: map[maps.Component]string{maps.ComponentCountry: CountryCode},
		Language:   g.language,
	})
	if err != nil {
		return "", fmt.Errorf("geocode: %w", err)
	}
	if len(results) == 0 {
		return "", ErrNoProvince
	}
	return provinceOf(results[0])
}

func provinceOf(result maps.GeocodingResult) (string, error) {
	for _, component := range result.AddressComponents {
		for _, t := range component.Types {
			if t == provinceComponentType && component.LongName != "" {
				return component.LongName, nil
			}
		}
	}
	return "", ErrNoProvince
}

// Disabled Geocoder luôn trả về Unresolved, dùng khi chưa cấu hình API key
type Disabled struct{}

func (Disabled) ProvinceFromGeocode(context.Context, string) models.Field {
	return models.Unresolved()
}
