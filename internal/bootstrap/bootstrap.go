// Package bootstrap dựng các thành phần dùng chung giữa API server và batch worker.
package bootstrap

import (
	"fmt"

	"github.com/address-cleaner/app/config"
	"github.com/address-cleaner/internal/catalog"
	"github.com/address-cleaner/internal/geocode"
	"github.com/address-cleaner/internal/llm"
	"github.com/address-cleaner/internal/matcher"
	"github.com/address-cleaner/internal/metrics"
	"github.com/address-cleaner/internal/pipeline"
	"github.com/address-cleaner/internal/prompt"
	"go.uber.org/zap"
)

// NewLogger production config khi env = "production", còn lại development
func NewLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

// NewCleaner load catalog, template và dựng pipeline từ cấu hình.
// Lỗi ở đây là lỗi khởi động, caller nên dừng chương trình.
func NewCleaner(cfg config.CleanerCfg, logger *zap.Logger, m *metrics.Metrics) (*pipeline.Cleaner, error) {
	cat, err := catalog.Load(cfg.Catalog.Path, cfg.Catalog.OutliersPath)
	if err != nil {
		return nil, err
	}
	stats := cat.Stats()
	logger.Info("Đã load catalog",
		zap.String("version", stats.Version),
		zap.Int("provinces", stats.Provinces),
		zap.Int("districts", stats.Districts),
		zap.Int("wards", stats.Wards),
		zap.Int("outliers", stats.Outliers))

	templates, err := prompt.Load(cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}

	if cfg.Completion.APIKey == "" {
		logger.Warn("GEMINI_API_KEY chưa được cấu hình, mọi stage sẽ không xác định được")
	}
	completer := llm.NewGeminiClient(llm.GeminiConfig{
		BaseURL: cfg.Completion.BaseURL,
		APIKey:  cfg.Completion.APIKey,
		Model:   cfg.Completion.Model,
		Generation: llm.GenerationConfig{
			Temperature: cfg.Completion.Generation.Temperature,
			TopP:        cfg.Completion.Generation.TopP,
			TopK:        cfg.Completion.Generation.TopK,
		},
		CallDelay:         cfg.Completion.CallDelay,
		RequestsPerSecond: cfg.Completion.RequestsPerSecond,
		Timeout:           cfg.Completion.Timeout,
	}, logger.Named("llm"), m)

	var geocoder geocode.Geocoder = geocode.Disabled{}
	if cfg.Geocode.APIKey != "" {
		g, err := geocode.NewGoogleGeocoder(geocode.Config{
			APIKey:   cfg.Geocode.APIKey,
			BaseURL:  cfg.Geocode.BaseURL,
			Language: cfg.Geocode.Language,
		}, logger.Named("geocode"), m)
		if err != nil {
			return nil, fmt.Errorf("geocoder: %w", err)
		}
		geocoder = g
	} else {
		logger.Warn("MAPS_API_KEY chưa được cấu hình, tắt geocode fallback")
	}

	return pipeline.New(cat, completer, geocoder, templates, pipeline.Config{
		StageDelay: cfg.StageDelay,
		Scorer: matcher.Scorer{
			JWWeight:  cfg.Suggestions.JWWeight,
			LevWeight: cfg.Suggestions.LevWeight,
			MinScore:  cfg.Suggestions.MinScore,
		},
		SuggestionLimit: cfg.Suggestions.TopK,
	}, logger.Named("pipeline"), m)
}
