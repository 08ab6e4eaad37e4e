package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type CatalogCfg struct {
	Path         string `yaml:"path" json:"path"`
	OutliersPath string `yaml:"outliers_path" json:"outliers_path"`
}

type GenerationCfg struct {
	Temperature float64 `yaml:"temperature" json:"temperature"`
	TopP        float64 `yaml:"top_p" json:"top_p"`
	TopK        int     `yaml:"top_k" json:"top_k"`
}

type CompletionCfg struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	Model             string        `yaml:"model" json:"model"`
	APIKey            string        `yaml:"api_key" json:"-"`
	Generation        GenerationCfg `yaml:"generation" json:"generation"`
	CallDelay         time.Duration `yaml:"call_delay" json:"call_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
}

type GeocodeCfg struct {
	BaseURL  string `yaml:"base_url" json:"base_url"`
	APIKey   string `yaml:"api_key" json:"-"`
	Language string `yaml:"language" json:"language"`
}

type SuggestionCfg struct {
	JWWeight  float64 `yaml:"jw_weight" json:"jw_weight"`
	LevWeight float64 `yaml:"lev_weight" json:"lev_weight"`
	MinScore  float64 `yaml:"min_score" json:"min_score"`
	TopK      int     `yaml:"top_k" json:"top_k"`
}

type CleanerCfg struct {
	Catalog       CatalogCfg    `yaml:"catalog" json:"catalog"`
	TemplatesPath string        `yaml:"templates_path" json:"templates_path"`
	Completion    CompletionCfg `yaml:"completion" json:"completion"`
	Geocode       GeocodeCfg    `yaml:"geocode" json:"geocode"`
	StageDelay    time.Duration `yaml:"stage_delay" json:"stage_delay"`
	BatchWorkers  int           `yaml:"batch_workers" json:"batch_workers"`
	MaxBatchSize  int           `yaml:"max_batch_size" json:"max_batch_size"`
	Suggestions   SuggestionCfg `yaml:"suggestions" json:"suggestions"`
}

// Default cấu hình mặc định khi file không khai báo
func Default() CleanerCfg {
	return CleanerCfg{
		Catalog: CatalogCfg{
			Path:         "data/province_district_ward.json",
			OutliersPath: "data/outliers_province_district_ward.json",
		},
		Completion: CompletionCfg{
			Model:      "gemini-1.5-flash",
			Generation: GenerationCfg{Temperature: 0.2, TopP: 0.95, TopK: 10},
			CallDelay:  5 * time.Second,
			Timeout:    60 * time.Second,
		},
		Geocode:      GeocodeCfg{Language: "vi"},
		StageDelay:   2 * time.Second,
		BatchWorkers: 4,
		MaxBatchSize: 20000,
		Suggestions:  SuggestionCfg{JWWeight: 0.6, LevWeight: 0.4, MinScore: 0.5, TopK: 3},
	}
}

// Parse đọc file YAML đè lên Default rồi áp dụng ENV overrides
func Parse(path string) (CleanerCfg, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("lỗi parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// ENV overrides
func applyEnv(cfg *CleanerCfg) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Completion.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Completion.Model = v
	}
	if v := os.Getenv("MAPS_API_KEY"); v != "" {
		cfg.Geocode.APIKey = v
	}
	if v := os.Getenv("CLEANER_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BatchWorkers = n
		}
	}
}

func RequestTimeout() time.Duration { return 2 * time.Minute }
