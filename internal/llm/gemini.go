// Package llm gọi completion service (Gemini generateContent) và parse câu trả lời
// thành JSON object. Mọi lỗi đều được log và trả về map rỗng.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/address-cleaner/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL endpoint gốc của Gemini API
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1"

var (
	errNoCandidates = errors.New("response không có candidates[0].content.parts[0].text")
	errEmptyText    = errors.New("response rỗng")
)

// Completer gửi prompt và nhận về JSON object. Không bao giờ trả lỗi:
// thất bại được thể hiện bằng map rỗng.
type Completer interface {
	Complete(ctx context.Context, prompt string) map[string]any
}

// GenerationConfig tham số sinh của model
type GenerationConfig struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	TopP        float64 `json:"topP" yaml:"top_p"`
	TopK        int     `json:"topK" yaml:"top_k"`
}

// DefaultGenerationConfig giá trị mặc định
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{Temperature: 0.2, TopP: 0.95, TopK: 10}
}

// safetyCategories bốn nhóm an toàn chuẩn, đều đặt BLOCK_NONE
var safetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// GeminiConfig cấu hình client
type GeminiConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Generation        GenerationConfig
	CallDelay         time.Duration
	RequestsPerSecond float64
	Timeout           time.Duration
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GeminiClient client cho Gemini generateContent
type GeminiClient struct {
	cfg     GeminiConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewGeminiClient tạo mới GeminiClient. RequestsPerSecond > 0 bật limiter dùng
// chung cho mọi goroutine gọi cùng client.
func NewGeminiClient(cfg GeminiConfig, logger *zap.Logger, m *metrics.Metrics) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Generation == (GenerationConfig{}) {
		cfg.Generation = DefaultGenerationConfig()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &GeminiClient{
		cfg:     cfg,
		limiter: limiter,
		logger:  logger,
		metrics: m,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Complete chờ CallDelay (và limiter nếu có), gọi model rồi parse text trả về.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) map[string]any {
	if err := sleepCtx(ctx, c.cfg.CallDelay); err != nil {
		c.fail("cancelled", err)
		return map[string]any{}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.fail("cancelled", err)
			return map[string]any{}
		}
	}

	c.metrics.IncCompletionCall()
	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.fail("transport", err)
		return map[string]any{}
	}

	out, err := ParseObject(text)
	if err != nil {
		c.logger.Warn("Không parse được output của model",
			zap.String("text", truncate(text, 300)),
			zap.Error(err))
		c.metrics.IncCompletionFailure("malformed")
		return map[string]any{}
	}
	return out
}

func (c *GeminiClient) fail(reason string, err error) {
	c.logger.Warn("Gọi completion service thất bại",
		zap.String("model", c.cfg.Model),
		zap.String("reason", reason),
		zap.Error(err))
	c.metrics.IncCompletionFailure(reason)
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: c.cfg.Generation,
	}
	for _, category := range safetyCategories {
		body.SafetySettings = append(body.SafetySettings, safetySetting{Category: category, Threshold: "BLOCK_NONE"})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errNoCandidates
	}
	text := decoded.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", errEmptyText
	}
	return text, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
