// Package groq 實作 OpenAI 相容 chat completions 的文字生成 client
package groq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"ai-recipe-engine/internal/core/ai/provider"
	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SystemInstruction 固定的系統指示
const SystemInstruction = "You are a professional chef and recipe developer. Always respond with valid JSON only."

const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "llama-3.1-8b-instant"
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
	defaultTimeout     = 60 * time.Second

	// 錯誤訊息中保留的上游響應長度
	maxErrorBodyLength = 512
)

// Config client 設定，金鑰於建構時注入
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64 // nil 時使用預設值，0 為確定性輸出
	MaxTokens   int
	JSONMode    bool
	Timeout     time.Duration
}

// ConfigFrom 由應用設定取得 client 設定
func ConfigFrom(cfg *config.Config) Config {
	temperature := cfg.Groq.Temperature
	return Config{
		APIKey:      cfg.Groq.APIKey,
		BaseURL:     cfg.Groq.BaseURL,
		Model:       cfg.Groq.Model,
		Temperature: &temperature,
		MaxTokens:   cfg.Groq.MaxTokens,
		JSONMode:    cfg.Groq.JSONMode,
		Timeout:     cfg.Groq.Timeout,
	}
}

// Client 文字生成 API 客戶端
type Client struct {
	config Config
	client *resty.Client
}

var _ provider.Generator = (*Client)(nil)

// NewClient 創建新的客戶端
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == nil || *cfg.Temperature < 0 {
		temperature := defaultTemperature
		cfg.Temperature = &temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		config: cfg,
		client: client,
	}
}

// GetModel 獲取當前使用的模型名稱
func (c *Client) GetModel() string {
	return c.config.Model
}

// Generate 送出 prompt 並回傳模型輸出文字，不自動重試
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	// 未設定金鑰時不發出請求
	if strings.TrimSpace(c.config.APIKey) == "" {
		return "", common.ErrConfiguration
	}

	req := &Request{
		Model: c.config.Model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: SystemInstruction},
			{Role: provider.RoleUser, Content: prompt},
		},
		Temperature: *c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}
	if c.config.JSONMode {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	body, err := common.MarshalJSON(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	common.LogDebug("Sending request to generation provider",
		zap.String("model", req.Model),
		zap.Int("prompt_length", len(prompt)),
		zap.Bool("json_mode", c.config.JSONMode),
	)

	start := time.Now()
	content, err := c.send(ctx, body)
	common.LogAICall(req.Model, time.Since(start), err)
	if err != nil {
		return "", err
	}

	common.LogDebug("Successfully generated response from provider",
		zap.String("model", req.Model),
		zap.Int("content_length", len(content)),
	)
	return content, nil
}

// send 發送請求並解析響應
func (c *Client) send(ctx context.Context, body []byte) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", &common.ProviderError{
			Message: err.Error(),
			Timeout: isTimeout(err),
			Err:     err,
		}
	}

	// 檢查 HTTP 狀態碼
	if !resp.IsSuccess() {
		return "", &common.ProviderError{
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(resp.Body()),
		}
	}

	// 解析響應
	var result Response
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("%w: undecodable response body: %v", common.ErrEmptyResponse, err)
	}

	// 檢查響應內容
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", common.ErrEmptyResponse)
	}
	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty message content", common.ErrEmptyResponse)
	}

	return content, nil
}

// errorMessage 取出 {error:{message}}，否則回傳截斷後的原始響應
func errorMessage(body []byte) string {
	var envelope ErrorEnvelope
	if err := common.ParseJSONBytes(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty error response"
	}
	return common.Truncate(text, maxErrorBodyLength)
}

// isTimeout 判斷是否為逾時（client 逾時或 context deadline）
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
