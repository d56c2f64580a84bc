package groq

import (
	"ai-recipe-engine/internal/core/ai/provider"
)

// Request 表示 chat completions 請求
type Request struct {
	Model          string             `json:"model"`
	Messages       []provider.Message `json:"messages"`
	Temperature    float64            `json:"temperature"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat    `json:"response_format,omitempty"`
}

// ResponseFormat 結構化輸出提示，provider 不保證遵守
type ResponseFormat struct {
	Type string `json:"type"`
}

// Response chat completions 響應結構
type Response struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Usage   UsageInfo `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message      provider.Message `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// UsageInfo 使用量信息
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorEnvelope 表示 API 錯誤
type ErrorEnvelope struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}
