package provider

import (
	"context"
)

// Message 表示與 AI 模型的對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// 對話角色
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Generator 定義文字生成 provider 介面
type Generator interface {
	// Generate 送出 prompt 並回傳模型原始文字
	Generate(ctx context.Context, prompt string) (string, error)

	// GetModel 獲取當前使用的模型名稱
	GetModel() string
}
