package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithErr 複製預定義錯誤並附上原始錯誤
func (e *CustomError) WithErr(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// Response 轉換為 API 錯誤響應，debug 模式下附上原始錯誤
func (e *CustomError) Response(debug bool) ErrorResponse {
	resp := ErrorResponse{Code: e.Code, Message: e.Message}
	if debug && e.Err != nil {
		resp.Details = e.Err.Error()
	}
	return resp
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"    // 408
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeBadGateway         = "AI_SERVICE_ERROR"    // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest   = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound         = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrMethodNotAllowed = NewError(ErrCodeMethodNotAllowed, "不支持的請求方法", http.StatusMethodNotAllowed, nil)
	ErrRequestTimeout   = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrTooManyRequests  = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrAIServiceError = NewError(ErrCodeBadGateway, "食譜生成失敗，請稍後再試", http.StatusBadGateway, nil)
)

// 食譜生成錯誤分類
var (
	// ErrConfiguration 未設定 provider 金鑰，需由部署設定修正，不可重試
	ErrConfiguration = errors.New("generation provider credential is not configured")
	// ErrEmptyResponse provider 回應成功但沒有可用內容
	ErrEmptyResponse = errors.New("generation provider returned no usable content")
	// ErrMalformedResponse 內容無法解析為 JSON
	ErrMalformedResponse = errors.New("generation response is not valid JSON")
	// ErrInvalidRecipeStructure JSON 缺少 title、ingredients 或 steps
	ErrInvalidRecipeStructure = errors.New("invalid recipe structure")
	// ErrQueueFull 上游請求隊列已滿
	ErrQueueFull = errors.New("generation queue is full")
)

// ProviderError 上游回應非成功狀態或請求逾時
type ProviderError struct {
	StatusCode int    // 上游 HTTP 狀態碼，傳輸層錯誤時為 0
	Message    string // 上游錯誤訊息
	Timeout    bool
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("generation provider timed out: %s", e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("generation provider error (status %d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("generation provider request failed: %s", e.Message)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// GenerationFailedError 對外統一的生成失敗錯誤，保留原始錯誤供診斷
type GenerationFailedError struct {
	Err error
}

func (e *GenerationFailedError) Error() string {
	return "failed to generate recipe: " + e.Err.Error()
}

func (e *GenerationFailedError) Unwrap() error {
	return e.Err
}

// HTTPError 將食譜生成錯誤對應到 API 錯誤
func HTTPError(err error) *CustomError {
	var providerErr *ProviderError
	switch {
	case IsValidationError(err):
		return NewError(ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrQueueFull):
		return ErrServiceUnavailable.WithErr(err)
	case errors.As(err, &providerErr) && providerErr.Timeout:
		return ErrGatewayTimeout.WithErr(err)
	default:
		return ErrAIServiceError.WithErr(err)
	}
}
