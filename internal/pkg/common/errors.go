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

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤（欄位缺失或格式錯誤）
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{message: message}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ScrapeError 表示網頁抓取失敗
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// NewScrapeError 創建新的抓取錯誤
func NewScrapeError(url string, err error) error {
	return &ScrapeError{URL: url, Err: err}
}

// IsScrapeError 檢查是否為抓取錯誤
func IsScrapeError(err error) bool {
	var se *ScrapeError
	return errors.As(err, &se)
}

// ExtractionError 表示 LLM 結構化輸出無法解析（非合法 JSON 或與 schema 不符）
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError 創建新的解析錯誤
func NewExtractionError(err error) error {
	return &ExtractionError{Err: err}
}

// IsExtractionError 檢查是否為解析錯誤
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// TransportError 表示對話或遠端儲存呼叫失敗
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError 創建新的傳輸錯誤
func NewTransportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// IsTransportError 檢查是否為傳輸錯誤
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ConfigError 表示外部服務必要設定缺失
type ConfigError struct {
	message string
}

func (e *ConfigError) Error() string { return e.message }

// NewConfigError 創建新的設定錯誤
func NewConfigError(message string) error {
	return &ConfigError{message: message}
}

// IsConfigError 檢查是否為設定錯誤
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrCacheFull      = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled  = NewError("CACHE_DISABLED", "緩存已禁用", http.StatusServiceUnavailable, nil)
	ErrCacheMiss      = NewError("CACHE_MISS", "緩存未命中", http.StatusNotFound, nil)
	ErrAIServiceError = NewError("AI_SERVICE_ERROR", "AI 服務錯誤", http.StatusServiceUnavailable, nil)
)
