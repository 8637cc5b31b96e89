// internal/model/error.go
package model

import (
	"errors"
	"fmt"
	"regexp"
)

// アプリケーション固有のエラー。
// webutil.MapErrorToStatusCode がこれらを基準にHTTPステータスへ変換する。
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInternalServer  = errors.New("internal server error")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("resource conflict") // 重複エラー用

	// 学習プラン生成パイプライン固有のエラー
	ErrUnknownSubject      = errors.New("unknown subject reference")
	ErrOwnershipViolation  = errors.New("ownership violation")
	ErrUpstreamUnavailable = errors.New("upstream llm unavailable")
	ErrUpstreamTimeout     = errors.New("upstream llm timeout")
	ErrParse               = errors.New("llm response unparsable")
	ErrTruncated           = errors.New("llm response truncated")
	ErrStorage             = errors.New("storage failure")
	ErrCancelled           = errors.New("request cancelled")
)

// ErrorDetail はクライアントへ返すエラーの詳細
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse はAPIエラーレスポンスの構造体
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// AppError はエラーコード・メッセージと根本原因を保持するカスタムエラー
type AppError struct {
	Detail ErrorDetail
	Err    error
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Detail: ErrorDetail{Code: code, Message: message, Field: field},
		Err:    err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Detail.Code, e.Detail.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Detail.Code, e.Detail.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// credentialPattern はAPIキー等の資格情報に見える文字列 (base64アルファベットが20文字以上続く列)
var credentialPattern = regexp.MustCompile(`[A-Za-z0-9+/=]{20,}`)

const parseExcerptLimit = 200

// ParseError はLLM応答の解析失敗を表す。観測用に問題箇所の抜粋を保持する。
// 抜粋は資格情報らしきトークンをマスクした上で200文字に切り詰める。
type ParseError struct {
	Reason  string
	Excerpt string
}

func NewParseError(reason, offending string) *ParseError {
	excerpt := credentialPattern.ReplaceAllString(offending, "[REDACTED]")
	runes := []rune(excerpt)
	if len(runes) > parseExcerptLimit {
		excerpt = string(runes[:parseExcerptLimit])
	}
	return &ParseError{Reason: reason, Excerpt: excerpt}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (excerpt: %q)", e.Reason, e.Excerpt)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
