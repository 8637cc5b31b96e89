// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"

	"study_wala_backend/internal/model"

	"golang.org/x/sync/semaphore"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"

	// FinishReasonStop はモデルが自然に応答を完了したことを示す。
	// それ以外 (length 等) は応答が途中で打ち切られている。
	FinishReasonStop = "stop"
)

// Message はチャット補完APIの1メッセージ
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params は1回の補完呼び出しのパラメータ
type Params struct {
	Model       string
	Temperature float64 // [0, 2]
	MaxTokens   int     // >= 1
	Timeout     time.Duration
}

// Completion は補完結果。クライアントは内容の解析を行わない。
type Completion struct {
	Content      string
	FinishReason string
}

// Client はLLMプロバイダへのアダプタ
type Client interface {
	Complete(ctx context.Context, messages []Message, params Params) (*Completion, error)
}

// Config はHTTPクライアントの設定
type Config struct {
	APIKey  string
	BaseURL string

	// MaxRetries はtransientエラー時の再試行回数 (既定2)
	MaxRetries int
	// BackoffBase は指数バックオフの基準値 (既定500ms)。full jitterを適用する。
	BackoffBase time.Duration

	// MaxConcurrent は同時接続数の上限 (既定8)。超過分はMaxBacklogまで待機列に並び、
	// それも溢れた場合は即時にUpstreamUnavailableを返す。
	MaxConcurrent int
	MaxBacklog    int
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com"
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.MaxBacklog <= 0 {
		c.MaxBacklog = 16
	}
}

type httpClient struct {
	cfg     Config
	logger  *slog.Logger
	http    *http.Client
	slots   *semaphore.Weighted
	backlog chan struct{}
}

// NewClient はチャット補完クライアントを生成します
func NewClient(cfg Config, logger *slog.Logger) Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &httpClient{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "llm_client")),
		// タイムアウトはリクエスト毎のコンテキストで制御する
		http:    &http.Client{},
		slots:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		backlog: make(chan struct{}, cfg.MaxBacklog),
	}
}

// httpError はプロバイダからの非2xx応答
type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("llm provider returned http %d", e.StatusCode)
}

// retryableStatus は再試行可能なHTTPステータスかを判定する
func retryableStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// isTransient はエラーが再試行に値するかを判定する。
// 呼び出し元のキャンセル・デッドラインはここには来ない (Completeで先に判定する)。
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// クライアント側タイムアウト
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return retryableStatus(httpErr.StatusCode)
	}
	var envErr *envelopeError
	if errors.As(err, &envErr) {
		return false
	}
	// 送信自体の失敗 (コネクション断など) は再試行可能とみなす
	return true
}

// envelopeError はプロバイダ応答の構造不正 (permanent)
type envelopeError struct {
	reason string
}

func (e *envelopeError) Error() string {
	return "malformed llm response envelope: " + e.reason
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete はチャット補完を1件取得する。
// transientエラーはMaxRetries回まで指数バックオフ (full jitter) で再試行し、
// それでも失敗した場合はUpstreamUnavailableとして返す。
func (c *httpClient) Complete(ctx context.Context, messages []Message, params Params) (*Completion, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	release, err := c.acquireSlot(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		comp, err := c.doOnce(ctx, messages, params)
		if err == nil {
			return comp, nil
		}
		lastErr = err

		// 呼び出し元のキャンセル・デッドラインは即時に伝播する
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, mapContextErr(ctxErr)
		}
		if !isTransient(err) {
			c.logger.Warn("LLM call failed permanently", slog.Any("error", err))
			return nil, fmt.Errorf("llm permanent failure: %v: %w", err, model.ErrUpstreamUnavailable)
		}
		c.logger.Warn("LLM call failed, will retry if attempts remain",
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}

	return nil, fmt.Errorf("llm retries exhausted: %v: %w", lastErr, model.ErrUpstreamUnavailable)
}

func validateParams(params Params) error {
	if params.Model == "" {
		return fmt.Errorf("llm params: model is required: %w", model.ErrInvalidInput)
	}
	if params.Temperature < 0 || params.Temperature > 2 {
		return fmt.Errorf("llm params: temperature %v out of [0,2]: %w", params.Temperature, model.ErrInvalidInput)
	}
	if params.MaxTokens < 1 {
		return fmt.Errorf("llm params: maxTokens must be >= 1: %w", model.ErrInvalidInput)
	}
	if params.Timeout <= 0 {
		return fmt.Errorf("llm params: timeout must be positive: %w", model.ErrInvalidInput)
	}
	return nil
}

// acquireSlot は接続プールの空きを確保する。満杯ならbacklogで待機し、
// backlogも満杯なら即座にUpstreamUnavailableを返す (無制限に積まない)。
func (c *httpClient) acquireSlot(ctx context.Context) (func(), error) {
	if c.slots.TryAcquire(1) {
		return func() { c.slots.Release(1) }, nil
	}
	select {
	case c.backlog <- struct{}{}:
		defer func() { <-c.backlog }()
		if err := c.slots.Acquire(ctx, 1); err != nil {
			return nil, mapContextErr(err)
		}
		return func() { c.slots.Release(1) }, nil
	default:
		c.logger.Warn("LLM connection backlog overflow")
		return nil, fmt.Errorf("llm backlog overflow: %w", model.ErrUpstreamUnavailable)
	}
}

func (c *httpClient) sleepBackoff(ctx context.Context, attempt int) error {
	// full jitter: [0, base * 2^(attempt-1))
	window := c.cfg.BackoffBase << (attempt - 1)
	delay := time.Duration(rand.Int63n(int64(window) + 1))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return mapContextErr(ctx.Err())
	case <-timer.C:
		return nil
	}
}

// doOnce は1回分のHTTP呼び出しを行う。クライアント自身のタイムアウトを適用しつつ、
// 呼び出し元のデッドラインも引き継ぐ (短い方が有効)。
func (c *httpClient) doOnce(ctx context.Context, messages []Message, params Params) (*Completion, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()

	payload := chatRequest{
		Model:       params.Model,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// ボディはログにのみ出す。ユーザー向けエラーには含めない。
		c.logger.Debug("LLM provider error response",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncateForLog(string(raw))),
		)
		return nil, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &envelopeError{reason: "invalid json"}
	}
	if len(decoded.Choices) == 0 {
		return nil, &envelopeError{reason: "no choices"}
	}

	choice := decoded.Choices[0]
	return &Completion{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}, nil
}

func mapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("llm call deadline exceeded: %w", model.ErrUpstreamTimeout)
	}
	return fmt.Errorf("llm call cancelled: %w", model.ErrCancelled)
}

func truncateForLog(s string) string {
	const limit = 500
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
