// internal/webutil/response.go
package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"study_wala_backend/internal/model"

	"github.com/go-playground/validator/v10"
)

// HandleError はエラーを解釈し、適切なJSONエラーレスポンスを返します。
// アプリケーションのエラーハンドリングの中心。
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	statusCode := MapErrorToStatusCode(err)

	var errResp model.APIErrorResponse
	var appErr *model.AppError
	var parseErr *model.ParseError

	switch {
	case errors.As(err, &appErr):
		errResp = model.APIErrorResponse{Error: appErr.Detail}
	case errors.As(err, &parseErr):
		// 抜粋は生成時点でマスク・切り詰め済み
		errResp = model.APIErrorResponse{
			Error: model.ErrorDetail{
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("AI応答を解析できませんでした: %s", parseErr.Reason),
			},
		}
	default:
		if statusCode >= 500 {
			logger.Error("Unhandled error", slog.Any("error", err))
		}
		errResp = model.APIErrorResponse{Error: genericDetail(statusCode)}
	}

	RespondWithJSON(w, statusCode, errResp, logger)
}

// MapErrorToStatusCode はアプリケーションエラーをHTTPステータスコードにマッピングします
func MapErrorToStatusCode(err error) int {
	var appErr *model.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		err = appErr.Err
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrUnknownSubject):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden), errors.Is(err, model.ErrOwnershipViolation):
		return http.StatusForbidden
	case errors.Is(err, model.ErrParse), errors.Is(err, model.ErrTruncated):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrCancelled):
		return http.StatusRequestTimeout
	case errors.Is(err, model.ErrStorage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// genericDetail はAppErrorを伴わないエラーに対する既定のレスポンス内容
func genericDetail(statusCode int) model.ErrorDetail {
	switch statusCode {
	case http.StatusNotFound:
		return model.ErrorDetail{Code: "NOT_FOUND", Message: "リソースが見つかりません。"}
	case http.StatusBadRequest:
		return model.ErrorDetail{Code: "INVALID_REQUEST", Message: "リクエストの内容が正しくありません。"}
	case http.StatusUnprocessableEntity:
		return model.ErrorDetail{Code: "UNPROCESSABLE_RESPONSE", Message: "AI応答を処理できませんでした。"}
	case http.StatusBadGateway:
		return model.ErrorDetail{Code: "UPSTREAM_UNAVAILABLE", Message: "AIサービスに接続できませんでした。時間をおいて再度お試しください。"}
	case http.StatusGatewayTimeout:
		return model.ErrorDetail{Code: "UPSTREAM_TIMEOUT", Message: "AIサービスの応答がタイムアウトしました。"}
	case http.StatusRequestTimeout:
		return model.ErrorDetail{Code: "CANCELLED", Message: "リクエストがキャンセルされました。"}
	default:
		return model.ErrorDetail{Code: "INTERNAL_SERVER_ERROR", Message: "サーバー内部でエラーが発生しました。"}
	}
}

// RespondWithJSON はJSONレスポンスを返します
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("Error marshaling JSON response", slog.Any("error", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_SERVER_ERROR","message":"レスポンス生成中にエラーが発生しました。"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// NewValidationErrorResponse はバリデーションエラーをAppErrorにまとめます
func NewValidationErrorResponse(errs validator.ValidationErrors) *model.AppError {
	var fields []string
	var messages []string

	for _, err := range errs {
		fields = append(fields, err.Field())
		messages = append(messages, err.Translate(Trans))
	}

	return model.NewAppError(
		"VALIDATION_ERROR",
		strings.Join(messages, " "),
		strings.Join(fields, ","),
		model.ErrInvalidInput,
	)
}
