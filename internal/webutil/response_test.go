// internal/webutil/response_test.go
package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"study_wala_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "NotFound", err: model.ErrNotFound, want: http.StatusNotFound},
		{name: "InvalidInput", err: model.ErrInvalidInput, want: http.StatusBadRequest},
		{name: "UnknownSubject", err: model.ErrUnknownSubject, want: http.StatusBadRequest},
		{name: "Conflict", err: model.ErrConflict, want: http.StatusConflict},
		{name: "Unauthenticated", err: model.ErrUnauthenticated, want: http.StatusUnauthorized},
		{name: "Forbidden", err: model.ErrForbidden, want: http.StatusForbidden},
		{name: "OwnershipViolation", err: model.ErrOwnershipViolation, want: http.StatusForbidden},
		{name: "Parse", err: model.ErrParse, want: http.StatusUnprocessableEntity},
		{name: "Truncated", err: model.ErrTruncated, want: http.StatusUnprocessableEntity},
		{name: "UpstreamUnavailable", err: model.ErrUpstreamUnavailable, want: http.StatusBadGateway},
		{name: "UpstreamTimeout", err: model.ErrUpstreamTimeout, want: http.StatusGatewayTimeout},
		{name: "Cancelled", err: model.ErrCancelled, want: http.StatusRequestTimeout},
		{name: "Storage", err: model.ErrStorage, want: http.StatusInternalServerError},
		{name: "未知のエラー", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 素のsentinel
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
			// ラップされていても同じ結果になること
			assert.Equal(t, tt.want, MapErrorToStatusCode(fmt.Errorf("wrapped: %w", tt.err)))
			// AppError経由でも同じ結果になること
			appErr := model.NewAppError("CODE", "message", "", tt.err)
			assert.Equal(t, tt.want, MapErrorToStatusCode(appErr))
		})
	}
}

func Test_HandleError_AppErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	appErr := model.NewAppError("UNKNOWN_SUBJECT", "指定された科目が見つかりません。", "subjectIds", model.ErrUnknownSubject)

	HandleError(rec, nil, appErr)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_SUBJECT", resp.Error.Code)
	assert.Equal(t, "subjectIds", resp.Error.Field)
}

func Test_HandleError_ParseErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	parseErr := model.NewParseError("invalid json", `{title: Finals}`)

	HandleError(rec, nil, parseErr)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PARSE_ERROR", resp.Error.Code)
}

func Test_HandleError_GenericErrorConcealsDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, nil, errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// 内部情報はレスポンスに出さない
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	var resp model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", resp.Error.Code)
}
