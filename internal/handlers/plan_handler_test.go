// internal/handlers/plan_handler_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"study_wala_backend/internal/model"
	"study_wala_backend/internal/service/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPlanRouter(h *PlanHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/study-plans", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{planID}", h.Get)
		r.Patch("/{planID}/progress", h.UpdateProgress)
		r.Delete("/{planID}", h.Delete)
	})
	return r
}

// authedRequest は認証ミドルウェア通過後と同じコンテキストを持つリクエストを作る
func authedRequest(t *testing.T, method, target string, userID uuid.UUID, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(req.Context(), model.UserIDKey, userID))
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Finals Prep",
		"description": "Two week sprint",
		"subjectIds":  []string{uuid.NewString()},
		"startDate":   "2026-06-01",
		"endDate":     "2026-06-07",
		"hoursPerDay": 3,
	}
}

func Test_PlanHandler_Create(t *testing.T) {
	userID := uuid.New()
	planID := uuid.New()

	mockService := mocks.NewPlanService(t)
	mockService.On("CreatePlan", mock.Anything, userID, mock.AnythingOfType("*model.CreatePlanRequest")).
		Return(&model.StudyPlanResponse{
			ID:         planID,
			Title:      "Finals Prep",
			TotalHours: 21,
			Status:     model.PlanStatusActive,
		}, nil).Once()

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/study-plans/", userID, validCreateBody()))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.StudyPlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, planID, resp.ID)
	assert.Equal(t, 21, resp.TotalHours)
}

func Test_PlanHandler_Create_ValidationFailure(t *testing.T) {
	userID := uuid.New()
	mockService := mocks.NewPlanService(t)

	body := validCreateBody()
	body["subjectIds"] = []string{} // min=1 違反

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/study-plans/", userID, body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "CreatePlan")
}

func Test_PlanHandler_Create_ErrorMapping(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "Parse失敗は422", serviceErr: model.NewParseError("invalid json", "{bad"), wantStatus: http.StatusUnprocessableEntity},
		{name: "打ち切り応答は422", serviceErr: fmt.Errorf("llm finished with \"length\": %w", model.ErrTruncated), wantStatus: http.StatusUnprocessableEntity},
		{name: "未知の科目は400", serviceErr: model.NewAppError("UNKNOWN_SUBJECT", "などない", "subjectIds", model.ErrUnknownSubject), wantStatus: http.StatusBadRequest},
		{name: "接続失敗は502", serviceErr: fmt.Errorf("llm retries exhausted: %w", model.ErrUpstreamUnavailable), wantStatus: http.StatusBadGateway},
		{name: "LLMタイムアウトは504", serviceErr: fmt.Errorf("llm call deadline exceeded: %w", model.ErrUpstreamTimeout), wantStatus: http.StatusGatewayTimeout},
		{name: "キャンセルは408", serviceErr: fmt.Errorf("request cancelled before persist: %w", model.ErrCancelled), wantStatus: http.StatusRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := mocks.NewPlanService(t)
			mockService.On("CreatePlan", mock.Anything, userID, mock.AnythingOfType("*model.CreatePlanRequest")).
				Return(nil, tt.serviceErr).Once()

			h := NewPlanHandler(mockService)
			rec := httptest.NewRecorder()
			newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/study-plans/", userID, validCreateBody()))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var errResp model.APIErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp.Error.Code)
		})
	}
}

func Test_PlanHandler_Get(t *testing.T) {
	userID := uuid.New()
	planID := uuid.New()

	mockService := mocks.NewPlanService(t)
	mockService.On("GetPlan", mock.Anything, userID, planID).
		Return(&model.StudyPlanResponse{ID: planID, Title: "Finals Prep"}, nil).Once()

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/study-plans/"+planID.String(), userID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func Test_PlanHandler_Get_MalformedIDIsNotFound(t *testing.T) {
	userID := uuid.New()
	mockService := mocks.NewPlanService(t)

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/study-plans/not-a-uuid", userID, nil))

	// 形式不正なIDは存在しないリソースと区別しない
	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockService.AssertNotCalled(t, "GetPlan")
}

func Test_PlanHandler_Get_NotFound(t *testing.T) {
	userID := uuid.New()
	planID := uuid.New()

	mockService := mocks.NewPlanService(t)
	mockService.On("GetPlan", mock.Anything, userID, planID).
		Return(nil, model.ErrNotFound).Once()

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/study-plans/"+planID.String(), userID, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_PlanHandler_List(t *testing.T) {
	userID := uuid.New()

	mockService := mocks.NewPlanService(t)
	mockService.On("ListPlans", mock.Anything, userID).
		Return([]*model.StudyPlanResponse{
			{ID: uuid.New(), Title: "Second"},
			{ID: uuid.New(), Title: "First"},
		}, nil).Once()

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/study-plans/", userID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []*model.StudyPlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "Second", resp[0].Title)
}

func Test_PlanHandler_UpdateProgress(t *testing.T) {
	userID := uuid.New()
	planID := uuid.New()

	mockService := mocks.NewPlanService(t)
	mockService.On("UpdateProgress", mock.Anything, userID, planID, mock.AnythingOfType("*model.UpdateProgressRequest")).
		Return(&model.StudyPlanResponse{ID: planID, CompletedHours: 10}, nil).Once()

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	body := map[string]interface{}{"completedHours": 10}
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodPatch, "/api/study-plans/"+planID.String()+"/progress", userID, body))

	require.Equal(t, http.StatusOK, rec.Code)
}

func Test_PlanHandler_Delete(t *testing.T) {
	userID := uuid.New()
	planID := uuid.New()

	mockService := mocks.NewPlanService(t)
	mockService.On("DeletePlan", mock.Anything, userID, planID).Return(nil).Once()

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/api/study-plans/"+planID.String(), userID, nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func Test_PlanHandler_Delete_NotFound(t *testing.T) {
	userID := uuid.New()
	planID := uuid.New()

	mockService := mocks.NewPlanService(t)
	mockService.On("DeletePlan", mock.Anything, userID, planID).Return(model.ErrNotFound).Once()

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	newPlanRouter(h).ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/api/study-plans/"+planID.String(), userID, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_PlanHandler_MissingAuthContext(t *testing.T) {
	mockService := mocks.NewPlanService(t)

	h := NewPlanHandler(mockService)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/study-plans/", nil)
	newPlanRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockService.AssertNotCalled(t, "ListPlans")
}
