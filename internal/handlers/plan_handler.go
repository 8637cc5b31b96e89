// internal/handlers/plan_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"study_wala_backend/internal/middleware"
	"study_wala_backend/internal/model"
	"study_wala_backend/internal/service"
	"study_wala_backend/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PlanHandler struct {
	service service.PlanService
}

func NewPlanHandler(s service.PlanService) *PlanHandler {
	return &PlanHandler{service: s}
}

// Create はAIで学習プランを合成して保存します
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreatePlanRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid plan creation request", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.CreatePlan(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Plan creation failed in service", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Study plan created", "plan_id", resp.ID.String())
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// Get は自分のプランを1件取得します
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	planID, err := planIDFromURL(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.GetPlan(r.Context(), userID, planID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// List は自分のプラン一覧を作成日時の降順で返します
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.ListPlans(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// UpdateProgress は消化時間を更新します
func (h *PlanHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	planID, err := planIDFromURL(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.UpdateProgressRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid progress update request", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.UpdateProgress(r.Context(), userID, planID, &req)
	if err != nil {
		logger.Error("Progress update failed in service", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// Delete はプランを削除します。成功時は 204 No Content。
func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	planID, err := planIDFromURL(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	if err := h.service.DeletePlan(r.Context(), userID, planID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Study plan deleted", "plan_id", planID.String())
	w.WriteHeader(http.StatusNoContent)
}

// planIDFromURL はパスパラメータのプランIDを解釈します。
// 形式不正なIDは存在しないリソースと同じく NotFound として扱う。
func planIDFromURL(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "planID")
	planID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed plan id %q: %w", raw, model.ErrNotFound)
	}
	return planID, nil
}
