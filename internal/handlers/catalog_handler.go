// internal/handlers/catalog_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"study_wala_backend/internal/middleware"
	"study_wala_backend/internal/model"
	"study_wala_backend/internal/service"
	"study_wala_backend/internal/webutil"

	"github.com/google/uuid"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// CreateSubject は科目をカタログに追加します
func (h *CatalogHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateSubjectRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid subject creation request", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	subject, err := h.service.CreateSubject(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Subject creation failed in service", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, subject, logger)
}

// ListSubjects は自分の科目一覧を返します
func (h *CatalogHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	subjects, err := h.service.ListSubjects(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if subjects == nil {
		subjects = []*model.Subject{}
	}

	webutil.RespondWithJSON(w, http.StatusOK, subjects, logger)
}

// CreateTopic は科目配下にトピックを追加します
func (h *CatalogHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateTopicRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid topic creation request", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	topic, err := h.service.CreateTopic(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Topic creation failed in service", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, topic, logger)
}

// ListTopics は自分のトピック一覧を返します。?subjectId= で科目を絞り込める。
func (h *CatalogHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	subjectID := uuid.Nil
	if raw := r.URL.Query().Get("subjectId"); raw != "" {
		subjectID, err = uuid.Parse(raw)
		if err != nil {
			webutil.HandleError(w, logger, fmt.Errorf("malformed subject id %q: %w", raw, model.ErrInvalidInput))
			return
		}
	}

	topics, err := h.service.ListTopics(r.Context(), userID, subjectID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if topics == nil {
		topics = []*model.Topic{}
	}

	webutil.RespondWithJSON(w, http.StatusOK, topics, logger)
}
