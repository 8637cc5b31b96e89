// internal/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"study_wala_backend/internal/middleware"
	"study_wala_backend/internal/model"
	"study_wala_backend/internal/service"
	"study_wala_backend/internal/webutil"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Register は新規ユーザーを登録します
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.RegisterRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid registration request", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		logger.Error("Registration failed in service", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User registered", "user_id", resp.UserID.String())
	webutil.RespondWithJSON(w, http.StatusCreated, resp, logger)
}

// Login はユーザーを認証し、JWTを返します
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.LoginRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("Invalid login request", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		// 認証失敗の詳細はログにも残しすぎない
		logger.Warn("Login failed", "email", req.Email)
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User logged in", "user_id", resp.User.UserID.String())
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}
