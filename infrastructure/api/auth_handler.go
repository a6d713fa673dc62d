package api

import (
	"chatwav/auth"
	"chatwav/contract"
	"chatwav/domain"
	"log/slog"
	"net/http"
)

type AuthHandler struct {
	log     *slog.Logger
	service contract.IAuthService
}

func NewAuthHandler(log *slog.Logger, service contract.IAuthService) *AuthHandler {
	return &AuthHandler{log: log, service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	user, err := h.service.Me(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		User domain.PublicUser `json:"user"`
	}{User: user})
}
