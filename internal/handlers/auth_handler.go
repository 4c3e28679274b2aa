package handlers

import (
	"errors"
	"net/http"

	"billing-backend/internal/billing"
	"billing-backend/internal/logger"
	"billing-backend/internal/models"
	"billing-backend/internal/services"
	"billing-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.UserService
}

func NewAuthHandler(s *services.UserService) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.Decode(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		var verr *billing.ValidationError
		switch {
		case errors.As(err, &verr):
			writeFailure(r.Context(), w, err)
		case errors.Is(err, services.ErrAccountSuspended):
			utils.Error(w, http.StatusForbidden, "Account suspended. Please contact administrator.")
		case errors.Is(err, services.ErrInvalidCredentials):
			utils.Error(w, http.StatusUnauthorized, err.Error())
		default:
			log := logger.WithComponent("auth")
			log.Error().Err(err).Msg("login failed")
			utils.Error(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	utils.JSON(w, http.StatusOK, authResp)
}
