package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mealtrust/internal/middleware"
	"mealtrust/internal/service"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges a unique code and password for a bearer token
// @Summary Login
// @Tags Auth
// @Accept json
// @Param credentials body object{code=string,password=string} true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string `json:"code"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.authService.Login(req.Code, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		handleServiceError(w, err)
		return
	}
	JSONResponse(w, result)
}

// Me returns the authenticated actor
// @Summary Current actor
// @Tags Auth
// @Security BearerAuth
// @Success 200 {object} models.Actor
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
		return
	}
	JSONResponse(w, actor)
}
