// auth.go — обработчики регистрации и аутентификации.
package handlers

import (
	"net/http"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register — POST /auth/register. Регистрация покупателя.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.auth.Register(r.Context(), input.Email, input.Password, input.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Login — POST /auth/login. Вход по email и паролю.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RefreshToken — POST /auth/token. Обмен refresh-токена на новую пару.
func (h *APIHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var input refreshRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.RefreshToken == "" {
		apierrors.Unauthorized(w, "Необходима авторизация")
		return
	}

	result, err := h.auth.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Logout — POST /auth/logout. Отзыв refresh-токена.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var input refreshRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.auth.Logout(r.Context(), input.RefreshToken); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
