package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/datashare"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,max=255,strict_email,email"`
	Password string `json:"password" validate:"required,min=8,max=100,password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type loginResponse struct {
	Message     string   `json:"message"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
}

type meResponse struct {
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	fields, err := h.decodeAndValidate(w, r, &req)
	if err != nil {
		HandleError(w, err)
		return
	}
	if fields != nil {
		WriteValidationError(w, fields)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, datashare.ErrEmailInUse) {
			WriteError(w, http.StatusBadRequest, "email_in_use", "Email is already in use: "+req.Email)
			return
		}
		HandleError(w, err)
		return
	}

	slog.Info("user registered", "email", user.Email)

	_ = WriteJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		Email:   user.Email,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	fields, err := h.decodeAndValidate(w, r, &req)
	if err != nil {
		HandleError(w, err)
		return
	}
	if fields != nil {
		WriteValidationError(w, fields)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(res.Token, int(h.config.Cookie.MaxAge.Seconds())))
	slog.Info("user logged in", "email", res.User.Email)

	p := datashare.Principal{ID: res.User.ID, Email: res.User.Email}
	_ = WriteJSON(w, http.StatusOK, loginResponse{
		Message:     "Login successful",
		Email:       res.User.Email,
		Authorities: p.Authorities(),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	_ = WriteJSON(w, http.StatusOK, meResponse{Email: p.Email, Authorities: p.Authorities()})
}

// handleLogout clears the cookie. The credential itself stays valid until
// it expires; nothing is revoked server side.
func (h *Handler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// sessionCookie builds the credential cookie. A negative maxAge writes
// Max-Age=0, which tells the browser to drop it.
func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.config.Cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.Cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
