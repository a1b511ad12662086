package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-bff/pkg/authflow"
	"github.com/tendant/simple-bff/pkg/credentials"
)

// Handler returns the http.Handler for the auth surface, mounted under
// /auth.
func Handler(h *Handle) http.Handler {
	r := chi.NewRouter()

	r.Post("/login", h.PostLogin)
	r.Post("/login/2fa", h.PostLogin2FA)
	r.Post("/register", h.PostRegister)
	r.Post("/logout", h.PostLogout)
	r.Post("/forgot-password", h.PostForgotPassword)
	r.Post("/reset-password", h.PostResetPassword)
	r.Patch("/update-password", h.PatchUpdatePassword)

	return r
}

type Handle struct {
	service    *authflow.Service
	credConfig credentials.Config
}

// Option configures a Handle
type Option func(*Handle)

// WithService sets the auth flow service.
func WithService(service *authflow.Service) Option {
	return func(h *Handle) {
		h.service = service
	}
}

// WithCredentialConfig sets the cookie names used to resolve inbound
// credentials.
func WithCredentialConfig(config credentials.Config) Option {
	return func(h *Handle) {
		h.credConfig = config
	}
}

// NewHandle creates a new Handle
func NewHandle(opts ...Option) *Handle {
	h := &Handle{credConfig: credentials.DefaultConfig()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) source(r *http.Request) credentials.Source {
	return credentials.NewServerSource(h.credConfig, r)
}

func badBody(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]any{"success": false, "message": "unable to parse body"})
}

// renderLoginResult writes one of the three login result shapes. The
// failure branch reuses the upstream status so the front-end sees the
// same code the API produced.
func renderLoginResult(w http.ResponseWriter, r *http.Request, result authflow.LoginResult) {
	switch result.Outcome {
	case authflow.OutcomeTwoFactorRequired:
		render.JSON(w, r, map[string]any{
			"success":             true,
			"two_factor_required": true,
			"login_token":         result.LoginToken,
			"two_factor_route":    result.TwoFactorRoute,
		})
	case authflow.OutcomeSuccess:
		render.JSON(w, r, map[string]any{
			"success":      true,
			"redirect_url": result.RedirectURL,
			"user":         result.User,
		})
	default:
		render.Status(r, result.Error.Status)
		render.JSON(w, r, map[string]any{"success": false, "error": result.Error})
	}
}

func renderMessageResult(w http.ResponseWriter, r *http.Request, result authflow.MessageResult) {
	if !result.Success {
		render.Status(r, result.Error.Status)
		render.JSON(w, r, map[string]any{"success": false, "error": result.Error})
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "message": result.Message})
}

// Authenticate with email and password
// (POST /auth/login)
func (h *Handle) PostLogin(w http.ResponseWriter, r *http.Request) {
	var data struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		ReturnTo string `json:"return_to"`
	}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		badBody(w, r)
		return
	}

	result := h.service.Login(r.Context(), w, h.source(r), authflow.LoginRequest{
		Email:    data.Email,
		Password: data.Password,
		ReturnTo: data.ReturnTo,
	})
	renderLoginResult(w, r, result)
}

// Verify the second factor of a login
// (POST /auth/login/2fa)
func (h *Handle) PostLogin2FA(w http.ResponseWriter, r *http.Request) {
	var data struct {
		LoginToken   string `json:"login_token"`
		Code         string `json:"code"`
		RecoveryCode string `json:"recovery_code"`
		ReturnTo     string `json:"return_to"`
	}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		badBody(w, r)
		return
	}

	result := h.service.VerifyTwoFactor(r.Context(), w, h.source(r), authflow.TwoFactorVerifyRequest{
		LoginToken:   data.LoginToken,
		Code:         data.Code,
		RecoveryCode: data.RecoveryCode,
		ReturnTo:     data.ReturnTo,
	})
	renderLoginResult(w, r, result)
}

// Register a new account
// (POST /auth/register)
func (h *Handle) PostRegister(w http.ResponseWriter, r *http.Request) {
	data := authflow.RegisterRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		badBody(w, r)
		return
	}

	result := h.service.Register(r.Context(), w, h.source(r), data)
	renderLoginResult(w, r, result)
}

// End the session
// (POST /auth/logout)
func (h *Handle) PostLogout(w http.ResponseWriter, r *http.Request) {
	result := h.service.Logout(r.Context(), w, h.source(r))
	render.JSON(w, r, map[string]any{
		"success":      result.Success,
		"redirect_url": result.RedirectURL,
		"message":      result.Message,
	})
}

// Request a password-reset email
// (POST /auth/forgot-password)
func (h *Handle) PostForgotPassword(w http.ResponseWriter, r *http.Request) {
	data := authflow.PasswordResetLinkRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		badBody(w, r)
		return
	}

	renderMessageResult(w, r, h.service.SendPasswordResetLink(r.Context(), h.source(r), data))
}

// Complete a password reset from an emailed link
// (POST /auth/reset-password)
func (h *Handle) PostResetPassword(w http.ResponseWriter, r *http.Request) {
	data := authflow.ResetPasswordRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		badBody(w, r)
		return
	}

	renderMessageResult(w, r, h.service.ResetPassword(r.Context(), h.source(r), data))
}

// Change the authenticated user's password
// (PATCH /auth/update-password)
func (h *Handle) PatchUpdatePassword(w http.ResponseWriter, r *http.Request) {
	data := authflow.UpdatePasswordRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		badBody(w, r)
		return
	}

	renderMessageResult(w, r, h.service.UpdatePassword(r.Context(), h.source(r), data))
}
