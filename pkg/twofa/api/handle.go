package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-bff/pkg/apierror"
	"github.com/tendant/simple-bff/pkg/credentials"
	"github.com/tendant/simple-bff/pkg/twofa"
)

// Handler returns the http.Handler for the 2FA management surface,
// mounted under /auth/2fa.
func Handler(h *Handle) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.PostSetup)
	r.Get("/qr-code", h.GetQRCode)
	r.Post("/confirm", h.PostConfirm)
	r.Delete("/", h.Delete)
	r.Post("/recovery-codes", h.PostRecoveryCodes)

	return r
}

type Handle struct {
	service    *twofa.Service
	credConfig credentials.Config
}

// Option configures a Handle
type Option func(*Handle)

// WithService sets the 2FA service.
func WithService(service *twofa.Service) Option {
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

// renderError writes the classified error with its upstream status.
func renderError(w http.ResponseWriter, r *http.Request, err error, defaultMessageKey string) {
	var apiErr *apierror.ApiError
	if !errors.As(err, &apiErr) {
		apiErr = apierror.Classify(err, defaultMessageKey)
	}
	render.Status(r, apiErr.Status)
	render.JSON(w, r, map[string]any{"success": false, "error": apiErr})
}

// Initiate 2FA enrollment
// (POST /auth/2fa)
func (h *Handle) PostSetup(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Setup(r.Context(), h.source(r))
	if err != nil {
		renderError(w, r, err, twofa.KeySetupError)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "data": resp})
}

// Fetch the enrollment QR code
// (GET /auth/2fa/qr-code)
func (h *Handle) GetQRCode(w http.ResponseWriter, r *http.Request) {
	qr, err := h.service.SetupQRCode(r.Context(), h.source(r))
	if err != nil {
		renderError(w, r, err, twofa.KeySetupError)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "data": qr})
}

// Confirm enrollment with the first TOTP code
// (POST /auth/2fa/confirm)
func (h *Handle) PostConfirm(w http.ResponseWriter, r *http.Request) {
	var data struct {
		Code string `json:"code"`
	}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"success": false, "message": "unable to parse body"})
		return
	}

	resp, err := h.service.Confirm(r.Context(), h.source(r), data.Code)
	if err != nil {
		renderError(w, r, err, twofa.KeyVerifyError)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "data": resp})
}

// Disable 2FA
// (DELETE /auth/2fa)
func (h *Handle) Delete(w http.ResponseWriter, r *http.Request) {
	var data struct {
		Password     string `json:"password"`
		Code         string `json:"code"`
		RecoveryCode string `json:"recovery_code"`
	}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"success": false, "message": "unable to parse body"})
		return
	}

	resp, err := h.service.Disable(r.Context(), h.source(r), twofa.DisableRequest{
		Password:     data.Password,
		Code:         data.Code,
		RecoveryCode: data.RecoveryCode,
	})
	if err != nil {
		renderError(w, r, err, twofa.KeyDisableError)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "data": resp})
}

// Regenerate recovery codes
// (POST /auth/2fa/recovery-codes)
func (h *Handle) PostRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	var data struct {
		Code string `json:"code"`
	}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"success": false, "message": "unable to parse body"})
		return
	}

	resp, err := h.service.RecoveryCodes(r.Context(), h.source(r), data.Code)
	if err != nil {
		renderError(w, r, err, twofa.KeyRecoveryCodesError)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "data": resp})
}
