package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/tendant/simple-bff/pkg/apierror"
	"github.com/tendant/simple-bff/pkg/backend"
	"github.com/tendant/simple-bff/pkg/credentials"
	"github.com/tendant/simple-bff/pkg/profile"
)

// Handler returns the http.Handler for the profile surface.
func Handler(h *Handle) http.Handler {
	r := chi.NewRouter()

	r.Get("/users/me", h.GetCurrentUser)
	r.Patch("/users/{userID}", h.PatchUser)
	r.Delete("/users/me", h.DeleteAccount)
	r.Get("/organizations", h.GetOrganizations)
	r.Delete("/organizations/{orgID}/users/{userID}", h.DeleteOrganizationMember)

	return r
}

type Handle struct {
	service    *profile.Service
	credConfig credentials.Config
}

// Option configures a Handle
type Option func(*Handle)

// WithService sets the profile service.
func WithService(service *profile.Service) Option {
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

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierror.ApiError
	if !errors.As(err, &apiErr) {
		apiErr = apierror.Classify(err, apierror.KeyUnknown)
	}
	render.Status(r, apiErr.Status)
	render.JSON(w, r, map[string]any{"success": false, "error": apiErr})
}

// Get the authenticated user's profile
// (GET /users/me)
func (h *Handle) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), h.source(r))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"data": user})
}

// PatchUserJSONRequestBody is the accepted profile-update payload.
type PatchUserJSONRequestBody struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Language  string `json:"language"`
}

// Update a user's profile
// (PATCH /users/{userID})
func (h *Handle) PatchUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	data := PatchUserJSONRequestBody{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"success": false, "message": "unable to parse body"})
		return
	}

	update := profile.UserUpdate{}
	copier.Copy(&update, data)

	user, err := h.service.UpdateUser(r.Context(), h.source(r), userID, update)
	if err != nil {
		slog.Error("Failed updating user", "userID", userID, "err", err)
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"data": user})
}

// Delete the authenticated user's account
// (DELETE /users/me)
func (h *Handle) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	message, err := h.service.DeleteAccount(r.Context(), h.source(r))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "message": message})
}

// List the user's organizations
// (GET /organizations)
func (h *Handle) GetOrganizations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := backend.ListOptions{Sort: query.Get("sort")}
	if query.Get("page") != "" || query.Get("per_page") != "" {
		opts.Pagination = &backend.Pagination{
			Page:    atoiOrZero(query.Get("page")),
			PerPage: atoiOrZero(query.Get("per_page")),
		}
	}
	if query.Get("search") != "" || query.Get("status") != "" {
		opts.Filter = &backend.Filter{
			Search: query.Get("search"),
			Status: query.Get("status"),
		}
	}

	orgs, err := h.service.Organizations(r.Context(), h.source(r), opts)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if orgs == nil {
		orgs = []profile.Organization{}
	}
	render.JSON(w, r, map[string]any{"data": orgs})
}

// Remove a user from an organization
// (DELETE /organizations/{orgID}/users/{userID})
func (h *Handle) DeleteOrganizationMember(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	userID := chi.URLParam(r, "userID")

	err := h.service.RemoveMember(r.Context(), h.source(r), profile.EntityOrganization, orgID, userID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"success": true})
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
