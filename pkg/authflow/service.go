package authflow

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/simple-bff/pkg/apierror"
	"github.com/tendant/simple-bff/pkg/backend"
	"github.com/tendant/simple-bff/pkg/credentials"
	"github.com/tendant/simple-bff/pkg/session"
)

// Upstream auth endpoints.
const (
	twoFactorLoginPath = "/auth/login/2fa"
	registerPath       = "/auth/register"
	logoutPath         = "/auth/logout"
	forgotPasswordPath = "/auth/forgot-password"
	resetPasswordPath  = "/auth/reset-password"
	updatePasswordPath = "/auth/update-password"
)

// Service drives the auth flows. It owns the session cookie pair through
// the injected session.Store and funnels all remote calls through the
// backend client bound to the caller's credential source.
type Service struct {
	client *backend.Client
	store  *session.Store
}

// Option configures a Service
type Option func(*Service)

// WithClient sets the backend client.
func WithClient(client *backend.Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

// WithStore sets the session store.
func WithStore(store *session.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// NewService creates a Service.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginRequest carries the credentials of a login attempt. ReturnTo is a
// caller-supplied redirect hint, honored only when it validates.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ReturnTo string `json:"-"`
}

// loginAPIResponse covers both successful shapes of POST /auth/login:
// the 2FA challenge and the direct session token.
type loginAPIResponse struct {
	Message             string    `json:"message"`
	TwoFactor           bool      `json:"two_factor"`
	LoginToken          string    `json:"login_token"`
	TwoFactorLoginRoute string    `json:"two_factor_login_route"`
	Token               string    `json:"token"`
	User                *UserData `json:"user"`
}

// Login authenticates with email and password. On a direct success it
// writes the session cookie pair to w; on a 2FA challenge it writes
// nothing and hands back the login token for the second step.
func (s *Service) Login(ctx context.Context, w http.ResponseWriter, source credentials.Source, req LoginRequest) LoginResult {
	client := s.client.WithSource(source)

	payload := map[string]string{"email": req.Email, "password": req.Password}
	var resp loginAPIResponse
	if err := client.Post(ctx, backend.LoginPath, payload, &resp, backend.SkipAuth()); err != nil {
		return loginFailure(classifyLoginError(err))
	}

	if resp.TwoFactor {
		slog.Info("login requires second factor", "email", req.Email)
		return twoFactorRequired(resp.LoginToken, resp.TwoFactorLoginRoute)
	}

	if resp.Token != "" {
		if resp.User == nil || resp.User.ID == "" {
			// Writing a session cookie without its user-id marker would
			// break the pair invariant; treat as a fatal login error.
			return loginFailure(&apierror.ApiError{
				Status:     http.StatusInternalServerError,
				Code:       apierror.CodeLoginResponseInvalid,
				Message:    "Login succeeded but response data was incomplete.",
				MessageKey: KeyLoginInvalidResponse,
			})
		}

		s.store.Set(w, resp.Token, resp.User.ID, false)
		return loginSuccess(redirectTarget(req.ReturnTo), *resp.User)
	}

	return loginFailure(&apierror.ApiError{
		Status:     http.StatusInternalServerError,
		Code:       apierror.CodeLoginResponseUnexpected,
		Message:    "Received an unexpected response structure after login.",
		MessageKey: KeyLoginUnexpectedResponse,
	})
}

// classifyLoginError applies the login-specific status table. The login
// endpoint bypasses the automatic classifier, so the raw error arrives
// here as a ResponseError or a transport failure.
func classifyLoginError(err error) *apierror.ApiError {
	var respErr *apierror.ResponseError
	if errors.As(err, &respErr) {
		code := apierror.CodeUnknownError
		messageKey := KeyLoginUnknown
		switch {
		case respErr.StatusCode == http.StatusUnauthorized:
			code = apierror.CodeInvalidCredentials
			messageKey = KeyLoginInvalidCredentials
		case respErr.StatusCode == http.StatusForbidden:
			code = apierror.CodeAccountLocked
			messageKey = KeyLoginAccountLocked
		case respErr.StatusCode >= http.StatusInternalServerError:
			code = apierror.CodeServerError
			messageKey = KeyLoginServerError
		}

		message := "Login failed"
		if respErr.Body != nil && respErr.Body.Message != "" {
			message = respErr.Body.Message
		}

		return &apierror.ApiError{
			Status:     respErr.StatusCode,
			Code:       code,
			Message:    message,
			MessageKey: messageKey,
		}
	}

	message := "Unknown error occurred"
	if err != nil {
		message = err.Error()
	}
	return &apierror.ApiError{
		Status:     http.StatusInternalServerError,
		Code:       apierror.CodeUnknownError,
		Message:    message,
		MessageKey: KeyLoginUnknown,
	}
}

// TwoFactorVerifyRequest carries the second login step. Exactly one of
// Code and RecoveryCode is sent upstream; Code takes precedence when
// both are supplied.
type TwoFactorVerifyRequest struct {
	LoginToken   string
	Code         string
	RecoveryCode string
	ReturnTo     string
}

type twoFactorLoginResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    *UserData `json:"user"`
}

// VerifyTwoFactor exchanges the short-lived login token plus a TOTP or
// recovery code for a full session. Cookies written here carry an
// explicit expiry, unlike the direct login path.
func (s *Service) VerifyTwoFactor(ctx context.Context, w http.ResponseWriter, source credentials.Source, req TwoFactorVerifyRequest) LoginResult {
	client := s.client.WithSource(source)

	payload := map[string]string{"login_token": req.LoginToken}
	if req.Code != "" {
		payload["code"] = req.Code
	} else if req.RecoveryCode != "" {
		payload["recovery_code"] = req.RecoveryCode
	}

	var resp twoFactorLoginResponse
	err := client.Post(ctx, twoFactorLoginPath, payload, &resp, backend.WithMessageKey(KeyVerify2FAError))
	if err != nil {
		apiErr := asAPIError(err, KeyVerify2FAError)
		if apiErr.Status == http.StatusUnauthorized && indicatesInvalidCode(apiErr.Message) {
			apiErr.MessageKey = KeyInvalid2FACode
		}
		return loginFailure(apiErr)
	}

	if resp.Token == "" || resp.User == nil || resp.User.ID == "" {
		return loginFailure(&apierror.ApiError{
			Status:     http.StatusInternalServerError,
			Code:       apierror.CodeLoginResponseInvalid,
			Message:    "Login succeeded but response data was incomplete.",
			MessageKey: KeyLoginInvalidResponse,
		})
	}

	s.store.Set(w, resp.Token, resp.User.ID, true)
	return loginSuccess(redirectTarget(req.ReturnTo), *resp.User)
}

// indicatesInvalidCode matches the upstream 401 messages that mean the
// second factor itself was wrong rather than the session.
func indicatesInvalidCode(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "invalid 2fa code") ||
		strings.Contains(lower, "invalid recovery code") ||
		strings.Contains(lower, "login token is invalid or expired")
}

// RegisterRequest carries a new-account registration.
type RegisterRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Language             string `json:"language"`
}

// Register creates an account. The upstream logs the user in on success,
// so the cookie contract matches the login token branch.
func (s *Service) Register(ctx context.Context, w http.ResponseWriter, source credentials.Source, req RegisterRequest) LoginResult {
	client := s.client.WithSource(source)

	var resp loginAPIResponse
	err := client.Post(ctx, registerPath, req, &resp, backend.SkipAuth(), backend.WithMessageKey(KeyRegisterUnknown))
	if err != nil {
		return loginFailure(asAPIError(err, KeyRegisterUnknown))
	}

	if resp.Token == "" || resp.User == nil || resp.User.ID == "" {
		return loginFailure(&apierror.ApiError{
			Status:     http.StatusInternalServerError,
			Code:       apierror.CodeLoginResponseInvalid,
			Message:    "Login succeeded but response data was incomplete.",
			MessageKey: KeyLoginInvalidResponse,
		})
	}

	s.store.Set(w, resp.Token, resp.User.ID, false)
	return loginSuccess(DefaultRedirect, *resp.User)
}

// Logout ends the session. The remote call is best-effort: local cookie
// state is the source of truth for "logged out", so the pair is cleared
// even when the upstream rejects the call.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, source credentials.Source) LogoutResult {
	client := s.client.WithSource(source)

	message := "logged out"
	var resp struct {
		Message string `json:"message"`
	}
	if err := client.Post(ctx, logoutPath, nil, &resp); err != nil {
		slog.Warn("remote logout failed, clearing session anyway", "err", err)
	} else if resp.Message != "" {
		message = resp.Message
	}

	s.store.Clear(w)

	return LogoutResult{
		Success:     true,
		RedirectURL: LogoutRedirect,
		Message:     message,
	}
}

// PasswordResetLinkRequest asks the upstream to mail a reset link. URL
// is the front-end page the link should land on.
type PasswordResetLinkRequest struct {
	Email string `json:"email"`
	URL   string `json:"url"`
}

// SendPasswordResetLink starts the forgot-password flow.
func (s *Service) SendPasswordResetLink(ctx context.Context, source credentials.Source, req PasswordResetLinkRequest) MessageResult {
	client := s.client.WithSource(source)

	var resp struct {
		Message string `json:"message"`
	}
	err := client.Post(ctx, forgotPasswordPath, req, &resp, backend.SkipAuth(), backend.WithMessageKey(KeyForgotUnknown))
	if err != nil {
		return messageFailure(overrideByStatus(asAPIError(err, KeyForgotUnknown), map[int]statusOverride{
			http.StatusNotFound:            {apierror.CodeEmailNotFound, KeyForgotEmailNotFound},
			http.StatusUnprocessableEntity: {apierror.CodeValidationError, KeyForgotValidation},
			http.StatusTooManyRequests:     {apierror.CodeTooManyRequests, KeyForgotTooMany},
		}, KeyForgotServerError))
	}
	return messageSuccess(resp.Message)
}

// ResetPasswordRequest completes a reset started from an emailed link.
type ResetPasswordRequest struct {
	Token                string `json:"token"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ResetPassword sets a new password using the emailed token.
func (s *Service) ResetPassword(ctx context.Context, source credentials.Source, req ResetPasswordRequest) MessageResult {
	client := s.client.WithSource(source)

	var resp struct {
		Message string `json:"message"`
	}
	err := client.Post(ctx, resetPasswordPath, req, &resp, backend.SkipAuth(), backend.WithMessageKey(KeyResetUnknown))
	if err != nil {
		return messageFailure(overrideByStatus(asAPIError(err, KeyResetUnknown), map[int]statusOverride{
			http.StatusUnauthorized:        {apierror.CodeInvalidToken, KeyResetInvalidToken},
			http.StatusUnprocessableEntity: {apierror.CodeValidationError, KeyResetValidation},
		}, KeyResetServerError))
	}
	return messageSuccess(resp.Message)
}

// UpdatePasswordRequest changes the password of the authenticated user.
type UpdatePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	LogoutAllDevices     bool   `json:"logout_all_devices,omitempty"`
	TwoFactorAuthCode    string `json:"two_factor_auth_code,omitempty"`
}

// UpdatePassword changes the current user's password.
func (s *Service) UpdatePassword(ctx context.Context, source credentials.Source, req UpdatePasswordRequest) MessageResult {
	client := s.client.WithSource(source)

	var resp struct {
		Message string `json:"message"`
	}
	err := client.Patch(ctx, updatePasswordPath, req, &resp, backend.WithMessageKey(KeyUpdateUnknown))
	if err != nil {
		return messageFailure(overrideByStatus(asAPIError(err, KeyUpdateUnknown), map[int]statusOverride{
			http.StatusUnauthorized:        {apierror.CodeInvalidCredentials, KeyUpdateInvalidCredentials},
			http.StatusUnprocessableEntity: {apierror.CodeValidationError, KeyUpdateValidation},
		}, KeyUpdateServerError))
	}
	return messageSuccess(resp.Message)
}

// asAPIError unwraps an error coming back from the backend client. The
// client already classifies everything except the login endpoint, so the
// fallback only fires for programmer errors.
func asAPIError(err error, defaultMessageKey string) *apierror.ApiError {
	var apiErr *apierror.ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return apierror.Classify(err, defaultMessageKey)
}

type statusOverride struct {
	code apierror.Code
	key  string
}

// overrideByStatus applies a flow's status table on top of the generic
// classification. Statuses outside the table keep the classifier result,
// except 5xx which always maps to the flow's server-error key.
func overrideByStatus(apiErr *apierror.ApiError, table map[int]statusOverride, serverErrorKey string) *apierror.ApiError {
	if override, ok := table[apiErr.Status]; ok {
		apiErr.Code = override.code
		apiErr.MessageKey = override.key
		return apiErr
	}
	if apiErr.Status >= http.StatusInternalServerError && apiErr.Code != apierror.CodeUnknownError {
		apiErr.Code = apierror.CodeServerError
		apiErr.MessageKey = serverErrorKey
	}
	return apiErr
}
