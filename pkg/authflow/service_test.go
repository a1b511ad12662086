package authflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-bff/pkg/apierror"
	"github.com/tendant/simple-bff/pkg/backend"
	"github.com/tendant/simple-bff/pkg/credentials"
	"github.com/tendant/simple-bff/pkg/session"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := backend.NewClient(backend.DefaultConfig(), backend.WithBaseURL(server.URL))
	store := session.NewStore(session.DefaultConfig())
	return NewService(WithClient(client), WithStore(store))
}

func testSource() credentials.Source {
	return credentials.NewBrowserSource(credentials.DefaultConfig(), "")
}

func sessionCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLoginTwoFactorBranchWritesNoCookies(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"two_factor":             true,
			"message":                "2FA required",
			"login_token":            "lt-1",
			"two_factor_login_route": "/auth/login/2fa",
		})
	})
	rec := httptest.NewRecorder()

	result := svc.Login(context.Background(), rec, testSource(), LoginRequest{Email: "a@b.c", Password: "pw"})

	assert.Equal(t, OutcomeTwoFactorRequired, result.Outcome)
	assert.Equal(t, "lt-1", result.LoginToken)
	assert.Equal(t, "/auth/login/2fa", result.TwoFactorRoute)
	assert.Empty(t, rec.Result().Cookies(), "2FA challenge must not create a session")
}

func TestLoginSuccessWritesCookiePair(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "login must skip auth")
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "ok",
			"token":   "tok-1",
			"user":    map[string]any{"id": "u1", "email": "a@b.c"},
		})
	})
	rec := httptest.NewRecorder()

	result := svc.Login(context.Background(), rec, testSource(), LoginRequest{
		Email: "a@b.c", Password: "pw", ReturnTo: "/dashboard",
	})

	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "/dashboard", result.RedirectURL)
	assert.Equal(t, "u1", result.User.ID)

	cookies := sessionCookies(rec)
	require.Len(t, cookies, 2)
	assert.Equal(t, "tok-1", cookies[session.DefaultSessionCookieName].Value)
	assert.Equal(t, "u1", cookies[session.DefaultUserIDCookieName].Value)
}

func TestLoginInvalidReturnToFallsBack(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": "u1"},
		})
	})
	rec := httptest.NewRecorder()

	result := svc.Login(context.Background(), rec, testSource(), LoginRequest{
		Email: "a@b.c", Password: "pw", ReturnTo: "http://evil.com",
	})

	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, DefaultRedirect, result.RedirectURL)
}

func TestLoginMissingUserIDIsFatal(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": ""},
		})
	})
	rec := httptest.NewRecorder()

	result := svc.Login(context.Background(), rec, testSource(), LoginRequest{Email: "a@b.c", Password: "pw"})

	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, apierror.CodeLoginResponseInvalid, result.Error.Code)
	assert.Empty(t, rec.Result().Cookies(), "no cookies without a user id")
}

func TestLoginUnexpectedShape(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"message": "hello"})
	})
	rec := httptest.NewRecorder()

	result := svc.Login(context.Background(), rec, testSource(), LoginRequest{Email: "a@b.c", Password: "pw"})

	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, apierror.CodeLoginResponseUnexpected, result.Error.Code)
}

func TestLoginErrorTable(t *testing.T) {
	tests := []struct {
		status   int
		wantCode apierror.Code
		wantKey  string
	}{
		{http.StatusUnauthorized, apierror.CodeInvalidCredentials, KeyLoginInvalidCredentials},
		{http.StatusForbidden, apierror.CodeAccountLocked, KeyLoginAccountLocked},
		{http.StatusInternalServerError, apierror.CodeServerError, KeyLoginServerError},
		{http.StatusBadGateway, apierror.CodeServerError, KeyLoginServerError},
		{http.StatusTeapot, apierror.CodeUnknownError, KeyLoginUnknown},
	}

	for _, tc := range tests {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, tc.status, map[string]any{"message": "denied"})
		})
		rec := httptest.NewRecorder()

		result := svc.Login(context.Background(), rec, testSource(), LoginRequest{Email: "a@b.c", Password: "pw"})

		require.Equal(t, OutcomeFailure, result.Outcome, "status %d", tc.status)
		assert.Equal(t, tc.wantCode, result.Error.Code, "status %d", tc.status)
		assert.Equal(t, tc.wantKey, result.Error.MessageKey, "status %d", tc.status)
		assert.Equal(t, tc.status, result.Error.Status)
		assert.Equal(t, "denied", result.Error.Message)
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestLoginTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := backend.NewClient(backend.DefaultConfig(), backend.WithBaseURL(server.URL))
	svc := NewService(WithClient(client), WithStore(session.NewStore(session.DefaultConfig())))
	rec := httptest.NewRecorder()

	result := svc.Login(context.Background(), rec, testSource(), LoginRequest{Email: "a@b.c", Password: "pw"})

	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, apierror.CodeUnknownError, result.Error.Code)
	assert.Equal(t, KeyLoginUnknown, result.Error.MessageKey)
	assert.Equal(t, http.StatusInternalServerError, result.Error.Status)
}

func TestVerifyTwoFactorSuccess(t *testing.T) {
	var gotBody map[string]string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"token":   "tok-2",
			"user":    map[string]any{"id": "u2"},
		})
	})
	rec := httptest.NewRecorder()

	result := svc.VerifyTwoFactor(context.Background(), rec, testSource(), TwoFactorVerifyRequest{
		LoginToken: "lt-1", Code: "123456", ReturnTo: "/reports",
	})

	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "/reports", result.RedirectURL)
	assert.Equal(t, map[string]string{"login_token": "lt-1", "code": "123456"}, gotBody)

	cookies := sessionCookies(rec)
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.False(t, c.Expires.IsZero(), "2FA cookies carry an explicit expiry")
	}
}

func TestVerifyTwoFactorCodePrecedence(t *testing.T) {
	var gotBody map[string]string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		respondJSON(w, http.StatusOK, map[string]any{
			"token": "tok", "user": map[string]any{"id": "u1"},
		})
	})

	svc.VerifyTwoFactor(context.Background(), httptest.NewRecorder(), testSource(), TwoFactorVerifyRequest{
		LoginToken: "lt", Code: "111111", RecoveryCode: "recov",
	})

	assert.Equal(t, "111111", gotBody["code"])
	_, hasRecovery := gotBody["recovery_code"]
	assert.False(t, hasRecovery, "code takes precedence over recovery code")
}

func TestVerifyTwoFactorRecoveryCodeOnly(t *testing.T) {
	var gotBody map[string]string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		respondJSON(w, http.StatusOK, map[string]any{
			"token": "tok", "user": map[string]any{"id": "u1"},
		})
	})

	svc.VerifyTwoFactor(context.Background(), httptest.NewRecorder(), testSource(), TwoFactorVerifyRequest{
		LoginToken: "lt", RecoveryCode: "recov",
	})

	assert.Equal(t, "recov", gotBody["recovery_code"])
}

func TestVerifyTwoFactorInvalidCode(t *testing.T) {
	tests := []struct {
		message string
		wantKey string
	}{
		{"Invalid 2FA code", KeyInvalid2FACode},
		{"Invalid recovery code", KeyInvalid2FACode},
		{"Login token is invalid or expired", KeyInvalid2FACode},
		{"session revoked", apierror.KeyUnauthenticated},
	}

	for _, tc := range tests {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusUnauthorized, map[string]any{"message": tc.message})
		})
		rec := httptest.NewRecorder()

		result := svc.VerifyTwoFactor(context.Background(), rec, testSource(), TwoFactorVerifyRequest{
			LoginToken: "lt", Code: "000000",
		})

		require.Equal(t, OutcomeFailure, result.Outcome, tc.message)
		assert.Equal(t, tc.wantKey, result.Error.MessageKey, tc.message)
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestRegisterSuccess(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusCreated, map[string]any{
			"message": "registered",
			"token":   "tok-3",
			"user":    map[string]any{"id": "u3"},
		})
	})
	rec := httptest.NewRecorder()

	result := svc.Register(context.Background(), rec, testSource(), RegisterRequest{
		Email: "new@b.c", Password: "pw", PasswordConfirmation: "pw",
	})

	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, DefaultRedirect, result.RedirectURL)
	assert.Len(t, sessionCookies(rec), 2)
}

func TestLogoutClearsCookiesEvenOnRemoteFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})
	rec := httptest.NewRecorder()

	result := svc.Logout(context.Background(), rec, testSource())

	assert.True(t, result.Success)
	assert.Equal(t, LogoutRedirect, result.RedirectURL)

	cookies := sessionCookies(rec)
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, -1, c.MaxAge, "cookie %s must be deleted", c.Name)
	}
}

func TestLogoutUsesRemoteMessage(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"message": "bye"})
	})
	rec := httptest.NewRecorder()

	result := svc.Logout(context.Background(), rec, testSource())

	assert.True(t, result.Success)
	assert.Equal(t, "bye", result.Message)
	assert.Len(t, sessionCookies(rec), 2)
}

func TestSendPasswordResetLinkTable(t *testing.T) {
	tests := []struct {
		status   int
		wantCode apierror.Code
		wantKey  string
	}{
		{http.StatusNotFound, apierror.CodeEmailNotFound, KeyForgotEmailNotFound},
		{http.StatusUnprocessableEntity, apierror.CodeValidationError, KeyForgotValidation},
		{http.StatusTooManyRequests, apierror.CodeTooManyRequests, KeyForgotTooMany},
		{http.StatusBadGateway, apierror.CodeServerError, KeyForgotServerError},
	}

	for _, tc := range tests {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, tc.status, map[string]any{"message": "nope"})
		})

		result := svc.SendPasswordResetLink(context.Background(), testSource(), PasswordResetLinkRequest{
			Email: "a@b.c", URL: "https://app.example.com/reset-password",
		})

		require.False(t, result.Success, "status %d", tc.status)
		assert.Equal(t, tc.wantCode, result.Error.Code, "status %d", tc.status)
		assert.Equal(t, tc.wantKey, result.Error.MessageKey, "status %d", tc.status)
	}
}

func TestSendPasswordResetLinkSuccess(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"message": "link sent"})
	})

	result := svc.SendPasswordResetLink(context.Background(), testSource(), PasswordResetLinkRequest{Email: "a@b.c"})

	assert.True(t, result.Success)
	assert.Equal(t, "link sent", result.Message)
}

func TestResetPasswordTable(t *testing.T) {
	tests := []struct {
		status   int
		wantCode apierror.Code
		wantKey  string
	}{
		{http.StatusUnauthorized, apierror.CodeInvalidToken, KeyResetInvalidToken},
		{http.StatusUnprocessableEntity, apierror.CodeValidationError, KeyResetValidation},
		{http.StatusInternalServerError, apierror.CodeServerError, KeyResetServerError},
	}

	for _, tc := range tests {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, tc.status, map[string]any{"message": "nope"})
		})

		result := svc.ResetPassword(context.Background(), testSource(), ResetPasswordRequest{
			Token: "rt", Email: "a@b.c", Password: "pw", PasswordConfirmation: "pw",
		})

		require.False(t, result.Success, "status %d", tc.status)
		assert.Equal(t, tc.wantCode, result.Error.Code, "status %d", tc.status)
		assert.Equal(t, tc.wantKey, result.Error.MessageKey, "status %d", tc.status)
	}
}

func TestUpdatePasswordTable(t *testing.T) {
	tests := []struct {
		status   int
		wantCode apierror.Code
		wantKey  string
	}{
		{http.StatusUnauthorized, apierror.CodeInvalidCredentials, KeyUpdateInvalidCredentials},
		{http.StatusUnprocessableEntity, apierror.CodeValidationError, KeyUpdateValidation},
		{http.StatusInternalServerError, apierror.CodeServerError, KeyUpdateServerError},
	}

	for _, tc := range tests {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, tc.status, map[string]any{"message": "nope"})
		})

		result := svc.UpdatePassword(context.Background(), testSource(), UpdatePasswordRequest{
			CurrentPassword: "old", Password: "new", PasswordConfirmation: "new",
		})

		require.False(t, result.Success, "status %d", tc.status)
		assert.Equal(t, tc.wantCode, result.Error.Code, "status %d", tc.status)
		assert.Equal(t, tc.wantKey, result.Error.MessageKey, "status %d", tc.status)
	}
}

func TestUpdatePasswordSuccess(t *testing.T) {
	var gotMethod string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		respondJSON(w, http.StatusOK, map[string]any{"message": "updated"})
	})

	result := svc.UpdatePassword(context.Background(), testSource(), UpdatePasswordRequest{
		CurrentPassword: "old", Password: "new", PasswordConfirmation: "new",
	})

	assert.True(t, result.Success)
	assert.Equal(t, http.MethodPatch, gotMethod)
}
