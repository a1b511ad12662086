package twofa

import (
	"context"

	"github.com/tendant/simple-bff/pkg/backend"
	"github.com/tendant/simple-bff/pkg/credentials"
)

// Upstream 2FA management endpoints.
const (
	setupPath         = "/auth/2fa"
	confirmPath       = "/auth/2fa/confirm"
	recoveryCodesPath = "/auth/2fa/recovery-codes"
)

// Localization keys for 2FA management failures.
const (
	KeySetupError         = "profile.security.twoFactor.setupError"
	KeyVerifyError        = "profile.security.twoFactor.verifyError"
	KeyDisableError       = "profile.security.twoFactor.disableError"
	KeyRecoveryCodesError = "profile.security.twoFactor.generateBackupCodesError"
)

// Service relays 2FA management calls to the upstream API.
type Service struct {
	client *backend.Client
}

// Option configures a Service
type Option func(*Service)

// WithClient sets the backend client.
func WithClient(client *backend.Client) Option {
	return func(s *Service) {
		s.client = client
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

// SetupResponse is the upstream payload that starts 2FA enrollment. The
// QR code encodes the otpauth URL for authenticator apps.
type SetupResponse struct {
	Message string `json:"message"`
	Secret  string `json:"secret"`
	QRCode  string `json:"qr_code"`
}

// QRCode is the standalone QR payload some callers still expect; the
// upstream folded it into the setup response, so it is derived.
type QRCode struct {
	URL    string `json:"qr_code_url"`
	Image  string `json:"qr_code_image"`
	Secret string `json:"secret"`
}

// ConfirmResponse completes enrollment and hands out the first batch of
// recovery codes.
type ConfirmResponse struct {
	Message       string   `json:"message"`
	RecoveryCodes []string `json:"recovery_codes"`
}

// DisableResponse acknowledges that 2FA was turned off.
type DisableResponse struct {
	Message string `json:"message"`
}

// RecoveryCodesResponse carries a freshly generated recovery-code batch,
// replacing any previous one.
type RecoveryCodesResponse struct {
	Message       string   `json:"message"`
	RecoveryCodes []string `json:"recovery_codes"`
}

// Setup initiates 2FA enrollment for the authenticated user.
func (s *Service) Setup(ctx context.Context, source credentials.Source) (*SetupResponse, error) {
	client := s.client.WithSource(source)

	var resp SetupResponse
	if err := client.Post(ctx, setupPath, nil, &resp, backend.WithMessageKey(KeySetupError)); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetupQRCode initiates enrollment and reshapes the response into the
// standalone QR payload.
func (s *Service) SetupQRCode(ctx context.Context, source credentials.Source) (*QRCode, error) {
	resp, err := s.Setup(ctx, source)
	if err != nil {
		return nil, err
	}
	return &QRCode{
		URL:    resp.QRCode,
		Image:  resp.QRCode,
		Secret: resp.Secret,
	}, nil
}

// Confirm finishes enrollment by verifying the first TOTP code.
func (s *Service) Confirm(ctx context.Context, source credentials.Source, code string) (*ConfirmResponse, error) {
	client := s.client.WithSource(source)

	var resp ConfirmResponse
	payload := map[string]string{"code": code}
	if err := client.Post(ctx, confirmPath, payload, &resp, backend.WithMessageKey(KeyVerifyError)); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DisableRequest authorizes turning 2FA off. Code takes precedence over
// RecoveryCode when both are supplied.
type DisableRequest struct {
	Password     string
	Code         string
	RecoveryCode string
}

// Disable turns 2FA off for the authenticated user. The upstream accepts
// the authorization payload on the DELETE body.
func (s *Service) Disable(ctx context.Context, source credentials.Source, req DisableRequest) (*DisableResponse, error) {
	client := s.client.WithSource(source)

	payload := map[string]string{"password": req.Password}
	if req.Code != "" {
		payload["code"] = req.Code
	} else if req.RecoveryCode != "" {
		payload["recovery_code"] = req.RecoveryCode
	}

	var resp DisableResponse
	if err := client.Delete(ctx, setupPath, payload, &resp, backend.WithMessageKey(KeyDisableError)); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecoveryCodes generates a new recovery-code batch, invalidating the
// previous one. Requires a current TOTP code.
func (s *Service) RecoveryCodes(ctx context.Context, source credentials.Source, code string) (*RecoveryCodesResponse, error) {
	client := s.client.WithSource(source)

	var resp RecoveryCodesResponse
	payload := map[string]string{"code": code}
	if err := client.Post(ctx, recoveryCodesPath, payload, &resp, backend.WithMessageKey(KeyRecoveryCodesError)); err != nil {
		return nil, err
	}
	return &resp, nil
}
