package authflow

import "github.com/tendant/simple-bff/pkg/apierror"

// UserData is the user payload the upstream API returns on login.
type UserData struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Language  string `json:"language"`
}

// LoginOutcome discriminates the three login result shapes.
type LoginOutcome string

const (
	OutcomeSuccess           LoginOutcome = "success"
	OutcomeTwoFactorRequired LoginOutcome = "two_factor_required"
	OutcomeFailure           LoginOutcome = "failure"
)

// LoginResult is the discriminated result of a login or 2FA
// verification attempt. Exactly one branch is populated, per Outcome.
type LoginResult struct {
	Outcome LoginOutcome

	// OutcomeTwoFactorRequired
	LoginToken     string
	TwoFactorRoute string

	// OutcomeSuccess
	RedirectURL string
	User        UserData

	// OutcomeFailure
	Error *apierror.ApiError
}

func twoFactorRequired(loginToken, route string) LoginResult {
	return LoginResult{
		Outcome:        OutcomeTwoFactorRequired,
		LoginToken:     loginToken,
		TwoFactorRoute: route,
	}
}

func loginSuccess(redirectURL string, user UserData) LoginResult {
	return LoginResult{
		Outcome:     OutcomeSuccess,
		RedirectURL: redirectURL,
		User:        user,
	}
}

func loginFailure(err *apierror.ApiError) LoginResult {
	return LoginResult{Outcome: OutcomeFailure, Error: err}
}

// LogoutResult always carries the fixed redirect target; Error is set
// only by the defensive catch-all and leaves cookies untouched.
type LogoutResult struct {
	Success     bool
	RedirectURL string
	Message     string
	Error       *apierror.ApiError
}

// MessageResult is the shared result shape of the password flows.
type MessageResult struct {
	Success bool
	Message string
	Error   *apierror.ApiError
}

func messageSuccess(message string) MessageResult {
	return MessageResult{Success: true, Message: message}
}

func messageFailure(err *apierror.ApiError) MessageResult {
	return MessageResult{Success: false, Error: err}
}
