package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-bff/pkg/authflow"
	authflowapi "github.com/tendant/simple-bff/pkg/authflow/api"
	"github.com/tendant/simple-bff/pkg/backend"
	"github.com/tendant/simple-bff/pkg/credentials"
	"github.com/tendant/simple-bff/pkg/profile"
	profileapi "github.com/tendant/simple-bff/pkg/profile/api"
	"github.com/tendant/simple-bff/pkg/ratelimit"
	"github.com/tendant/simple-bff/pkg/session"
	"github.com/tendant/simple-bff/pkg/twofa"
	twofaapi "github.com/tendant/simple-bff/pkg/twofa/api"
)

type BackendConfig struct {
	Domain       string `env:"API_DOMAIN" env-default:"api.example.com"`
	VersionMajor int    `env:"API_VERSION_MAJOR" env-default:"1"`
	Timeout      string `env:"API_TIMEOUT" env-default:"30s"`
}

type SessionConfig struct {
	SessionCookieName string `env:"SESSION_COOKIE" env-default:"session"`
	UserIDCookieName  string `env:"USER_ID_COOKIE" env-default:"user_id"`
	CookieHttpOnly    bool   `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure      bool   `env:"COOKIE_SECURE" env-default:"true"`
	// ISO 8601 (PT1H) or Go (1h) duration, or bare seconds
	ExpiresIn string `env:"SESSION_DEFAULT_EXPIRES_IN" env-default:"PT1H"`
}

type CredentialConfig struct {
	XSRFCookieName string `env:"XSRF_COOKIE" env-default:"XSRF-TOKEN"`
}

type RateLimitConfig struct {
	Enabled bool `env:"AUTH_RATE_LIMIT_ENABLED" env-default:"true"`
	// Burst per client IP; refill is per minute
	Capacity        int     `env:"AUTH_RATE_LIMIT_CAPACITY" env-default:"10"`
	RefillPerMinute float64 `env:"AUTH_RATE_LIMIT_REFILL_PER_MINUTE" env-default:"10"`
}

type Config struct {
	BackendConfig    BackendConfig
	SessionConfig    SessionConfig
	CredentialConfig CredentialConfig
	RateLimitConfig  RateLimitConfig
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	loadEnvFile()

	config := Config{}
	cleanenv.ReadEnv(&config)

	apiTimeout, err := time.ParseDuration(config.BackendConfig.Timeout)
	if err != nil {
		slog.Error("Invalid API timeout", "value", config.BackendConfig.Timeout, "err", err)
		os.Exit(-1)
	}

	expiresIn, err := session.ParseExpiry(config.SessionConfig.ExpiresIn)
	if err != nil {
		slog.Error("Invalid session expiry", "value", config.SessionConfig.ExpiresIn, "err", err)
		os.Exit(-1)
	}

	backendConfig := backend.Config{
		Domain:       config.BackendConfig.Domain,
		VersionMajor: config.BackendConfig.VersionMajor,
		Timeout:      apiTimeout,
	}
	client := backend.NewClient(backendConfig)
	slog.Info("Upstream API configured", "base_url", backendConfig.BaseURL())

	store := session.NewStore(session.Config{
		SessionCookieName: config.SessionConfig.SessionCookieName,
		UserIDCookieName:  config.SessionConfig.UserIDCookieName,
		HTTPOnly:          config.SessionConfig.CookieHttpOnly,
		Secure:            config.SessionConfig.CookieSecure,
		ExpiresIn:         expiresIn,
	}, session.WithRevalidator(session.RevalidatorFunc(func(path string) {
		slog.Debug("auth state changed", "path", path)
	})))

	credConfig := credentials.Config{
		SessionCookieName: config.SessionConfig.SessionCookieName,
		XSRFCookieName:    config.CredentialConfig.XSRFCookieName,
	}

	authflowService := authflow.NewService(
		authflow.WithClient(client),
		authflow.WithStore(store),
	)
	authflowHandle := authflowapi.NewHandle(
		authflowapi.WithService(authflowService),
		authflowapi.WithCredentialConfig(credConfig),
	)

	twofaService := twofa.NewService(twofa.WithClient(client))
	twofaHandle := twofaapi.NewHandle(
		twofaapi.WithService(twofaService),
		twofaapi.WithCredentialConfig(credConfig),
	)

	profileService := profile.NewService(profile.WithClient(client))
	profileHandle := profileapi.NewHandle(
		profileapi.WithService(profileService),
		profileapi.WithCredentialConfig(credConfig),
	)

	server := app.DefaultApp()

	app.RegisterHealthzRoutes(server.R)

	authHandler := authflowapi.Handler(authflowHandle)
	if config.RateLimitConfig.Enabled {
		limiter := ratelimit.NewLimiter(
			config.RateLimitConfig.Capacity,
			config.RateLimitConfig.RefillPerMinute/60.0,
		)
		authHandler = limiter.Handler(authHandler)
		slog.Info("Auth rate limiting enabled",
			"capacity", config.RateLimitConfig.Capacity,
			"refill_per_minute", config.RateLimitConfig.RefillPerMinute)
	}

	server.R.Mount("/auth", authHandler)
	server.R.Mount("/auth/2fa", twofaapi.Handler(twofaHandle))
	server.R.Mount("/", profileapi.Handler(profileHandle))

	server.Run()
}

// loadEnvFile loads a .env file from the executable directory or the
// working directory, when one exists.
func loadEnvFile() {
	execPath, err := os.Executable()
	if err != nil {
		slog.Error("Failed to get executable path", "err", err)
		return
	}
	envFile := filepath.Join(filepath.Dir(execPath), ".env")

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		cwd, err := os.Getwd()
		if err != nil {
			slog.Error("Failed to get current working directory", "err", err)
			return
		}
		envFile = filepath.Join(cwd, ".env")
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Info("No .env file found, using environment variables", "path", envFile)
		return
	}

	if err := godotenv.Load(envFile); err != nil {
		slog.Error("Failed to load .env file", "err", err, "path", envFile)
		return
	}
	slog.Info("Configuration loaded from .env file", "path", envFile)
}
