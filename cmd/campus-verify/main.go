package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/campuslink/campus-verify/pkg/account"
	"github.com/campuslink/campus-verify/pkg/config"
	"github.com/campuslink/campus-verify/pkg/gate"
	"github.com/campuslink/campus-verify/pkg/gate/api"
	"github.com/campuslink/campus-verify/pkg/notice"
	"github.com/campuslink/campus-verify/pkg/verifytoken"
)

type Config struct {
	DbConfig     config.DatabaseConfig
	EmailConfig  config.EmailConfig
	JwtConfig    config.JWTConfig
	VerifyConfig config.VerifyConfig
	AppConfig    app.AppConfig
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting Campus Verify Service")

	loadEnvFile()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}

	emailTTL, err := cfg.VerifyConfig.ParseEmailVerificationExpiry()
	if err != nil {
		slog.Error("Invalid EMAIL_VERIFICATION_EXPIRY", "error", err)
		os.Exit(1)
	}
	resetTTL, err := cfg.VerifyConfig.ParsePasswordResetExpiry()
	if err != nil {
		slog.Error("Invalid PASSWORD_RESET_EXPIRY", "error", err)
		os.Exit(1)
	}
	resendWindow, err := cfg.VerifyConfig.ParseResendWindow()
	if err != nil {
		slog.Error("Invalid VERIFICATION_RESEND_WINDOW", "error", err)
		os.Exit(1)
	}
	purgeInterval, err := cfg.VerifyConfig.ParsePurgeInterval()
	if err != nil {
		slog.Error("Invalid TOKEN_PURGE_INTERVAL", "error", err)
		os.Exit(1)
	}

	repoConfig := verifytoken.RepositoryConfig{
		DataDir: filepath.Join(cfg.VerifyConfig.DataDir, "tokens"),
	}
	accountRepoConfig := account.RepositoryConfig{
		DataDir: filepath.Join(cfg.VerifyConfig.DataDir, "accounts"),
	}

	if cfg.VerifyConfig.PersistenceType == "postgres" || cfg.VerifyConfig.PersistenceType == "postgresql" {
		pool, err := pgxpool.New(context.Background(), cfg.DbConfig.ToDatabaseURL())
		if err != nil {
			slog.Error("Failed to connect to database",
				"host", cfg.DbConfig.Host,
				"port", cfg.DbConfig.Port,
				"database", cfg.DbConfig.Database,
				"error", err)
			os.Exit(1)
		}
		defer pool.Close()

		slog.Info("Database connected", "database", cfg.DbConfig.Database, "schema", cfg.DbConfig.Schema)
		repoConfig.Pool = pool
		accountRepoConfig.Pool = pool
	}

	tokenRepo, err := verifytoken.NewTokenRepository(cfg.VerifyConfig.PersistenceType, repoConfig)
	if err != nil {
		slog.Error("Failed to create token repository", "error", err)
		os.Exit(1)
	}

	accountRepo, err := account.NewAccountRepository(cfg.VerifyConfig.PersistenceType, accountRepoConfig)
	if err != nil {
		slog.Error("Failed to create account repository", "error", err)
		os.Exit(1)
	}

	tokenService := verifytoken.NewTokenService(tokenRepo,
		verifytoken.WithEmailVerificationTTL(emailTTL),
		verifytoken.WithPasswordResetTTL(resetTTL),
	)

	noticeService, err := notice.NewService(cfg.VerifyConfig.BaseURL,
		notice.WithSMTP(cfg.EmailConfig.ToSMTPConfig()),
	)
	if err != nil {
		slog.Error("Failed to initialize notice service", "error", err)
		os.Exit(1)
	}

	gateService := gate.NewGateService(tokenService, accountRepo, noticeService,
		gate.WithResendLimit(cfg.VerifyConfig.ResendLimit),
		gate.WithResendWindow(resendWindow),
	)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JwtConfig.Secret), nil)
	api.Routes(server.R, api.NewHandler(gateService), tokenAuth)

	if purgeInterval > 0 {
		go runTokenPurge(context.Background(), tokenService, purgeInterval)
	}

	slog.Info("Campus Verify Service ready",
		"base_url", cfg.VerifyConfig.BaseURL,
		"persistence", cfg.VerifyConfig.PersistenceType)

	server.Run()
}

// runTokenPurge deletes dead token records on a fixed interval.
func runTokenPurge(ctx context.Context, tokens *verifytoken.TokenService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := tokens.PurgeExpired(ctx); err != nil {
				slog.Error("Token purge failed", "error", err)
			}
		}
	}
}

func loadEnvFile() {
	execPath, err := os.Executable()
	if err != nil {
		return
	}

	envFile := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		cwd, _ := os.Getwd()
		envFile = filepath.Join(cwd, ".env")
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("Failed to load .env file", "path", envFile, "error", err)
		} else {
			slog.Info("Loaded environment from file", "path", envFile)
		}
	}
}
