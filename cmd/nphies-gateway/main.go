package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/sahl-health/nphies-gateway/internal/config"
	"github.com/sahl-health/nphies-gateway/internal/domain/claims"
	"github.com/sahl-health/nphies-gateway/internal/domain/eligibility"
	"github.com/sahl-health/nphies-gateway/internal/domain/preauth"
	"github.com/sahl-health/nphies-gateway/internal/platform/aiproxy"
	"github.com/sahl-health/nphies-gateway/internal/platform/auth"
	"github.com/sahl-health/nphies-gateway/internal/platform/metrics"
	"github.com/sahl-health/nphies-gateway/internal/platform/middleware"
	"github.com/sahl-health/nphies-gateway/internal/platform/nphies"
	redisclient "github.com/sahl-health/nphies-gateway/internal/platform/redis"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "nphies-gateway",
		Short: "Claims submission gateway for the NPHIES exchange",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(hashCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// tokenCmd mints a caller session token without going through /auth/login.
// Useful for smoke tests and service-to-service callers.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token for a gateway user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			role, _ := cmd.Flags().GetString("role")
			providerID, _ := cmd.Flags().GetString("provider-id")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
			token, err := tokens.Issue(auth.User{
				Username:   username,
				Role:       role,
				ProviderID: providerID,
			})
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("username", "smoke-test", "Subject username")
	cmd.Flags().String("role", "provider", "Caller role")
	cmd.Flags().String("provider-id", "1234567", "NPHIES provider identifier")
	return cmd
}

// hashCmd produces a bcrypt hash for a GATEWAY_USERS entry.
func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Hash a password for the GATEWAY_USERS list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Exchange token source: shared Redis cache when configured, otherwise
	// an in-process cache scoped to this instance.
	authenticator := &nphies.Authenticator{
		TokenURL:     cfg.NphiesBaseURL + "/oauth2/token",
		ClientID:     cfg.NphiesClientID,
		ClientSecret: cfg.NphiesClientSecret,
		HTTP:         &http.Client{Timeout: cfg.NphiesTimeout},
	}
	var tokens nphies.TokenSource = nphies.NewCachedTokenSource(authenticator)

	rdb, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb != nil {
		defer rdb.Close()
		tokens = nphies.NewRedisTokenSource(rdb.Client, authenticator, logger)
		logger.Info().Msg("using shared redis token cache")
	}

	exchange := nphies.NewClient(cfg.NphiesBaseURL, tokens, logger,
		nphies.WithHTTPClient(&http.Client{Timeout: cfg.NphiesTimeout}))

	// Caller authentication
	sessionTokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	users := auth.NewUserStore()
	if cfg.GatewayUsers != "" {
		if err := users.LoadUsers(cfg.GatewayUsers); err != nil {
			logger.Fatal().Err(err).Msg("failed to load gateway users")
		}
	} else if cfg.IsDev() {
		if err := users.SeedDev(); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed development user")
		}
		logger.Warn().Msg("GATEWAY_USERS not set; seeded development account demo.provider")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":      "ok",
			"version":     version,
			"environment": cfg.Env,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	e.GET("/metrics", metrics.Handler())

	// Unauthenticated login route
	auth.NewHandler(users, sessionTokens, logger).RegisterRoutes(e)

	// Protected API group
	api := e.Group("/api",
		auth.RequireAuth(sessionTokens, logger),
		middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
		}),
	)

	eligibility.NewHandler(eligibility.NewService(exchange), logger).RegisterRoutes(api)
	claims.NewHandler(claims.NewService(exchange), logger).RegisterRoutes(api)
	preauth.NewHandler(preauth.NewService(exchange), logger).RegisterRoutes(api)

	// AI assistant passthrough
	if cfg.AIUpstreamURL != "" {
		proxy, err := aiproxy.New(cfg.AIUpstreamURL, cfg.AIAPIKey, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid AI upstream URL")
		}
		proxy.RegisterRoutes(api)
	}

	// Start
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting gateway")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("gateway stopped")
	return nil
}
