package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/smartbill-auth/auth"
	"github.com/jrsteele09/smartbill-auth/cache"
	"github.com/jrsteele09/smartbill-auth/cache/redis"
	"github.com/jrsteele09/smartbill-auth/identity"
	"github.com/jrsteele09/smartbill-auth/internal/config"
	"github.com/jrsteele09/smartbill-auth/internal/logging"
	"github.com/jrsteele09/smartbill-auth/server"
	"github.com/jrsteele09/smartbill-auth/storage/sqlite"
	"github.com/jrsteele09/smartbill-auth/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const cleanupInterval = time.Hour

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName())
	logger := logging.New(c.GetLogLevel(), c.IsDev())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := sqlite.Open(c.GetDatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	marks, closeMarks, err := newMarkStore(c)
	if err != nil {
		return err
	}
	defer closeMarks()

	google, err := identity.NewGoogle(ctx, identity.GoogleConfig{
		ClientID:     c.GetGoogleClientID(),
		ClientSecret: c.GetGoogleClientSecret(),
		Issuer:       c.GetGoogleIssuer(),
		AuthURL:      c.GetGoogleAuthURL(),
		TokenURL:     c.GetGoogleTokenURL(),
		UserInfoURL:  c.GetGoogleUserInfoURL(),
		JWKSURL:      c.GetGoogleJWKSURL(),
		Scopes:       c.GetGoogleScopes(),
	})
	if err != nil {
		return err
	}

	issuer, err := token.NewIssuerFromSecrets(c.GetAccessTokenSecret(), c.GetRefreshTokenSecret(),
		token.WithIssuer(c.GetTokenIssuer()),
		token.WithAudience(c.GetTokenAudience()),
		token.WithTokenExpiry(c.GetDefaultAccessTokenExpiry(), c.GetDefaultRefreshTokenExpiry()),
	)
	if err != nil {
		return err
	}

	authService, err := auth.NewAuthorizationService(
		auth.Repos{Users: store, RefreshTokens: store, Marks: marks},
		google,
		issuer,
		auth.WithRedirectURI(c.GetGoogleRedirectURI()),
		auth.WithAuthCodeTimeout(c.GetAuthCodeTimeout()),
		auth.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	options := []server.Option{
		server.WithLogger(logger),
		server.WithRegisterer(prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		server.WithHealthCheck("database", store),
	}
	if checker, ok := marks.(server.HealthChecker); ok {
		options = append(options, server.WithHealthCheck("redis", checker))
	}
	handler, err := server.New(c, authService, options...)
	if err != nil {
		return err
	}
	defer handler.Close()

	go cleanupLoop(ctx, authService, logger)

	server := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(server, logger)
	waitForStopSignal()
	returnError = shutdown(server)
	return returnError
}

// newMarkStore uses redis when REDIS_URL is set so several instances share
// redeemed codes and revoked tokens.
func newMarkStore(c config.Config) (cache.MarkStore, func(), error) {
	if c.GetRedisURL() == "" {
		memory := cache.NewMemoryMarkStore()
		return memory, func() { _ = memory.Close() }, nil
	}
	shared, err := redis.NewFromURL(c.GetRedisURL(), "smartbill-auth")
	if err != nil {
		return nil, nil, err
	}
	return shared, func() { _ = shared.Close() }, nil
}

func cleanupLoop(ctx context.Context, authService *auth.AuthorizationService, logger zerolog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authService.CleanupExpired(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("refresh token cleanup failed")
				continue
			}
			logger.Debug().Int("removed", removed).Msg("expired refresh tokens removed")
		}
	}
}

func listenAndServe(server *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(fmt.Errorf("server.ListenAndServe %w", err)).Msg("server stopped")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
