package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cleanhq/cleaner/auth"
	"github.com/cleanhq/cleaner/cleaning"
	"github.com/cleanhq/cleaner/clients"
	"github.com/cleanhq/cleaner/internal/config"
	"github.com/cleanhq/cleaner/mongodb"
	"github.com/cleanhq/cleaner/server"
	"github.com/cleanhq/cleaner/token"
	tokencache "github.com/cleanhq/cleaner/token/cache"
	redistokencache "github.com/cleanhq/cleaner/token/cache/redis"
	"github.com/cleanhq/cleaner/users"
)

const (
	shutdownTimeout = 5 * time.Second
	cacheTTL        = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Environment)
	displayAppName(cfg.AppName)

	ctx := context.Background()
	mongoClient, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	db := mongoClient.Database(cfg.MongoDatabase)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		return err
	}
	tokens, err := token.NewManager(codec, mongodb.NewTokenRepo(db),
		token.WithTokenTTLs(cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		token.WithCache(tokenCache(cfg)),
	)
	if err != nil {
		return err
	}

	clientService, err := clients.NewService(mongodb.NewClientRepo(db))
	if err != nil {
		return err
	}
	userService, err := users.NewService(mongodb.NewUserRepo(db))
	if err != nil {
		return err
	}
	authService, err := auth.NewAuthorizationService(auth.Deps{
		Codes:   mongodb.NewCodeRepo(db),
		Clients: clientService,
		Users:   userService,
		Tokens:  tokens,
	}, auth.WithCodeTTL(cfg.AuthCodeTTL))
	if err != nil {
		return err
	}
	cleaningService, err := cleaning.NewService(mongodb.NewRoomRepo(db), mongodb.NewZoneRepo(db))
	if err != nil {
		return err
	}

	srv, err := server.New(server.Deps{
		Auth:     authService,
		Tokens:   tokens,
		Clients:  clientService,
		Users:    userService,
		Cleaning: cleaningService,
	},
		server.WithAddr(cfg.Port),
		server.WithLogger(log.Logger),
		server.WithAllowedOrigins(cfg.AllowedOrigins),
	)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-stopSignal():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// tokenCache picks Redis when an address is configured, so multiple instances
// share revocation state; otherwise an in-process cache.
func tokenCache(cfg *config.Config) token.Cache {
	if cfg.RedisAddr == "" {
		return tokencache.NewMemory(cacheTTL)
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	return redistokencache.NewStore(client, cfg.AppName, cacheTTL)
}

func stopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func setupLogging(environment string) {
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func displayAppName(appName string) {
	figure.NewFigure(appName, "cybermedium", true).Print()
	fmt.Println()
}
