package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chepyr/tareas/internal/server/db"
	"github.com/chepyr/tareas/internal/server/handlers"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

type serverConfig struct {
	Port           string
	Driver         string
	DSN            string
	JWTSecret      string
	AllowedOrigins []string
	LogLevel       zerolog.Level
}

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatal().Err(err).Msg("Error loading .env file")
		}
	}

	cfg, err := validateEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	dbConn := initDB(cfg)
	handler := initHandlers(cfg, dbConn)
	server := initServer(cfg, handler)
	startServer(server, handler, dbConn)
}

func validateEnv() (serverConfig, error) {
	cfg := serverConfig{
		Port:     getenv("SERVER_PORT", "8080"),
		Driver:   getenv("DATABASE_DRIVER", db.DriverSQLite),
		DSN:      os.Getenv("DATABASE_DSN"),
		LogLevel: zerolog.InfoLevel,
	}
	switch cfg.Driver {
	case db.DriverSQLite:
		if cfg.DSN == "" {
			cfg.DSN = "tareas.db"
		}
	case db.DriverPostgres:
		if cfg.DSN == "" {
			return cfg, errors.New("DATABASE_DSN must be set for postgres")
		}
	default:
		return cfg, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Driver)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if len(cfg.JWTSecret) < 32 {
		return cfg, errors.New("JWT_SECRET must be at least 32 characters")
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := zerolog.ParseLevel(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func initDB(cfg serverConfig) *sql.DB {
	dbConn, err := db.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("Failed to connect to database")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, dbConn); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	return dbConn
}

func initHandlers(cfg serverConfig, dbConn *sql.DB) *handlers.Handler {
	return &handlers.Handler{
		UserRepo: db.NewUserRepository(dbConn),
		TaskRepo: db.NewTaskRepository(dbConn),
		// allow max 5 login or sign-up attempts per 15 minutes from the same IP
		RateLimiter: handlers.NewRateLimiter(5, 15*time.Minute),
		JWTSecret:   []byte(cfg.JWTSecret),
		Logger:      log.Logger,
	}
}

func initServer(cfg serverConfig, handler *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func startServer(server *http.Server, handler *handlers.Handler, dbConn *sql.DB) {
	log.Info().Str("addr", server.Addr).Msg("Starting server")

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Info().Msg("Shutting down server")
				handler.RateLimiter.Stop()
				return server.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	if err := dbConn.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}
	log.Info().Int("code", exitCode).Msg("Server stopped")
	os.Exit(exitCode)
}
