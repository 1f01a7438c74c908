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

	"github.com/labkatalog/labkatalog/internal/config"
	"github.com/labkatalog/labkatalog/internal/domain/bulk"
	"github.com/labkatalog/labkatalog/internal/domain/catalog"
	"github.com/labkatalog/labkatalog/internal/platform/auth"
	"github.com/labkatalog/labkatalog/internal/platform/ident"
	"github.com/labkatalog/labkatalog/internal/platform/middleware"
	"github.com/labkatalog/labkatalog/internal/platform/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "labkatalog-server",
		Short: "Laborwerte catalog API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a collection as CSV to stdout or a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, _ := cmd.Flags().GetString("type")
			out, _ := cmd.Flags().GetString("out")

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			st := store.New(cfg.DataDir, logger)
			adapter := bulk.NewAdapter(st, ident.UUID{}, logger)
			csv, err := adapter.Export(context.Background(), tag)
			if err != nil {
				return err
			}

			if out == "" {
				fmt.Println(csv)
				return nil
			}
			if err := os.WriteFile(out, []byte(csv), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("Exported %s to %s\n", tag, out)
			return nil
		},
	}
	cmd.Flags().String("type", catalog.CollectionLabValues, "Collection to export (fachbereiche|laborprofile|laborwerte|profil_werte)")
	cmd.Flags().String("out", "", "Output file (default: stdout)")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Storage and shared wiring
	st := store.New(cfg.DataDir, logger)
	ids := ident.UUID{}

	linkRepo := catalog.NewProfileValueRepoJSON(st, ids)
	deptRepo := catalog.NewDepartmentRepoJSON(st, ids)
	profileRepo := catalog.NewProfileRepoJSON(st, ids, linkRepo)
	valueRepo := catalog.NewLabValueRepoJSON(st, ids, linkRepo)
	svc := catalog.NewService(deptRepo, profileRepo, valueRepo, linkRepo, logger)

	authCfg := auth.Config{
		Password: cfg.AdminPassword,
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: time.Duration(cfg.TokenTTLMinutes) * time.Minute,
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	apiV1 := e.Group("/api/v1")
	adminGroup := apiV1.Group("/admin", auth.Middleware(authCfg.Secret))

	auth.NewHandler(authCfg).RegisterRoutes(apiV1)
	catalog.NewHandler(svc).RegisterRoutes(apiV1, adminGroup)

	adapter := bulk.NewAdapter(st, ids, logger)
	bulk.NewHandler(adapter).RegisterRoutes(adminGroup)

	// Start and wait for shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("data_dir", st.Dir()).Msg("server started")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
