// Command melvin runs the conversational portfolio assistant server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/voicefolio/melvin/pkg/calcom"
	"github.com/voicefolio/melvin/pkg/capture"
	"github.com/voicefolio/melvin/pkg/config"
	"github.com/voicefolio/melvin/pkg/engine/gemini"
	"github.com/voicefolio/melvin/pkg/server"
	"github.com/voicefolio/melvin/pkg/storage"
	"github.com/voicefolio/melvin/pkg/store"
	"github.com/voicefolio/melvin/pkg/tools"
)

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	eng, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	calendar := calcom.NewClient(cfg.CalAPIKey, cfg.CalEventTypeID, cfg.CalBaseURL, nil)
	if !calendar.Configured() {
		logger.Warn("cal.com not configured, booking tools run in guidance-only mode")
	}

	registry := tools.NewRegistry(
		&tools.CurrentDatetimeExecutor{},
		tools.SetNameExecutor{},
		tools.SetEmailExecutor{},
		&tools.AvailableSlotsExecutor{Calendar: calendar},
		&tools.BookMeetingExecutor{Calendar: calendar},
	)

	var st *store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
	}

	var uploader *storage.Uploader
	if cfg.R2Enabled() {
		uploader, err = storage.New(storage.Options{
			Endpoint:        cfg.R2Endpoint,
			Bucket:          cfg.R2Bucket,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("create uploader: %w", err)
		}
	}

	var capturer *capture.Capturer
	if cfg.CaptureEnabled() {
		capturer = capture.New(st, uploader, logger)
	}

	handler := &server.Handler{
		Config:   cfg,
		Engine:   eng,
		Tools:    registry,
		Capturer: capturer,
		Logger:   logger,
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewMux(handler),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	logger.Info("starting server",
		"addr", cfg.Addr,
		"auth_mode", cfg.AuthMode,
		"capture", cfg.CaptureEnabled(),
		"model", cfg.GeminiModel,
	)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	// Local development reads .env.local; production sets real env vars.
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(stderr, "melvin: load .env.local: %v\n", err)
			return 1
		}
	}

	if err := run(ctx, logger); err != nil {
		fmt.Fprintf(stderr, "melvin: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr))
}
