package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/partner-review/internal/application"
	"github.com/bryanwahyu/partner-review/internal/application/analysis"
	appsub "github.com/bryanwahyu/partner-review/internal/application/submissions"
	"github.com/bryanwahyu/partner-review/internal/bootstrap"
	"github.com/bryanwahyu/partner-review/internal/config"
	openaiClient "github.com/bryanwahyu/partner-review/internal/infra/ai/openai"
	"github.com/bryanwahyu/partner-review/internal/infra/catalog"
	"github.com/bryanwahyu/partner-review/internal/infra/httpserver"
	"github.com/bryanwahyu/partner-review/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	config.SetupLogger(cfg.LogLevel(), cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	health := map[string]middleware.HealthChecker{}

	st, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.DB != nil {
		health["database"] = &middleware.DatabaseHealthChecker{DB: st.DB}
	}

	// blob store: MinIO kalau endpoint di-set, selain itu in-memory
	b, err := bootstrap.OpenBlobs(ctx, cfg)
	if err != nil {
		return err
	}
	blobs := b.Store
	if b.Ping != nil {
		health["blobs"] = middleware.CheckerFunc(b.Ping)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	slog.Info("control catalog loaded", "controls", len(cat))

	svc := &appsub.Service{
		Repo:               st.Repo,
		Blobs:              blobs,
		Outputs:            st.Outputs,
		Settings:           st.Settings,
		Audit:              st.Audit,
		Clock:              application.SystemClock{},
		Policy:             cfg.IntakePolicy(),
		MaxConflictRetries: cfg.Review.MaxConflictRetries,
		PageSize:           cfg.Review.PageSize,
	}

	var pipeline *analysis.Pipeline
	if cfg.OpenAI.APIKey != "" {
		pipeline = &analysis.Pipeline{
			Submissions: svc,
			Blobs:       blobs,
			Outputs:     st.Outputs,
			AI:          openaiClient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model),
			Catalog:     cat,
			Timeout:     cfg.OpenAI.Timeout,
		}
		svc.Processing = pipeline
	} else {
		slog.Warn("openai api key not set, analysis must be posted to /v1/submissions/{id}/analysis")
	}

	handler := httpserver.NewRouter(svc, cat, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		Health:         health,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return err
	}
	slog.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		slog.Warn("shutdown error", "error", err)
	}
	if pipeline != nil {
		// tunggu analysis yang masih jalan
		done := make(chan struct{})
		go func() { pipeline.Wait(); close(done) }()
		select {
		case <-done:
		case <-ctx2.Done():
			slog.Warn("analysis still running at shutdown")
		}
	}
	return nil
}
