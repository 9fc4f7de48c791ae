package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tramite/internal/app"
	calhandler "tramite/internal/calendar/handler"
	"tramite/internal/platform/config"
	"tramite/internal/platform/httpserver"
	"tramite/internal/platform/logger"
	"tramite/internal/platform/metrics"
	"tramite/internal/procedure/filestore"
	prochandler "tramite/internal/procedure/handler"
	"tramite/pkg/platform/middleware/admin"
	"tramite/pkg/platform/middleware/caller"
	"tramite/pkg/platform/middleware/metadata"
	"tramite/pkg/platform/middleware/request"
	"tramite/pkg/platform/middleware/requesttime"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies, serves the HTTP API and runs the pending release
// worker until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	router := newRouter(cfg, log, deps)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tramite", "addr", cfg.Server.Addr)
		return httpserver.Serve(gctx, srv, shutdownTimeout)
	})
	g.Go(func() error {
		err := deps.Pending.Run(gctx, cfg.Pending.Interval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		deps.Close()
		os.Exit(1)
	}
	log.Info("server stopped")
}

func newRouter(cfg config.Config, log *slog.Logger, deps *app.App) http.Handler {
	httpMetrics := metrics.New()
	calendarHandler := calhandler.New(deps.Calendar, log)
	procedureHandler := prochandler.New(deps.Procedures, log)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(httpMetrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Health(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())
	if deps.LocalFiles != nil {
		r.Get(app.LocalFilesPrefix+"/*", serveLocalFile(deps.LocalFiles))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(caller.Identity(log))

		calendarHandler.Register(r)
		procedureHandler.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.Server.AdminToken, log))
			calendarHandler.RegisterAdmin(r)
			procedureHandler.RegisterAdmin(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(caller.RequireArea(log))
			procedureHandler.Register(r)
		})
	})
	return r
}

// serveLocalFile exposes in-memory attachments for local runs.
func serveLocalFile(files *filestore.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obj, ok := files.Get(chi.URLParam(r, "*"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", obj.ContentType)
		_, _ = w.Write(obj.Data)
	}
}
