// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/swashbuckle/internal/api"
	"github.com/starford/swashbuckle/internal/blog"
	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/content"
	"github.com/starford/swashbuckle/internal/index"
	"github.com/starford/swashbuckle/internal/mcpserver"
	"github.com/starford/swashbuckle/internal/render"
	"github.com/starford/swashbuckle/internal/search"
	"github.com/starford/swashbuckle/internal/site"
	"github.com/starford/swashbuckle/internal/sse"
	"github.com/starford/swashbuckle/internal/storage"
	"github.com/starford/swashbuckle/internal/tui"
)

// newApplication applies opts and fills in defaults.
func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOut: os.Stdout, out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// components selects what stack() wires beyond the content store.
type components struct {
	db         bool
	chat       bool
	site       bool
	liveReload bool
}

// stack is the set of long-lived objects shared by the commands.
type stack struct {
	svc     *blog.Service
	db      *index.DB
	chat    *chat.Client
	closers []func() error
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func buildStack(cfg *Config, logger *slog.Logger, want components) (*stack, error) {
	st := &stack{}

	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	md := render.New(render.Options{Style: cfg.Site.HighlightStyle})
	opts := []blog.Option{
		blog.WithRenderer(md),
		blog.WithLoadOptions(content.LoadOptions{IncludeDrafts: cfg.Content.IncludeDrafts}),
		blog.WithLogger(logger),
	}

	if want.db {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		st.db = db
		st.closers = append(st.closers, db.Close)
		opts = append(opts, blog.WithIndex(db))

		if cfg.Search.Engine == search.EngineBleve {
			b, err := search.NewBleve(nil)
			if err != nil {
				st.Close()
				return nil, fmt.Errorf("init bleve: %w", err)
			}
			st.closers = append(st.closers, b.Close)
			opts = append(opts, blog.WithSearcher(b))
		}
	}

	if want.chat {
		st.chat = chat.NewClient(cfg.Chat.BaseURL, cfg.Chat.Variants,
			chat.WithTimeout(cfg.Chat.Timeout),
			chat.WithLogger(logger),
		)
		opts = append(opts, blog.WithChat(st.chat))
	}

	if want.site {
		if err := os.MkdirAll(cfg.Site.OutputDir, 0o755); err != nil {
			st.Close()
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		out, err := storage.NewFS(cfg.Site.OutputDir)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init output storage: %w", err)
		}
		builder, err := site.NewBuilder(site.Config{
			Title:       cfg.Site.Title,
			Description: cfg.Site.Description,
			LiveReload:  want.liveReload,
		}, md, cfg.Chat.Variants, store, out, logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init site builder: %w", err)
		}
		opts = append(opts, blog.WithBuilder(builder))
	}

	st.svc = blog.NewService(store, opts...)
	return st, nil
}

func logReload(logger *slog.Logger, msg string, r blog.ReloadReport) {
	logger.Info(msg,
		slog.Int("posts", r.Posts),
		slog.Int("upserted", r.Sync.Upserted),
		slog.Int("deleted", r.Sync.Deleted),
		slog.Int("pages", r.Site.Pages),
		slog.Int("removed", r.Site.Removed),
		slog.Duration("duration", r.Site.Duration))
}

// Build loads the content directory once and writes the static site.
func Build(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	st, err := buildStack(cfg, logger, components{db: true, site: true})
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := st.svc.Reload(ctx)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	logReload(logger, "Site built", report)
	return nil
}

// Ask runs the terminal widget. A non-empty query is answered once and
// printed; otherwise the interactive program starts.
func Ask(ctx context.Context, query, variant string, plain bool, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	st, err := buildStack(cfg, logger, components{chat: true})
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.svc.Reload(ctx); err != nil {
		logger.Warn("content load failed, citations unavailable", slog.String("error", err.Error()))
	}

	tuiOpts := tui.Options{Plain: plain}
	if query != "" {
		return tui.Once(ctx, app.out, st.chat, st.svc.Lookup(), cfg.Chat.Variants, variant, query, tuiOpts)
	}
	return tui.Run(ctx, st.chat, st.svc.Lookup(), cfg.Chat.Variants, tuiOpts)
}

// ServeMCP exposes the blog over the Model Context Protocol on stdio.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	st, err := buildStack(cfg, logger, components{db: true, chat: true})
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := st.svc.Reload(ctx)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	logReload(logger, "Content loaded", report)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(st.svc, app.version).ServeStdio()
}

// Run builds the site, serves it with the API and rebuilds on content changes.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("output_dir", cfg.Site.OutputDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("search_engine", cfg.Search.Engine),
		slog.String("chat_base_url", cfg.Chat.BaseURL),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st, err := buildStack(cfg, logger, components{db: true, chat: true, site: true, liveReload: true})
	if err != nil {
		return err
	}
	defer st.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	reload := func(ctx context.Context) (blog.ReloadReport, error) {
		report, err := st.svc.Reload(ctx)
		if err != nil {
			return report, err
		}
		broker.PublishRebuilt(sse.Rebuilt{Posts: report.Posts, Pages: report.Site.Pages})
		return report, nil
	}

	// Initial build; serve whatever exists even if it fails.
	if report, err := reload(ctx); err != nil {
		logger.Warn("initial build failed", slog.String("error", err.Error()))
	} else {
		logReload(logger, "Site built", report)
	}

	apiRouter := api.NewRouter(st.svc, reload, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)
	files := http.FileServer(http.Dir(cfg.Site.OutputDir))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := st.db.Ping(req.Context()); err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unavailable"}`))
			return
		}
		if st.svc.Index().Len() == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"empty"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Chat page: GET is the generated page, POST the no-JavaScript fallback.
	r.Get("/chat/", files.ServeHTTP)
	r.Post("/chat/", api.NewChatPage(st.svc).ServeHTTP)

	// Everything else is the generated site.
	r.Handle("/*", files)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild on content changes.
	g.Go(func() error {
		err := content.Watch(gCtx, cfg.Content.Path, cfg.Content.Debounce, logger, func(changed []string) {
			for _, p := range changed {
				broker.PublishPostChanged(p)
			}
			report, err := reload(gCtx)
			if err != nil {
				logger.Error("rebuild failed", slog.String("error", err.Error()))
				return
			}
			logReload(logger, "Site rebuilt", report)
		})
		if err != nil {
			logger.Error("content watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits after a signal.
var errShutdown = errors.New("shutdown")
