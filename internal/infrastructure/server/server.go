package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harshit-164/clio-agent-editor/internal/activitylog"
	apihttp "github.com/harshit-164/clio-agent-editor/internal/api/http"
	"github.com/harshit-164/clio-agent-editor/internal/api/middleware"
	"github.com/harshit-164/clio-agent-editor/internal/api/ws"
	"github.com/harshit-164/clio-agent-editor/internal/autorun"
	"github.com/harshit-164/clio-agent-editor/internal/domain/playground"
	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/engine/local"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/config"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/monitoring"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/tracing"
	"github.com/harshit-164/clio-agent-editor/internal/providers/assistant"
	"github.com/harshit-164/clio-agent-editor/internal/sandbox"
	"github.com/harshit-164/clio-agent-editor/internal/terminal"
)

const serviceName = "clio-sandboxd"

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	engine   *local.Engine
	session  *playground.Session
	catalog  *template.Catalog
	tracer   *tracing.Tracer
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	shellName, shellArgs, err := cfg.Sandbox.ShellCommand()
	if err != nil {
		return nil, err
	}
	runCfg := autorun.Config{
		Command:     cfg.Autorun.Command,
		SettleDelay: cfg.Autorun.SettleDelay,
	}
	if err := runCfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Initializing sandbox daemon",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("shell", cfg.Sandbox.Shell),
		zap.Ints("ports", cfg.Sandbox.Ports),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)
	tracer := tracing.New(serviceName, logger)

	catalog, err := template.NewCatalog(cfg.Templates.Root, logger)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}
	logger.Info("Template catalog loaded",
		zap.String("source", catalog.Source()),
		zap.Int("templates", len(catalog.List())),
	)

	eng := local.New(local.Config{
		Root:          cfg.Sandbox.Root,
		Ports:         cfg.Sandbox.Ports,
		ProbeInterval: cfg.Sandbox.ProbeInterval,
		URLTemplate:   cfg.Sandbox.URLTemplate,
		KeepFiles:     cfg.Sandbox.KeepFiles,
	}, logger)
	manager := sandbox.NewManager(eng, logger).WithMetrics(metrics)

	session := playground.NewSession(manager, playground.Config{
		Shell: terminal.Config{
			Command:    shellName,
			Args:       shellArgs,
			Env:        map[string]string{"TERM": "xterm-256color"},
			Size:       engine.TerminalSize{Cols: cfg.Sandbox.Cols, Rows: cfg.Sandbox.Rows},
			Scrollback: cfg.Sandbox.Scrollback,
		},
		Autorun: runCfg,
		Timeline: activitylog.Config{
			InstallMin: cfg.Timeline.InstallMin,
			InstallMax: cfg.Timeline.InstallMax,
			PhasePause: cfg.Timeline.PhasePause,
			StartStep:  cfg.Timeline.StartStep,
		},
	},
		playground.WithLogger(logger),
		playground.WithMetrics(metrics),
	)

	// A nil *Client must not end up inside the interface.
	var asst apihttp.Assistant
	if cfg.Assistant.Enabled {
		acfg := assistant.DefaultConfig()
		acfg.BaseURL = cfg.Assistant.BaseURL
		acfg.Model = cfg.Assistant.Model
		acfg.Timeout = cfg.Assistant.Timeout
		acfg.RetryMax = cfg.Assistant.RetryMax
		acfg.RateLimit = cfg.Assistant.RateLimit
		asst = assistant.NewClient(acfg, logger).WithMetrics(metrics).WithTracer(tracer)
		logger.Info("Assistant enabled",
			zap.String("url", acfg.BaseURL),
			zap.String("model", acfg.Model),
		)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer, func(c *gin.Context) string {
		return middleware.GetRequestID(c).String()
	}))
	router.Use(monitoring.Middleware(metrics))
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
	}
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(session, catalog, asst, logger).
		WithMetrics(metrics).
		WithDefaultTemplate(template.KindOrFallback(cfg.Templates.Default))
	wsHandler := ws.NewHandler(session, logger).WithMetrics(metrics)

	handlers.Register(router)
	router.GET("/api/playground/terminal/ws", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	logger.Info("Server initialized successfully")

	return &Server{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		engine:   eng,
		session:  session,
		catalog:  catalog,
		tracer:   tracer,
		metrics:  metrics,
		registry: registry,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Session returns the daemon's playground.
func (s *Server) Session() *playground.Session { return s.session }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr(),
		Handler: s.router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		s.metrics.StartUptime(gctx.Done())
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if s.cfg.Templates.Watch && s.catalog.Root() != "" {
		g.Go(func() error {
			if err := s.catalog.Watch(gctx); err != nil {
				s.logger.Warn("Template watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

// Close releases the session, the engine instances and the tracer.
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	s.session.Close()
	var err error
	if serr := s.engine.Shutdown(ctx); serr != nil {
		s.logger.Error("Failed to shut down engine", zap.Error(serr))
		err = fmt.Errorf("shutdown engine: %w", serr)
	}
	s.tracer.Close()

	_ = s.logger.Sync()
	return err
}
