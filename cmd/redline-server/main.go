package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/draftops/redline-server/internal/config"
	"github.com/draftops/redline-server/internal/gate"
	"github.com/draftops/redline-server/internal/http/handler"
	mw "github.com/draftops/redline-server/internal/http/middleware"
)

func init() {
	// Handle version display
	handleVersion()
}

func main() {
	// Load config (environment-only; refuses to start without API_KEY)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create Zap logger
	log := buildLogger(cfg)
	defer log.Sync()
	log = log.Named("main")

	// Create Gin router
	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()

	// The gate is the only shared mutable resource; everything else is
	// request-scoped.
	g := gate.New(cfg.MaxConcurrency)

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Attach request ID for tracing; early in the chain so it's available everywhere

		if cfg.Dev { // Enable CORS for local tooling
			r.Use(cors.New(cors.Config{
				AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:3000"},
				AllowMethods:     []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:     []string{"X-Request-Id", "Content-Type", "Authorization"},
				ExposeHeaders:    []string{"X-Request-Id", "X-Edits-Applied", "X-Edits-Skipped", "X-Warnings"},
				AllowCredentials: false,
				MaxAge:           12 * time.Hour,
			}))
		} else { // Behind a TLS-terminating proxy
			r.Use(secure.New(secure.Config{
				SSLProxyHeaders: map[string]string{
					"X-Forwarded-Proto": "https",
				},
			}))
		}

		r.Use(accessLog(log.Named("http")))
		r.Use(mw.Deadline(cfg.RequestTimeout))

		r.Use(func(c *gin.Context) {
			// Hard cap on the request body: the configured file limit plus
			// slack for the edits field and multipart framing.
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxFileSize+(1<<20))
			c.Next()
		})
	}

	// Register route handlers
	{
		// --- Public endpoints (no auth) ---
		r.GET("/health", handler.Health)
		r.GET("/v1/health", handler.Health)

		// --- Protected endpoints (bearer token required) ---
		docs := handler.NewDocuments(log, cfg, g)
		v1 := r.Group("/v1", mw.RequireBearer(cfg.APIKey))
		{
			v1.POST("/read", docs.Read)
			v1.POST("/apply", docs.Apply)
		}
	}

	httpsrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,                 // kills header-drip Slowloris
		ReadTimeout:       cfg.RequestTimeout,              // full request read (incl. uploaded body)
		WriteTimeout:      cfg.RequestTimeout + time.Minute, // room for export + recompression writes
		IdleTimeout:       60 * time.Second,                // keep-alive cap
		MaxHeaderBytes:    1 << 20,                         // 1MB cap
	}

	// Serve until a termination signal, then drain in-flight requests for
	// one request-timeout window.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("running HTTP server", zap.String("addr", httpsrv.Addr))
		errCh <- httpsrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down", zap.Duration("drain", cfg.RequestTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		if err := httpsrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("drain window elapsed", zap.Error(err))
		}
	}
	log.Info("server closed")
}

// handleVersion prints build metadata and exits when -v/--version is provided.
func handleVersion() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("redline-server %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// accessLog is a Gin middleware that records HTTP request/response details with Zap after handling.
func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		// collect all errors from Gin context
		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		// errors.Join returns nil if errs is empty
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("request_id", mw.GetRequestID(c)),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// helpers

func buildLogger(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zap.InfoLevel
	}

	if cfg.Dev {
		logConfig := zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logConfig.DisableStacktrace = true
		logConfig.DisableCaller = true
		logConfig.Level.SetLevel(level)
		return zap.Must(logConfig.Build())
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level.SetLevel(level)
	return zap.Must(logConfig.Build())
}
