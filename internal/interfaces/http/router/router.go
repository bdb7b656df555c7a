// Package router wires the HTTP routes and runs the server lifecycle.
package router

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ringbridge/internal/config"
	"ringbridge/internal/interfaces/http/handlers"
	"ringbridge/pkg/logger"
)

// Handlers bundles the request handlers the router mounts.
type Handlers struct {
	Device *handlers.DeviceHandler
	Auth   *handlers.AuthHandler
	Pair   *handlers.PairHandler
	Ring   *handlers.RingHandler
	Health *handlers.HealthHandler
}

// Router owns the gin engine and the HTTP server lifecycle.
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	logger logger.Logger
}

// New builds the engine, mounts middleware and routes, and returns the router.
func New(cfg *config.Config, h Handlers, registry *prometheus.Registry, log logger.Logger) *Router {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(handlers.RecoveryMiddleware(log))
	engine.Use(handlers.RequestIDMiddleware())
	engine.Use(handlers.LoggingMiddleware(log))
	engine.Use(handlers.CORSMiddleware())

	device := engine.Group("/device")
	{
		device.POST("/start", h.Device.Start)
		device.GET("/poll", h.Device.Poll)
		device.POST("/authorize", h.Device.Authorize)
	}

	auth := engine.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/2fa", h.Auth.SubmitTwoFactor)
	}

	engine.GET("/pair", h.Pair.Show)
	engine.POST("/ring/open-door", h.Ring.OpenDoor)

	engine.GET("/health/live", h.Health.Live)
	engine.GET("/health/ready", h.Health.Ready)

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "not_found"})
	})

	return &Router{engine: engine, cfg: cfg, logger: log}
}

// Engine exposes the underlying gin engine, mainly for tests.
func (r *Router) Engine() *gin.Engine { return r.engine }

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down gracefully.
func (r *Router) Start() error {
	srv := &http.Server{
		Addr:         r.cfg.Server.Addr(),
		Handler:      r.engine,
		ReadTimeout:  time.Duration(r.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(r.cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info(context.Background(), "HTTP server listening",
			logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		r.logger.Info(context.Background(), "Shutting down HTTP server",
			logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		r.logger.Error(ctx, "Graceful shutdown failed", err)
		return err
	}
	r.logger.Info(context.Background(), "HTTP server stopped")
	return nil
}
