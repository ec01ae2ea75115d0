// Command mcp-oneshot runs the demo catalog behind the stateless HTTP
// transport. All configuration comes from the environment.
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

	"github.com/joeshaw/envdecode"

	"github.com/oneshotmcp/mcp-oneshot-go/demoserver"
	"github.com/oneshotmcp/mcp-oneshot-go/internal/logctx"
	"github.com/oneshotmcp/mcp-oneshot-go/statelesshttp"
)

type config struct {
	ListenAddr      string        `env:"LISTEN_ADDR,default=:8080"`
	Endpoint        string        `env:"MCP_ENDPOINT,default=/mcp"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

func main() {
	var cfg config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		slog.Error("invalid configuration", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// The LevelVar is shared with the logging capability so that
	// logging/setLevel actually moves the filter.
	var level slog.LevelVar
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		slog.Error("invalid LOG_LEVEL", slog.String("value", cfg.LogLevel))
		os.Exit(1)
	}
	log := slog.New(logctx.Handler{
		Handler: slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: &level}),
	})

	caps, err := demoserver.New(&level)
	if err != nil {
		log.Error("build capabilities", slog.String("err", err.Error()))
		os.Exit(1)
	}

	handler, err := statelesshttp.New(cfg.Endpoint, caps, statelesshttp.WithLogger(log))
	if err != nil {
		log.Error("build handler", slog.String("err", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.listening",
			slog.String("addr", cfg.ListenAddr),
			slog.String("endpoint", cfg.Endpoint),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("server.shutdown.begin")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server.shutdown.failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		log.Info("server.shutdown.complete")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server.failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}
}
