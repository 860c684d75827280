// Command sessiond serves one client session over HTTP.
//
// The process owns a single session store, the way a kiosk or desktop shell
// would, and exposes the login page, the guarded dashboard and the metrics
// of that store.
//
// Endpoints:
//
//	GET  /login      login form, redirects to /dashboard when authenticated
//	POST /login      form or JSON {"username":"...","password":"..."}
//	POST /logout     ends the session
//	GET  /dashboard  guarded route
//	GET  /session    JSON view of the current session
//	GET  /view       route the app shell would render, with the session
//	GET  /metrics    Prometheus text format
//	GET  /metrics/otel  OpenTelemetry snapshot, with --otel-metrics
//
// Run:
//
//	go run ./cmd/sessiond --miniredis
package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	opts := &Options{}
	if _, err := flags.ParseArgs(opts, args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	gin.SetMode(opts.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           newRouter(deps.store, deps.ping, deps.routes...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("sessiond listening on %s", opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
