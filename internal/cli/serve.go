package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/calendarbot/pkg/adapters/http"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Handler builds the HTTP surface of app.
func Handler(app *App) http.Handler {
	opts := []httpadapter.Option{
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithMetrics(app.Metrics.Handler()),
		httpadapter.WithRateLimit(app.Config.HTTP.RatePerUser, app.Config.HTTP.Burst),
		httpadapter.WithAPIKeys(app.Config.HTTP.Keys()...),
	}
	if app.SignIn != nil {
		opts = append(opts, httpadapter.WithSignIn(app.SignIn))
	}
	return httpadapter.NewHandler(app.Bot, opts...)
}

// ErrNoAPIKeys is returned by Serve when /api would be left open.
var ErrNoAPIKeys = errors.New("http.api_keys is not configured: the chat API would accept any user_id unauthenticated")

// Serve runs the HTTP server until ctx is cancelled, then drains it.
func Serve(ctx context.Context, app *App) error {
	if len(app.Config.HTTP.Keys()) == 0 {
		return ErrNoAPIKeys
	}
	if err := app.Ping(ctx); err != nil {
		return fmt.Errorf("storage unavailable: %w", err)
	}

	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           Handler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("calbot server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		app.Logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	})
	return g.Wait()
}
