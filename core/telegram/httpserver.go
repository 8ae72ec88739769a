package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/clubbot/core/logger"
)

const shutdownTimeout = 10 * time.Second

// HTTPOptions configures the bot's HTTP surface.
type HTTPOptions struct {
	Listen string
	Port   int
	// UpdatePath is where Telegram posts updates; empty disables the route.
	UpdatePath string
	// Updates receives the raw update requests, normally a *tele.Webhook.
	Updates http.Handler
}

// NewHTTPHandler builds the router: liveness on "/" and "/healthz",
// Telegram updates on UpdatePath.
func NewHTTPHandler(opts HTTPOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog)

	alive := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
	r.Get("/", alive)
	r.Head("/", alive)
	r.Get("/healthz", alive)

	if opts.UpdatePath != "" && opts.Updates != nil {
		r.Post(opts.UpdatePath, opts.Updates.ServeHTTP)
	}
	return r
}

// NewHTTPServer wraps the handler in a server with conservative timeouts.
func NewHTTPServer(opts HTTPOptions) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(opts.Listen, strconv.Itoa(opts.Port)),
		Handler:           NewHTTPHandler(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// ServeHTTP runs srv until ctx is done, then shuts it down gracefully.
func ServeHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.HTTP.Info("http listening",
			slog.String("event", "http.listen"),
			slog.String("listen", srv.Addr),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http: shutdown: %w", err)
	}
	logger.HTTP.Info("http stopped", slog.String("event", "http.stop"))
	return nil
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.HTTP.LogAttrs(r.Context(), level, "http request",
			slog.String("event", "http.request"),
			slog.String("action", r.Method),
			slog.String("endpoint", r.URL.Path),
			slog.Int("http_code", ww.Status()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}
