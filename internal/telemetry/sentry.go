package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// SentryConfig configures error reporting. Reporting is off unless Enabled
// is set and DSN is non-empty.
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string

	// SampleRate defaults to 1.0 when zero.
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

var sentryEnabled atomic.Bool

// InitSentry starts the Sentry client. The returned func flushes buffered
// events and must be called before exit.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	sentryEnabled.Store(false)
	noop := func() {}

	switch {
	case !cfg.Enabled:
		logger.Info("error reporting disabled")
		return noop, nil
	case cfg.DSN == "":
		logger.Warn("SENTRY_DSN is empty, error reporting disabled")
		return noop, nil
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = 1.0
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       rate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	}); err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	sentryEnabled.Store(true)

	logger.Info("error reporting enabled",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", rate,
	)

	return func() { sentry.Flush(sentryFlushTimeout) }, nil
}

// IsEnabled reports whether events are being sent.
func IsEnabled() bool {
	return sentryEnabled.Load()
}

// CaptureError reports err from outside a request, such as a background
// side effect. It is a no-op when reporting is disabled.
func CaptureError(err error, extras map[string]interface{}) {
	if !IsEnabled() || err == nil {
		return
	}
	captureOn(sentry.CurrentHub(), err, extras)
}

// CaptureErrorFromContext reports err on the hub stored in ctx so the
// request attached by SentryMiddleware travels with the event.
func CaptureErrorFromContext(ctx context.Context, err error, extras map[string]interface{}) {
	if !IsEnabled() || err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	captureOn(hub, err, extras)
}

func captureOn(hub *sentry.Hub, err error, extras map[string]interface{}) {
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}

// SentryMiddleware gives each request its own hub carrying the request. A
// panic is reported and then re-raised for the outer recovery handler to
// answer.
func SentryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			defer func() {
				if p := recover(); p != nil {
					if p != http.ErrAbortHandler {
						hub.RecoverWithContext(ctx, p)
						hub.Flush(sentryFlushTimeout)
					}
					panic(p)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
