package httpclient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/systematicmess/calendar-assistant/internal/navigation"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
)

const module = "httpclient"

// SessionInvalidator drops a session that the backend rejected.
type SessionInvalidator interface {
	Invalidate(id string) bool
}

// Authorization reacts to 401 on authorized requests: the rejected session is
// invalidated and, if that cleared the active session, the navigator is sent
// to the login route. The response is passed on unchanged so the caller's own
// error handling still runs.
func Authorization(sessions SessionInvalidator, nav navigation.Navigator, log logger.ILogger) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.Do(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			sent, authorized := SessionFrom(req.Context())
			if !authorized {
				return resp, nil
			}
			if !sessions.Invalidate(sent) {
				log.Debug(module, "401 for a session that is no longer active", map[string]interface{}{
					"path": req.URL.Path,
				})
				return resp, nil
			}

			log.Warn(module, "session rejected by backend, signing out", map[string]interface{}{
				"path": req.URL.Path,
			})
			if navErr := nav.Navigate(navigation.RouteLogin); navErr != nil {
				log.Error(module, "failed to navigate to login", map[string]interface{}{"error": navErr})
			}
			return resp, nil
		})
	}
}

// RequestID sets X-Request-ID on requests that do not carry one.
func RequestID() Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("X-Request-ID") == "" {
				req.Header.Set("X-Request-ID", uuid.NewString())
			}
			return next.Do(req)
		})
	}
}

// Logging records method, path, status and latency. Query strings carry the
// session id and are never logged.
func Logging(log logger.ILogger) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)

			details := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"request_id":  req.Header.Get("X-Request-ID"),
				"duration_ms": time.Since(start).Milliseconds(),
			}
			switch {
			case err != nil:
				details["error"] = err
				log.Warn(module, "request failed", details)
			case resp.StatusCode >= 400:
				details["status"] = resp.StatusCode
				log.Warn(module, "request rejected", details)
			default:
				details["status"] = resp.StatusCode
				log.Debug(module, "request completed", details)
			}
			return resp, err
		})
	}
}

// Tracing opens a client span per request and propagates the trace context.
// A nil tracer uses the global provider, which is a no-op unless the tracer
// was initialised.
func Tracing(tracer trace.Tracer) Middleware {
	if tracer == nil {
		tracer = otel.Tracer("github.com/systematicmess/calendar-assistant/internal/httpclient")
	}
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			ctx, span := tracer.Start(req.Context(), req.Method+" "+req.URL.Path,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("url.path", req.URL.Path),
					attribute.String("server.address", req.URL.Host),
				),
			)
			defer span.End()

			req = req.WithContext(ctx)
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

			resp, err := next.Do(req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return resp, err
			}
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			if resp.StatusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
			}
			return resp, nil
		})
	}
}
