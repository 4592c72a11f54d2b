package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/Clark-Hu/cinerank/internal/auth"
	"github.com/Clark-Hu/cinerank/internal/i18n"
	"github.com/Clark-Hu/cinerank/internal/logging"
)

// accessLog puts the request id and logger on the context and writes one
// line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.ContextWithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ctx = logging.ContextWithLogger(ctx, s.logger)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		event := logging.Ctx(ctx).Info()
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			event = logging.Ctx(ctx).Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// voteRateLimit limits vote mutations per voter, or per client IP for
// anonymous callers. A non-positive limit disables it.
func (s *Server) voteRateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(voterOrIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.respondJSON(w, http.StatusTooManyRequests, errorResponse{
				Error: s.messages.For(i18n.CodeRateLimited),
				Code:  i18n.CodeRateLimited,
			})
		}),
	)
}

func voterOrIP(r *http.Request) (string, error) {
	if voter := auth.FromContext(r.Context()); voter != nil {
		return "voter:" + voter.ID, nil
	}
	return httprate.KeyByIP(r)
}
