package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/example/conversation-inbox/internal/logging"
)

// SessionCookieName is the cookie carrying the session identifier.
const SessionCookieName = "inbox_session"

// SessionReader resolves a session id to its payload.
type SessionReader interface {
	Get(ctx context.Context, sid string) (map[string]any, bool, error)
}

// RequireSession authenticates requests against the session store. The
// session payload must carry an owner_id; its display name is optional.
func RequireSession(sessions SessionReader, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSession)
				return
			}

			payload, ok, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: "session lookup failed"})
				return
			}
			if !ok {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "the session has expired, sign in again"})
				return
			}

			principal := principalFromPayload(payload)
			if principal.OwnerID == "" {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "the session is not bound to an operator"})
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFromPayload(payload map[string]any) Principal {
	var principal Principal
	if ownerID, ok := payload["owner_id"].(string); ok {
		principal.OwnerID = ownerID
	}
	if name, ok := payload["name"].(string); ok {
		principal.Name = name
	}
	return principal
}

// RequestLogger attaches a per-request logger to the context and records
// request start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.WithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
