package api

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type ctxKey int

const (
	ctxAccountID ctxKey = iota
	ctxToken
)

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// callerID returns the authenticated account id, or "" for anonymous requests.
func callerID(ctx context.Context) string {
	id, _ := ctx.Value(ctxAccountID).(string)
	return id
}

func callerToken(ctx context.Context) string {
	tok, _ := ctx.Value(ctxToken).(string)
	return tok
}

// requireAuth rejects requests without a verifiable bearer token. Verification
// renews the token's sliding window as a side effect.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		id, err := h.sessions.Verify(r.Context(), time.Now().UTC(), tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxAccountID, id)
		ctx = context.WithValue(ctx, ctxToken, tok)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth attaches the caller identity when a valid bearer token is
// present, and passes anonymous requests through untouched.
func (h *Handler) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := bearerToken(r); tok != "" {
			if id, err := h.sessions.Verify(r.Context(), time.Now().UTC(), tok); err == nil {
				ctx := context.WithValue(r.Context(), ctxAccountID, id)
				ctx = context.WithValue(ctx, ctxToken, tok)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}
