package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type requestIDCtxKey struct{}

// FromRequestID retrieves the request ID from context.
func FromRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// requestIDMiddleware tags every request with an ID so log lines from one
// request can be correlated.
func (s *Server) requestIDMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		id := uuid.New().String()
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(req.Context(), requestIDCtxKey{}, id)
		return next(w, req.WithContext(ctx))
	}
}

// accessLogMiddleware logs each request with its duration.
func (s *Server) accessLogMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		start := time.Now()
		err := next(w, req)

		s.logger.Info("Request handled",
			zap.String("request_id", FromRequestID(req.Context())),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))

		return err
	}
}

// basicAuthMiddleware guards staff routes. Authentication fails closed:
// with no credentials configured, nobody gets in.
func (s *Server) basicAuthMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		if !s.authenticate(req.Request) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Operational Hub"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return nil
		}

		return next(w, req)
	}
}

func (s *Server) authenticate(r *http.Request) bool {
	wantUser := s.cfg.Web.AdminUser
	wantHash := s.cfg.Web.AdminPassHash
	if wantUser == "" || wantHash == "" {
		return false
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}

	if subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) != 1 {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(wantHash), []byte(pass)) == nil
}
