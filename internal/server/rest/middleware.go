package rest

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

// authenticate resolves the bearer token to a verified user and stores both
// in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if !ok {
			w.Header().Set("WWW-Authenticate", common.BearerScheme)
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		user, err := s.deps.Users.Resolve(r.Context(), token)
		if err != nil {
			s.logger.Debug(r.Context(), "token rejected", "error", err)
			w.Header().Set("WWW-Authenticate", common.BearerScheme)
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if !user.IsVerified {
			writeError(w, common.ErrorNotVerified)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error(r.Context(), "panic in handler", "panic", v, "path", r.URL.Path)
				writeDetail(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func currentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func currentToken(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
