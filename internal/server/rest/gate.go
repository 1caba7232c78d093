package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/models"
)

// PathMatcher classifies request paths against an allow-list of prefixes.
// A prefix matches itself and anything below it on a segment boundary, so
// "/api/auth" covers "/api/auth/signin" but not "/api/authority".
type PathMatcher struct {
	prefixes []string
}

func NewPathMatcher(prefixes []string) *PathMatcher {
	m := &PathMatcher{}
	for _, p := range prefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			m.prefixes = append(m.prefixes, p)
		}
	}
	return m
}

func (m *PathMatcher) IsPublic(path string) bool {
	for _, p := range m.prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// bearerToken returns the token of an "Authorization: Bearer <token>"
// header. Any other form counts as no token.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return "", false
	}
	return h[len(common.BearerPrefix):], true
}

type tokenFailure struct {
	kind    string
	message string
}

var tokenFailures = []struct {
	err error
	tokenFailure
}{
	{common.ErrTokenExpired, tokenFailure{"Expired", "JWT token is expired"}},
	{common.ErrTokenInvalidSignature, tokenFailure{"InvalidSignature", "JWT signature does not match"}},
	{common.ErrTokenUnsupported, tokenFailure{"Unsupported", "JWT token is unsupported"}},
	{common.ErrTokenEmptyClaims, tokenFailure{"EmptyClaims", "JWT claims string is empty"}},
	{common.ErrTokenMalformed, tokenFailure{"Malformed", "Invalid JWT token"}},
}

func classifyTokenError(err error) (tokenFailure, bool) {
	for _, f := range tokenFailures {
		if errors.Is(err, f.err) {
			return f.tokenFailure, true
		}
	}
	return tokenFailure{}, false
}

// authenticate runs before every handler. A valid token attaches the
// principal to the request context. A token that fails verification is
// ignored on public paths and rejected with 401 everywhere else.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		path := c.Request.URL.Path

		token, ok := bearerToken(c.Request)
		if !ok {
			c.Next()
			return
		}

		p, err := s.svc.Auth.Authenticate(ctx, token)
		if err == nil {
			if p == nil {
				s.logger.Info(ctx, "token subject no longer exists", "path", path)
			} else {
				c.Request = c.Request.WithContext(auth.WithPrincipal(ctx, p))
			}
			c.Next()
			return
		}

		public := s.public.IsPublic(path)
		failure, isToken := classifyTokenError(err)
		switch {
		case public && isToken:
			s.logger.Debug(ctx, "invalid token on public path", "path", path, "kind", failure.kind)
			c.Next()
		case public:
			s.logger.Error(ctx, "authentication failed on public path", "path", path, "error", err)
			c.Next()
		case isToken:
			s.logger.Warn(ctx, "invalid token on protected path", "path", path, "kind", failure.kind)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": failure.message, "error": failure.kind})
		default:
			s.fail(c, err)
			c.Abort()
		}
	}
}

// requireAuth rejects anonymous requests with 401.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.PrincipalFrom(c.Request.Context()) == nil {
			s.fail(c, common.ErrorUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireRole rejects anonymous requests with 401 and principals lacking
// role with 403.
func (s *Server) requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := auth.PrincipalFrom(c.Request.Context())
		if err := auth.Authorize(p, role); err != nil {
			if p != nil {
				s.logger.Warn(c.Request.Context(), "access denied", "user_id", p.UserID, "required", role, "path", c.Request.URL.Path)
			}
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) *auth.Principal {
	return auth.PrincipalFrom(c.Request.Context())
}
