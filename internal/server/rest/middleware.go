package rest

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rnbmx/bmxshop/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// requestLog tags the request with an id and logs its start and end.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		ctx := logging.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		s.logger.Debug(ctx, "request started", "method", c.Request.Method, "path", c.Request.URL.Path)

		c.Next()

		s.logger.Info(ctx, "request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// cors answers preflight requests and sets the allow headers for the
// configured origins. A "*" entry allows any origin without credentials.
func (s *Server) cors() gin.HandlerFunc {
	wildcard := slices.Contains(s.origins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (wildcard || slices.Contains(s.origins, origin)) {
			h := c.Writer.Header()
			h.Set("Vary", "Origin")
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Authorization", "Content-Type", requestIDHeader}, ", "))
			h.Set("Access-Control-Expose-Headers", requestIDHeader)
			h.Set("Access-Control-Max-Age", "3600")
		}
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
