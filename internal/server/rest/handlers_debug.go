package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	if err := s.svc.Health.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}

func (s *Server) dbTest(c *gin.Context) {
	counts, err := s.svc.Health.Counts(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"users":      counts.Users,
		"products":   counts.Products,
		"categories": counts.Categories,
		"orders":     counts.Orders,
	})
}
