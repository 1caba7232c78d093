package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rnbmx/bmxshop/internal/common"
)

// idParam parses a positive int64 path parameter, answering 400 otherwise.
func (s *Server) idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		s.fail(c, common.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (s *Server) listUsers(c *gin.Context) {
	list, err := s.svc.Users.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	u, err := s.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var req profileUpdateRequest
	if !s.bind(c, &req) {
		return
	}
	u, err := s.svc.Users.Update(c.Request.Context(), id, req.update())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Users.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (s *Server) setUserRoles(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var req rolesRequest
	if !s.bind(c, &req) {
		return
	}
	u, err := s.svc.Users.SetRoles(c.Request.Context(), id, req.Roles)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}
