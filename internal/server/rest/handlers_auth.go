package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rnbmx/bmxshop/internal/server/services"
)

func (s *Server) signIn(c *gin.Context) {
	var req signInRequest
	if !s.bind(c, &req) {
		return
	}

	sess, err := s.svc.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toJWTResponse(sess))
}

func (s *Server) signUp(c *gin.Context) {
	var req signUpRequest
	if !s.bind(c, &req) {
		return
	}

	if _, err := s.svc.Auth.SignUp(c.Request.Context(), req.input()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (s *Server) listRoles(c *gin.Context) {
	roles, err := s.svc.Auth.Roles(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "roles": roles})
}

func (s *Server) getProfile(c *gin.Context) {
	u, err := s.svc.Users.Get(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileUpdateRequest
	if !s.bind(c, &req) {
		return
	}

	u, token, err := s.svc.Users.UpdateProfile(c.Request.Context(), principal(c).UserID, req.update())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse{userResponse: toUserResponse(u), Token: token})
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !s.bind(c, &req) {
		return
	}

	change := services.PasswordChange{Current: req.CurrentPassword, New: req.NewPassword}
	// Only the /api/users variant carries a confirmation.
	if c.FullPath() == "/api/users/password" {
		confirm := ""
		if req.ConfirmPassword != nil {
			confirm = *req.ConfirmPassword
		}
		change.Confirm = &confirm
	}

	token, err := s.svc.Auth.ChangePassword(c.Request.Context(), principal(c).UserID, change)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully", "token": token})
}

func (s *Server) profileImageUpload(c *gin.Context) {
	up, err := s.svc.Media.ProfileImageUpload(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, uploadResponse{Key: up.Key, UploadURL: up.URL, ExpiresAt: up.ExpiresAt})
}
