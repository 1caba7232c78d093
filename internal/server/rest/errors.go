package rest

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rnbmx/bmxshop/internal/common"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// Order matters: a PublicError matches its kind before anything else.
var errorMappings = []errorMapping{
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Full authentication is required to access this resource"},
	{common.ErrAccessDenied, http.StatusForbidden, "Access denied"},
	{common.ErrorNotFound, http.StatusNotFound, "Resource not found"},
	{common.ErrAlreadyExists, http.StatusBadRequest, "Resource already exists"},
	{common.ErrUnknownRole, http.StatusBadRequest, "Unknown role"},
	{common.ErrSamePassword, http.StatusBadRequest, "New password must be different from the current password"},
	{common.ErrPasswordMismatch, http.StatusBadRequest, "New password and confirmation do not match"},
	{common.ErrValidation, http.StatusBadRequest, "Validation failed"},
	{common.ErrMediaUnavailable, http.StatusServiceUnavailable, "Object storage is not available"},
	{common.ErrTokenMalformed, http.StatusUnauthorized, "Invalid JWT token"},
	{common.ErrTokenExpired, http.StatusUnauthorized, "JWT token is expired"},
	{common.ErrTokenInvalidSignature, http.StatusUnauthorized, "JWT signature does not match"},
	{common.ErrTokenUnsupported, http.StatusUnauthorized, "JWT token is unsupported"},
	{common.ErrTokenEmptyClaims, http.StatusUnauthorized, "JWT claims string is empty"},
}

// fail writes err as {"message": ...}, adding "errors" for validation
// failures. Unknown errors become a generic 500.
func (s *Server) fail(c *gin.Context, err error) {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": ve.Fields})
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		msg := m.message
		var pe *common.PublicError
		if errors.As(err, &pe) {
			msg = pe.Message
		}
		c.JSON(m.status, gin.H{"message": msg})
		return
	}

	if !errors.Is(err, common.ErrorInternal) {
		s.logger.Error(c.Request.Context(), "unhandled error", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

// bind decodes the JSON body into dst and runs its binding rules. On
// failure the response is written and false returned.
func (s *Server) bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = fieldMessage(fe)
		}
		s.fail(c, &common.ValidationError{Fields: fields})
		return false
	}

	s.logger.Debug(c.Request.Context(), "undecodable request body", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed request body"})
	return false
}

// fieldName is the JSON path of the failed field without the struct name.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json tag. It also
// lets numeric tags such as gte and gt apply to money fields.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterCustomTypeFunc(func(f reflect.Value) any {
			m, ok := f.Interface().(money)
			if !ok {
				return nil
			}
			return m.InexactFloat64()
		}, money{})
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
