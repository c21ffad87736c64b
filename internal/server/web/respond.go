package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

const (
	errInvalidRequest     = "invalid request"
	errInvalidCredentials = "invalid username or password"
	errInternal           = "internal error"
)

// respond writes pending cookie changes, then the JSON body.
func (s *Server) respond(c *gin.Context, code int, body any) {
	if cc := carrierFrom(c); cc != nil {
		if err := cc.flush(c.Writer); err != nil {
			s.logger.Error(c.Request.Context(), "failed to write session cookie", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: errInternal, Code: http.StatusInternalServerError})
			return
		}
	}
	c.JSON(code, body)
}

func (s *Server) respondError(c *gin.Context, code int, msg string) {
	s.respond(c, code, ErrorResponse{Error: msg, Code: code})
	c.Abort()
}

func (s *Server) redirect(c *gin.Context, location string) {
	if cc := carrierFrom(c); cc != nil {
		if err := cc.flush(c.Writer); err != nil {
			s.logger.Error(c.Request.Context(), "failed to write session cookie", "error", err)
		}
	}
	c.Redirect(http.StatusSeeOther, location)
	c.Abort()
}

// statusFor maps service errors onto HTTP codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrForbiddenAttribute), errors.Is(err, common.ErrUnknownAttribute):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "username or email is already taken"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, errInternal
	}
}
