package web

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

const (
	carrierKey = "gophauth.carrier"
	userKey    = "gophauth.user"
)

func carrierFrom(c *gin.Context) *cookieCarrier {
	v, ok := c.Get(carrierKey)
	if !ok {
		return nil
	}
	cc, _ := v.(*cookieCarrier)
	return cc
}

func sessionFrom(c *gin.Context) *auth.Session {
	s, _ := auth.FromContext(c.Request.Context())
	return s
}

// authorizedUser is the freshly loaded user set by RequireAuthorized.
func authorizedUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// session attaches a lazily validated auth.Session to every request.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		cc := newCookieCarrier(s.cookies, c.Request)
		c.Set(carrierKey, cc)

		params := auth.Params{}
		params.Set(common.ParamAPIKey, c.GetHeader(common.APIKeyHeaderName))
		params.Set(common.ParamKey, c.Query(common.ParamKey))

		sess := s.manager.New(params, s.factory.Store(cc), c.ClientIP())
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))

		c.Next()
	}
}

// RequireAuthenticated lets the request through only with a valid session.
// Others are redirected to the sign-in path with return_to set.
func (s *Server) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if sess == nil || !sess.Valid(c.Request.Context()) {
			if sess != nil && sess.Err() != nil {
				s.logger.Error(c.Request.Context(), "session validation failed", "error", sess.Err())
				s.respondError(c, http.StatusInternalServerError, errInternal)
				return
			}
			s.toSignIn(c)
			return
		}
		c.Next()
	}
}

// RequireAuthorized also re-reads the user and requires it to be active.
func (s *Server) RequireAuthorized() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if sess == nil {
			s.toSignIn(c)
			return
		}

		u, err := s.manager.Authorize(c.Request.Context(), sess)
		if errors.Is(err, common.ErrorUnauthorized) {
			s.toSignIn(c)
			return
		}
		if err != nil {
			s.logger.Error(c.Request.Context(), "authorization failed", "error", err)
			s.respondError(c, http.StatusInternalServerError, errInternal)
			return
		}

		c.Set(userKey, u)
		c.Next()
	}
}

func (s *Server) toSignIn(c *gin.Context) {
	s.redirect(c, s.opts.SignInPath+"?return_to="+url.QueryEscape(c.Request.URL.RequestURI()))
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
