package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	oauthStateKey    = "oauth-state"
	oauthStateLength = 32
)

type signInRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Method   string `json:"method,omitempty"`
}

type accountView struct {
	userView
	SessionCount    int64      `json:"session_count"`
	FailedAuthCount int64      `json:"failed_auth_count"`
	LastSessionIP   string     `json:"last_session_ip,omitempty"`
	LastSessionAt   *time.Time `json:"last_session_at,omitempty"`
	Providers       []string   `json:"providers"`
}

type droppedView struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

func viewUser(u *models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email}
}

func viewAccount(u *models.User) accountView {
	v := accountView{
		userView:        viewUser(u),
		SessionCount:    u.SessionCount,
		FailedAuthCount: u.FailedAuthCount,
		LastSessionIP:   u.LastSessionIP,
		LastSessionAt:   u.LastSessionAt,
		Providers:       make([]string, 0, len(u.Authorizations)),
	}
	for _, a := range u.Authorizations {
		v.Providers = append(v.Providers, a.Provider)
	}
	return v
}

func viewDropped(res *services.SaveResult) []droppedView {
	out := make([]droppedView, 0)
	if res == nil {
		return out
	}
	for _, d := range res.Dropped {
		out = append(out, droppedView{Provider: d.Provider, Reason: d.Reason})
	}
	return out
}

func (s *Server) signInHint(c *gin.Context) {
	s.respond(c, http.StatusOK, gin.H{
		"sign_in":   "POST username and password to " + s.opts.SignInPath,
		"return_to": c.Query("return_to"),
	})
}

func (s *Server) signIn(c *gin.Context) {
	ctx := c.Request.Context()

	var req signInRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, errInvalidRequest)
		return
	}

	params := auth.Params{}
	params.Set(common.ParamUsername, req.Username)
	params.Set(common.ParamPassword, req.Password)

	sess := s.manager.ForSignIn(params, s.factory.Store(carrierFrom(c)), c.ClientIP())
	if !sess.Valid(ctx) {
		if sess.Err() != nil {
			s.logger.Error(ctx, "sign in failed", "error", sess.Err())
			s.respondError(c, http.StatusInternalServerError, errInternal)
			return
		}
		s.respondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	if _, err := sess.Save(ctx); err != nil {
		s.logger.Error(ctx, "failed to persist session", "error", err)
		s.respondError(c, http.StatusInternalServerError, errInternal)
		return
	}

	u := sess.User(ctx)
	s.logger.Info(ctx, "Signed in", "user_id", u.ID)
	s.respond(c, http.StatusOK, gin.H{"user": viewUser(u), "return_to": c.Query("return_to")})
}

func (s *Server) signUp(c *gin.Context) {
	ctx := c.Request.Context()

	var in services.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondError(c, http.StatusBadRequest, errInvalidRequest)
		return
	}

	u, err := s.users.Signup(ctx, in)
	if err != nil {
		code, msg := statusFor(err)
		s.respondError(c, code, msg)
		return
	}

	if err := sessionFrom(c).Create(ctx, u); err != nil {
		s.logger.Error(ctx, "failed to sign in new user", "user_id", u.ID, "error", err)
		s.respondError(c, http.StatusInternalServerError, errInternal)
		return
	}
	s.respond(c, http.StatusCreated, gin.H{"user": viewUser(u)})
}

func (s *Server) signOut(c *gin.Context) {
	ctx := c.Request.Context()
	if err := sessionFrom(c).Destroy(ctx); err != nil {
		s.logger.Error(ctx, "sign out failed", "error", err)
		s.respondError(c, http.StatusInternalServerError, errInternal)
		return
	}
	s.respond(c, http.StatusOK, gin.H{"signed_out": true})
}

func (s *Server) me(c *gin.Context) {
	sess := sessionFrom(c)
	v := viewUser(sess.User(c.Request.Context()))
	v.Method = sess.Method().String()
	s.respond(c, http.StatusOK, v)
}

func (s *Server) account(c *gin.Context) {
	ctx := c.Request.Context()
	u := authorizedUser(c)
	if err := s.users.LoadAuthorizations(ctx, u); err != nil {
		s.logger.Error(ctx, "failed to load providers", "user_id", u.ID, "error", err)
		s.respondError(c, http.StatusInternalServerError, errInternal)
		return
	}
	s.respond(c, http.StatusOK, viewAccount(u))
}

// updateAccount applies allow-listed fields. After a password change the
// current session is persisted again with the rotated token.
func (s *Server) updateAccount(c *gin.Context) {
	ctx := c.Request.Context()
	u := authorizedUser(c)

	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		s.respondError(c, http.StatusBadRequest, errInvalidRequest)
		return
	}

	res, err := s.users.Update(ctx, u, fields)
	if err != nil {
		code, msg := statusFor(err)
		s.respondError(c, code, msg)
		return
	}

	if _, changed := fields[services.FieldPassword]; changed {
		if sess := sessionFrom(c); sess.Method() != auth.MethodAPIKey {
			if err := sess.Create(ctx, u); err != nil {
				s.logger.Error(ctx, "failed to refresh session", "user_id", u.ID, "error", err)
				s.respondError(c, http.StatusInternalServerError, errInternal)
				return
			}
		}
	}

	s.respond(c, http.StatusOK, gin.H{"user": viewUser(u), "dropped": viewDropped(res)})
}

func (s *Server) oauthStart(c *gin.Context) {
	p, err := s.providers.OAuth(c.Param("provider"))
	if err != nil {
		s.respondError(c, http.StatusNotFound, "unknown provider")
		return
	}

	state := s.tokens.Token(oauthStateLength)
	carrierFrom(c).Set(oauthStateKey, state)
	s.redirect(c, p.AuthCodeURL(state))
}

// oauthCallback links the external account to the signed-in user, or
// signs in the user it is already linked to.
func (s *Server) oauthCallback(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := s.providers.OAuth(c.Param("provider"))
	if err != nil {
		s.respondError(c, http.StatusNotFound, "unknown provider")
		return
	}

	cc := carrierFrom(c)
	want := cc.Get(oauthStateKey)
	cc.Del(oauthStateKey)
	if want == "" || !cryptox.EqualSecret(want, c.Query("state")) {
		s.respondError(c, http.StatusBadRequest, "invalid oauth state")
		return
	}

	id, err := p.Exchange(ctx, c.Query("code"))
	if err != nil {
		s.logger.Warn(ctx, "oauth exchange failed", "provider", p.Name(), "error", err)
		s.respondError(c, http.StatusBadGateway, "provider exchange failed")
		return
	}

	sess := sessionFrom(c)
	if sess.Valid(ctx) {
		u := sess.User(ctx)
		res, err := s.users.LinkIdentity(ctx, u, p.Name(), id)
		if err != nil {
			code, msg := statusFor(err)
			s.respondError(c, code, msg)
			return
		}
		s.respond(c, http.StatusOK, gin.H{"linked": p.Name(), "user": viewUser(u), "dropped": viewDropped(res)})
		return
	}

	u, err := s.users.FindByProvider(ctx, p.Name(), id.UID)
	if errors.Is(err, common.ErrorNotFound) {
		s.respondError(c, http.StatusUnauthorized, "no account is linked to this identity")
		return
	}
	if err != nil {
		code, msg := statusFor(err)
		s.respondError(c, code, msg)
		return
	}

	if err := sess.Create(ctx, u); err != nil {
		code, msg := statusFor(err)
		s.respondError(c, code, msg)
		return
	}
	s.respond(c, http.StatusOK, gin.H{"user": viewUser(u)})
}
