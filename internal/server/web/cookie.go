package web

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/gorilla/sessions"
)

// cookieCarrier keeps carrier values in a signed gorilla/sessions cookie.
// Changes are written by flush, which must run before the response body.
type cookieCarrier struct {
	r     *http.Request
	s     *sessions.Session
	dirty bool
}

func newCookieCarrier(store sessions.Store, r *http.Request) *cookieCarrier {
	// a cookie that fails to decode yields a fresh, empty session
	s, _ := store.Get(r, common.SessionKeyName)
	return &cookieCarrier{r: r, s: s}
}

func (c *cookieCarrier) Get(name string) string {
	v, _ := c.s.Values[name].(string)
	return v
}

func (c *cookieCarrier) Set(name, value string) {
	c.s.Values[name] = value
	c.dirty = true
}

func (c *cookieCarrier) Del(name string) {
	if _, ok := c.s.Values[name]; !ok {
		return
	}
	delete(c.s.Values, name)
	c.dirty = true
}

func (c *cookieCarrier) flush(w http.ResponseWriter) error {
	if !c.dirty {
		return nil
	}
	if len(c.s.Values) == 0 {
		c.s.Options.MaxAge = -1
	}
	c.dirty = false
	return c.s.Save(c.r, w)
}

// NewCookieStore returns the signed cookie store used for the session key.
func NewCookieStore(secret []byte, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
