package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Identity is what a provider reports about the signed-in account.
type Identity struct {
	UID   string
	Email string
	Token string
}

// OAuthProvider runs the authorization-code flow against one provider and
// reads the account id from its user-info endpoint.
type OAuthProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	uidField    string
}

// OAuthSettings describes a generic provider.
type OAuthSettings struct {
	Name         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	// UIDField is the user-info JSON field holding the account id.
	UIDField    string
	Scopes      []string
	RedirectURL string
}

func NewOAuthProvider(s OAuthSettings) *OAuthProvider {
	uid := s.UIDField
	if uid == "" {
		uid = "id"
	}
	return &OAuthProvider{
		name: normalize(s.Name),
		config: &oauth2.Config{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			Endpoint:     oauth2.Endpoint{AuthURL: s.AuthURL, TokenURL: s.TokenURL},
			RedirectURL:  s.RedirectURL,
			Scopes:       s.Scopes,
		},
		userInfoURL: s.UserInfoURL,
		uidField:    uid,
	}
}

// GitHub returns a provider preconfigured for github.com.
func GitHub(clientID, secret, callbackBase string) *OAuthProvider {
	p := NewOAuthProvider(OAuthSettings{
		Name:         "github",
		ClientID:     clientID,
		ClientSecret: secret,
		UserInfoURL:  "https://api.github.com/user",
		UIDField:     "id",
		Scopes:       []string{"user:email"},
		RedirectURL:  callbackURL(callbackBase, "github"),
	})
	p.config.Endpoint = github.Endpoint
	return p
}

// Google returns a provider preconfigured for accounts.google.com.
func Google(clientID, secret, callbackBase string) *OAuthProvider {
	p := NewOAuthProvider(OAuthSettings{
		Name:         "google",
		ClientID:     clientID,
		ClientSecret: secret,
		UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		UIDField:     "id",
		Scopes:       []string{"email", "profile"},
		RedirectURL:  callbackURL(callbackBase, "google"),
	})
	p.config.Endpoint = google.Endpoint
	return p
}

func callbackURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/auth/" + name + "/callback"
}

func (p *OAuthProvider) Name() string { return p.name }

// AuthCodeURL is where the browser is sent to start the flow.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades code for a token and fetches the account identity. An
// *http.Client stored in ctx under oauth2.HTTPClient is honoured.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	client := p.config.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s user: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s user info returned status %d", p.name, resp.StatusCode)
	}

	var info map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode %s user: %w", p.name, err)
	}

	uid := stringField(info, p.uidField)
	if uid == "" {
		return nil, fmt.Errorf("%s user info has no %q", p.name, p.uidField)
	}

	return &Identity{UID: uid, Email: stringField(info, "email"), Token: tok.AccessToken}, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
