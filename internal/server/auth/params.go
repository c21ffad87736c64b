package auth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Params are the parameters submitted with a request. The well-known names
// live in common (ParamUsername, ParamPassword, ParamAPIKey, ParamKey); any
// other key may be stored and read back.
type Params map[string]string

func (p Params) Get(name string) string {
	if p == nil {
		return ""
	}
	return p[name]
}

// Set assigns name. Setting a blank value removes it. p must be non-nil;
// start from Params{} rather than a nil map.
func (p Params) Set(name, value string) {
	if value == "" {
		delete(p, name)
		return
	}
	p[name] = value
}

func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

func (p Params) Username() string { return p.Get(common.ParamUsername) }
func (p Params) Password() string { return p.Get(common.ParamPassword) }
func (p Params) APIKey() string   { return strings.TrimSpace(p.Get(common.ParamAPIKey)) }
func (p Params) Key() string      { return strings.TrimSpace(p.Get(common.ParamKey)) }

// Bool parses name with strconv.ParseBool. A missing key is false.
func (p Params) Bool(name string) (bool, error) {
	v, ok := p[name]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%w: %s is not a boolean", common.ErrorValidation, name)
	}
	return b, nil
}

// Int parses name as a base-10 integer. A missing key is 0.
func (p Params) Int(name string) (int, error) {
	v, ok := p[name]
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", common.ErrorValidation, name)
	}
	return n, nil
}

// hasPasswordCredentials reports whether a username or password was
// submitted.
func (p Params) hasPasswordCredentials() bool {
	return strings.TrimSpace(p.Username()) != "" || p.Password() != ""
}

// Credentials strips secrets so the rest can be logged.
func (p Params) Credentials() Params {
	out := make(Params, len(p))
	for k, v := range p {
		switch k {
		case common.ParamPassword, common.ParamAPIKey, common.ParamKey:
			continue
		}
		out[k] = v
	}
	return out
}
