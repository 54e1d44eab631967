package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/cvision/pkg/httpx"
	"github.com/aussiebroadwan/cvision/pkg/jwtx"
)

// CookiePolicy shapes the refresh token cookie. Production runs cross-site
// behind TLS and uses Secure with SameSite=None; elsewhere SameSite=Lax
// without Secure.
type CookiePolicy struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookiePolicy returns the policy for production or not.
func DefaultCookiePolicy(production bool) CookiePolicy {
	p := CookiePolicy{
		Name:     httpx.RefreshCookieName,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	if production {
		p.Secure = true
		p.SameSite = http.SameSiteNoneMode
	}
	return p
}

// RefreshCookie carries tok for as long as tok is valid.
func (p CookiePolicy) RefreshCookie(tok jwtx.IssuedToken) *http.Cookie {
	c := p.base()
	c.Value = tok.Token
	c.MaxAge = int(tok.ExpiresIn / time.Second)
	c.Expires = tok.ExpiresAt
	return c
}

// ClearCookie tells the browser to drop the refresh cookie.
func (p CookiePolicy) ClearCookie() *http.Cookie {
	c := p.base()
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

func (p CookiePolicy) base() *http.Cookie {
	name := p.Name
	if name == "" {
		name = httpx.RefreshCookieName
	}
	path := p.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Path:     path,
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}
