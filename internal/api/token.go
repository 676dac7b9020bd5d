package api

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenHolder guards the bearer token shared across concurrent callers.
type tokenHolder struct {
	mu    sync.RWMutex
	value string
}

func (t *tokenHolder) set(value string) {
	t.mu.Lock()
	t.value = value
	t.mu.Unlock()
}

func (t *tokenHolder) get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// SetToken installs a bearer token obtained out of band (e.g. restored from
// a previous run).
func (c *Client) SetToken(token string) {
	c.token.set(token)
}

// ClearToken drops the bearer token on logout.
func (c *Client) ClearToken() {
	c.token.set("")
}

// TokenExpiry reports when the held bearer token expires. The signature is
// not verified; the backend remains authoritative and will reject a forged
// token regardless. Returns false when no token is held or it carries no
// expiry claim.
func (c *Client) TokenExpiry() (time.Time, bool) {
	raw := c.token.get()
	if raw == "" {
		return time.Time{}, false
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
