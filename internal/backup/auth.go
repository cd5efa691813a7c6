package backup

import (
	"context"
	"fmt"
	"sync"
)

// StaticAuthorizer holds a pre-provisioned bearer token, typically loaded
// from configuration. It never prompts: Authorize succeeds when a token
// is present and fails otherwise.
type StaticAuthorizer struct {
	mu    sync.RWMutex
	token string
}

// NewStaticAuthorizer creates an authorizer with the given token. An
// empty token yields an unauthorized authorizer until SetToken is called.
func NewStaticAuthorizer(token string) *StaticAuthorizer {
	return &StaticAuthorizer{token: token}
}

// IsAuthorized reports whether a token is present.
func (a *StaticAuthorizer) IsAuthorized() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != ""
}

// Token returns the stored token without any interaction.
func (a *StaticAuthorizer) Token() (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.token == "" {
		return "", false
	}
	return a.token, true
}

// Authorize returns the stored token or an error when none is set.
func (a *StaticAuthorizer) Authorize(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token, ok := a.Token()
	if !ok {
		return "", fmt.Errorf("no backup token configured")
	}
	return token, nil
}

// SetToken replaces the stored token.
func (a *StaticAuthorizer) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

// Revoke clears the stored token.
func (a *StaticAuthorizer) Revoke() {
	a.SetToken("")
}
