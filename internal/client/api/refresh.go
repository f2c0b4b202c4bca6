package api

import (
	"context"
	"time"

	"github.com/seqassist/seqassist/internal/client/models"
	"github.com/seqassist/seqassist/internal/client/session"
)

// refreshWindow is the proactive lookahead: a token expiring within this
// buffer is refreshed before the primary request goes out.
const refreshWindow = 5 * time.Minute

const refreshPath = "/api/auth/refresh"

// OnSessionExpired subscribes fn to unrecoverable session loss. Every
// subscriber runs at most once per expiry event; a successful login or
// refresh rearms the notification.
func (c *HTTPClient) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiredHooks = append(c.expiredHooks, fn)
}

// ensureFresh performs a proactive refresh when a session exists and its
// stored expiry falls inside the lookahead window. A missing expiry never
// triggers a refresh here; the reactive 401 path covers that case.
func (c *HTTPClient) ensureFresh(ctx context.Context) error {
	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	expiresAt, err := c.store.ExpiresAt(ctx)
	if err != nil {
		return err
	}
	if expiresAt.IsZero() || c.now().Before(expiresAt.Add(-refreshWindow)) {
		return nil
	}

	c.log.Debug(ctx, "access token near expiry, refreshing proactively")
	_, err = c.refresh(ctx)
	return err
}

// refresh exchanges the stored refresh token for a new token pair. The
// exchange is single-flight: concurrent callers join the in-flight attempt
// and share its outcome. On success the new pair is persisted atomically; on
// failure the whole credential record is cleared and subscribers are told
// the session is gone.
func (c *HTTPClient) refresh(ctx context.Context) (string, error) {
	token, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refreshToken, err := c.store.RefreshToken(ctx)
		if err != nil {
			return "", err
		}
		if refreshToken == "" {
			c.failSession(ctx)
			return "", ErrSessionExpired
		}

		c.log.Info(ctx, "refreshing access token")
		var resp models.RefreshResponse
		body := map[string]string{"refresh_token": refreshToken}
		if err := c.Post(ctx, refreshPath, body, &resp, NoAuth()); err != nil {
			c.log.Warn(ctx, "token refresh failed", "error", err)
			c.failSession(ctx)
			return "", ErrSessionExpired
		}

		pair := session.TokenPair{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    TokenExpiry(resp.AccessToken, resp.ExpiresIn, c.now()),
		}
		if err := c.store.SaveTokens(ctx, pair); err != nil {
			return "", err
		}

		c.mu.Lock()
		c.expiryNotified = false
		c.mu.Unlock()

		return resp.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// failSession clears the credential record and fires the session-expired
// hooks, at most once until a new session is established.
func (c *HTTPClient) failSession(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error(ctx, "failed to clear credentials", "error", err)
	}

	c.mu.Lock()
	if c.expiryNotified {
		c.mu.Unlock()
		return
	}
	c.expiryNotified = true
	hooks := append([]func(){}, c.expiredHooks...)
	c.mu.Unlock()

	c.log.Warn(ctx, "session expired")
	for _, fn := range hooks {
		fn()
	}
}
