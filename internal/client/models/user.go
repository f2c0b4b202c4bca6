// Package models defines the wire and storage types exchanged with the
// SeqAssist backend.
package models

// UserProfile is the locally cached identity of the signed-in user. It is a
// cache only; the authoritative identity is whatever the last auth response
// returned.
type UserProfile struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	SubscriptionTier string `json:"subscription_tier,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// AuthResponse is the body returned by the register and login endpoints.
type AuthResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	UserID           string `json:"user_id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	SubscriptionTier string `json:"subscription_tier,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// Profile assembles the cached user profile from the auth response fields.
func (r *AuthResponse) Profile() *UserProfile {
	return &UserProfile{
		ID:               r.UserID,
		Username:         r.Username,
		Email:            r.Email,
		SubscriptionTier: r.SubscriptionTier,
		CreatedAt:        r.CreatedAt,
	}
}

// RefreshResponse is the body returned by the token refresh endpoint.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest is the register endpoint payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the login endpoint payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
