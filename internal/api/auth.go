package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/docchat/cli/internal/session"
)

// AuthClient wraps auth service interactions. Login stores the returned
// bearer token in the session; Logout clears it.
type AuthClient struct {
	baseURL   string
	transport *transport
	sess      *session.Session
}

// NewAuthClient creates a new auth service client.
func NewAuthClient(baseURL string, sess *session.Session) *AuthClient {
	if baseURL == "" {
		baseURL = "http://localhost:8002"
	}
	return &AuthClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: newTransport(sess),
		sess:      sess,
	}
}

// OnAuthExpired registers a callback invoked when the service rejects the
// stored credential.
func (c *AuthClient) OnAuthExpired(fn func()) {
	c.transport.onExpired = fn
}

// Login exchanges credentials for a bearer token and stores it in the
// session.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*Token, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var token Token
	if err := c.postJSON(ctx, "/auth/login/json", payload, &token); err != nil {
		return nil, err
	}

	if err := c.sess.SetToken(token.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	return &token, nil
}

// Register creates a new account. Callers typically follow up with Login.
func (c *AuthClient) Register(ctx context.Context, req *RegisterRequest) (*UserProfile, error) {
	var profile UserProfile
	if err := c.postJSON(ctx, "/users", req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ForgotPassword requests a password reset email.
func (c *AuthClient) ForgotPassword(ctx context.Context, email string) error {
	payload := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.postJSON(ctx, "/auth/forgot-password", payload, nil)
}

// CurrentUser fetches the authenticated user's profile. Used to validate an
// existing token on startup and to hydrate user state after login.
func (c *AuthClient) CurrentUser(ctx context.Context) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.transport.do(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var profile UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &profile, nil
}

// Logout discards the stored credential. Purely local; the token simply
// expires on the service side.
func (c *AuthClient) Logout() {
	c.sess.Clear()
}

func (c *AuthClient) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.transport.do(req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
