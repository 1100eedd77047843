// Package api provides thin HTTP clients for the three remote services the
// application talks to: the conversation service, the auth service, and the
// query service.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/docchat/cli/internal/session"
)

const defaultTimeout = 2 * time.Minute

// transport is the request plumbing shared by the service clients: it
// attaches the bearer token, executes the request, and normalizes error
// responses. A 401 clears the stored credential and notifies the
// auth-expired handler so the UI can return to the login screen.
type transport struct {
	httpClient *http.Client
	sess       *session.Session
	onExpired  func()
}

func newTransport(sess *session.Session) *transport {
	return &transport{
		httpClient: &http.Client{Timeout: defaultTimeout},
		sess:       sess,
	}
}

// do executes req. When authed is true the bearer token, if any, is attached.
// Every request carries a request id so failures can be matched against
// service-side logs.
func (t *transport) do(req *http.Request, authed bool) (*http.Response, error) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if authed && t.sess != nil {
		if token := t.sess.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := decodeError(resp)
		resp.Body.Close()
		if apiErr.Status == http.StatusUnauthorized {
			if t.sess != nil {
				t.sess.Clear()
			}
			if t.onExpired != nil {
				t.onExpired()
			}
		}
		return nil, apiErr
	}
	return resp, nil
}
