package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	t.Run("stores the returned token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/login/json", r.URL.Path)

			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "user@example.com", creds["email"])

			_ = json.NewEncoder(w).Encode(Token{AccessToken: "fresh-token", TokenType: "bearer"})
		}))
		defer server.Close()

		sess := newTestSession(t, "")
		client := NewAuthClient(server.URL, sess)

		token, err := client.Login(context.Background(), "user@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, "fresh-token", token.AccessToken)
		assert.Equal(t, "fresh-token", sess.Token())
	})

	t.Run("bad credentials surface the detail string", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
		}))
		defer server.Close()

		sess := newTestSession(t, "")
		client := NewAuthClient(server.URL, sess)

		_, err := client.Login(context.Background(), "user@example.com", "wrong")
		require.Error(t, err)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Incorrect email or password", apiErr.Detail)
		assert.False(t, sess.Authenticated())
	})
}

func TestCurrentUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-9", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(UserProfile{ID: 7, Email: "user@example.com", IsActive: true})
	}))
	defer server.Close()

	client := NewAuthClient(server.URL, newTestSession(t, "tok-9"))
	profile, err := client.CurrentUser(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 7, profile.ID)
	assert.Equal(t, "user@example.com", profile.Email)
}

func TestCurrentUser_ExpiredTokenClearsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Token expired"})
	}))
	defer server.Close()

	sess := newTestSession(t, "stale")
	client := NewAuthClient(server.URL, sess)
	var notified bool
	client.OnAuthExpired(func() { notified = true })

	_, err := client.CurrentUser(context.Background())

	assert.True(t, IsAuth(err))
	assert.False(t, sess.Authenticated())
	assert.True(t, notified)
}

func TestLogout(t *testing.T) {
	sess := newTestSession(t, "tok")
	client := NewAuthClient("http://localhost:0", sess)

	client.Logout()
	assert.False(t, sess.Authenticated())
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)

		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "new@example.com", req.Email)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(UserProfile{ID: 1, Email: req.Email})
	}))
	defer server.Close()

	client := NewAuthClient(server.URL, newTestSession(t, ""))
	profile, err := client.Register(context.Background(), &RegisterRequest{
		Email: "new@example.com", Password: "longenough", ConfirmPassword: "longenough",
	})

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", profile.Email)
}

func TestAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is this about?", req["query"])

		_ = json.NewEncoder(w).Encode(AskResponse{
			Answer:  "It is about PDFs.",
			Sources: []Source{{Title: "report.pdf", Content: "..."}},
		})
	}))
	defer server.Close()

	client := NewQueryClient(server.URL, newTestSession(t, "tok"))
	answer, err := client.Ask(context.Background(), "what is this about?")

	require.NoError(t, err)
	assert.Equal(t, "It is about PDFs.", answer.Answer)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "report.pdf", answer.Sources[0].Title)
}
