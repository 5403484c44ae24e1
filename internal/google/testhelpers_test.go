package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// tokenServer serves an OAuth2 token endpoint issuing accessToken.
func tokenServer(t *testing.T, accessToken string, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  accessToken,
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeCredentials writes an installed-app client file pointing at tokenURL.
func writeCredentials(t *testing.T, dir, tokenURL string) string {
	t.Helper()

	path := filepath.Join(dir, "credentials.json")
	body, err := json.Marshal(map[string]any{
		"installed": map[string]any{
			"client_id":     "client-id",
			"client_secret": "client-secret",
			"auth_uri":      "https://accounts.example.com/auth",
			"token_uri":     tokenURL,
			"redirect_uris": []string{"http://localhost"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

func writeToken(t *testing.T, path string, tok *oauth2.Token) {
	t.Helper()
	require.NoError(t, NewTokenStore(path).Save(tok))
}

type fakeRecorder struct {
	mu       sync.Mutex
	auths    []string
	refreshs []string
}

func (f *fakeRecorder) RecordOAuthAuth(_ context.Context, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auths = append(f.auths, result)
}

func (f *fakeRecorder) RecordOAuthTokenRefresh(_ context.Context, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshs = append(f.refreshs, result)
}

type fakeAuthorizer struct {
	token *oauth2.Token
	err   error
	calls int
}

func (f *fakeAuthorizer) Authorize(_ context.Context, _ *oauth2.Config) (*oauth2.Token, error) {
	f.calls++
	return f.token, f.err
}

func validToken(access string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	}
}
