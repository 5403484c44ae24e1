package google

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: tokenURL,
		},
		Scopes: Scopes,
	}
}

// redirectTo follows the consent URL's redirect_uri with the given query and
// returns the response status.
func redirectTo(authURL string, query func(state string) url.Values) (int, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return 0, err
	}
	redirect := u.Query().Get("redirect_uri")
	state := u.Query().Get("state")

	resp, err := http.Get(redirect + "?" + query(state).Encode())
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func TestLoopbackAuthorizer_ExchangesCode(t *testing.T) {
	srv := tokenServer(t, "from-consent", nil)

	var accessType string
	statuses := make(chan int, 2)
	errs := make(chan error, 2)
	a := &LoopbackAuthorizer{
		Timeout: 10 * time.Second,
		OnAuthURL: func(authURL string) {
			if u, err := url.Parse(authURL); err == nil {
				accessType = u.Query().Get("access_type")
			}

			go func() {
				// Wrong state is rejected and does not end the flow
				status, err := redirectTo(authURL, func(string) url.Values {
					return url.Values{"state": {"forged"}, "code": {"x"}}
				})
				statuses <- status
				errs <- err

				status, err = redirectTo(authURL, func(state string) url.Values {
					return url.Values{"state": {state}, "code": {"auth-code"}}
				})
				statuses <- status
				errs <- err
			}()
		},
	}

	tok, err := a.Authorize(context.Background(), testOAuthConfig(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "from-consent", tok.AccessToken)
	assert.Equal(t, "offline", accessType)

	assert.Equal(t, http.StatusBadRequest, <-statuses)
	assert.NoError(t, <-errs)
	assert.Equal(t, http.StatusOK, <-statuses)
	assert.NoError(t, <-errs)
}

func TestLoopbackAuthorizer_Denied(t *testing.T) {
	srv := tokenServer(t, "unused", nil)

	done := make(chan struct{})
	a := &LoopbackAuthorizer{
		Timeout: 10 * time.Second,
		OnAuthURL: func(authURL string) {
			go func() {
				defer close(done)
				_, _ = redirectTo(authURL, func(state string) url.Values {
					return url.Values{"state": {state}, "error": {"access_denied"}}
				})
			}()
		},
	}

	_, err := a.Authorize(context.Background(), testOAuthConfig(srv.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	<-done
}

func TestLoopbackAuthorizer_Timeout(t *testing.T) {
	a := &LoopbackAuthorizer{Timeout: 50 * time.Millisecond}

	_, err := a.Authorize(context.Background(), testOAuthConfig("http://127.0.0.1:1/token"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestLoopbackAuthorizer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &LoopbackAuthorizer{Timeout: time.Minute}
	_, err := a.Authorize(ctx, testOAuthConfig("http://127.0.0.1:1/token"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoopbackAuthorizer_ConsentURLReportedOnce(t *testing.T) {
	tests := []struct {
		name         string
		withCallback bool
		wantLogged   bool
	}{
		{name: "logged without callback", withCallback: false, wantLogged: true},
		{name: "callback only", withCallback: true, wantLogged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			var calls int
			a := &LoopbackAuthorizer{
				Timeout: 50 * time.Millisecond,
				Logger:  slog.New(slog.NewTextHandler(&logs, nil)),
			}
			if tt.withCallback {
				a.OnAuthURL = func(string) { calls++ }
			}

			_, err := a.Authorize(context.Background(), testOAuthConfig("http://127.0.0.1:1/token"))
			require.Error(t, err)

			assert.Equal(t, tt.wantLogged, bytes.Contains(logs.Bytes(), []byte("accounts.example.com")))
			if tt.withCallback {
				assert.Equal(t, 1, calls)
			}
		})
	}
}
