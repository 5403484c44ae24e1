package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestActiveSession_MissingCredentialsFile(t *testing.T) {
	dir := t.TempDir()
	m := NewSessionManager(SessionConfig{
		CredentialsFile: filepath.Join(dir, "credentials.json"),
		TokenFile:       filepath.Join(dir, "token.json"),
		Authorizer:      &fakeAuthorizer{},
	})

	_, err := m.ActiveSession(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, "credentials.json not found. Please download it from Google Cloud Console.", err.Error())
	assert.False(t, m.CredentialsPresent())
}

func TestActiveSession_ReusesValidToken(t *testing.T) {
	dir := t.TempDir()
	var hits atomic.Int32
	srv := tokenServer(t, "unused", &hits)

	tokenFile := filepath.Join(dir, "token.json")
	writeToken(t, tokenFile, validToken("still-good"))

	m := NewSessionManager(SessionConfig{
		CredentialsFile: writeCredentials(t, dir, srv.URL),
		TokenFile:       tokenFile,
	})

	s1, err := m.ActiveSession(context.Background())
	require.NoError(t, err)
	s2, err := m.ActiveSession(context.Background())
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	tok, err := s1.Token()
	require.NoError(t, err)
	assert.Equal(t, "still-good", tok.AccessToken)
	assert.Equal(t, int32(0), hits.Load())
}

func TestActiveSession_ValidTokenWithoutClientFile(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token.json")
	writeToken(t, tokenFile, validToken("still-good"))

	m := NewSessionManager(SessionConfig{
		CredentialsFile: filepath.Join(dir, "credentials.json"),
		TokenFile:       tokenFile,
	})

	s, err := m.ActiveSession(context.Background())
	require.NoError(t, err)
	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "still-good", tok.AccessToken)
	assert.False(t, m.CredentialsPresent())
}

func TestActiveSession_ExpiredTokenWithoutClientFile(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token.json")
	expired := validToken("stale")
	expired.Expiry = time.Now().Add(-time.Hour)
	writeToken(t, tokenFile, expired)

	m := NewSessionManager(SessionConfig{
		CredentialsFile: filepath.Join(dir, "credentials.json"),
		TokenFile:       tokenFile,
		Authorizer:      &fakeAuthorizer{},
	})

	_, err := m.ActiveSession(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, "credentials.json not found. Please download it from Google Cloud Console.", err.Error())
}

func TestClientTokenSource_LoadsConfigOnRefresh(t *testing.T) {
	dir := t.TempDir()
	var hits atomic.Int32
	srv := tokenServer(t, "fresh", &hits)
	credentials := filepath.Join(dir, "credentials.json")

	m := NewSessionManager(SessionConfig{CredentialsFile: credentials, TokenFile: filepath.Join(dir, "token.json")})
	expired := validToken("stale")
	expired.Expiry = time.Now().Add(-time.Hour)
	ts := &clientTokenSource{ctx: context.Background(), tok: expired, load: m.oauthConfig}

	_, err := ts.Token()
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, int32(0), hits.Load())

	writeCredentials(t, dir, srv.URL)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, int32(1), hits.Load())
}

func TestActiveSession_RefreshExtendsPersistedExpiry(t *testing.T) {
	dir := t.TempDir()
	var hits atomic.Int32
	srv := tokenServer(t, "refreshed", &hits)

	tokenFile := filepath.Join(dir, "token.json")
	oldExpiry := time.Now().Add(-time.Hour)
	writeToken(t, tokenFile, &oauth2.Token{
		AccessToken:  "expired",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       oldExpiry,
	})

	rec := &fakeRecorder{}
	m := NewSessionManager(SessionConfig{
		CredentialsFile: writeCredentials(t, dir, srv.URL),
		TokenFile:       tokenFile,
		Recorder:        rec,
	})

	_, err := m.ActiveSession(context.Background())
	require.NoError(t, err)

	stored, err := m.TokenStore().Load()
	require.NoError(t, err)
	assert.Equal(t, "refreshed", stored.AccessToken)
	assert.True(t, stored.Expiry.After(oldExpiry), "persisted expiry must move forward")
	assert.True(t, stored.Expiry.After(time.Now()))
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, []string{ResultSuccess}, rec.refreshs)
}

func TestActiveSession_NoTokenNoAuthorizer(t *testing.T) {
	dir := t.TempDir()
	srv := tokenServer(t, "unused", nil)

	m := NewSessionManager(SessionConfig{
		CredentialsFile: writeCredentials(t, dir, srv.URL),
		TokenFile:       filepath.Join(dir, "token.json"),
	})

	_, err := m.ActiveSession(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "interactive authorization is disabled")
}

func TestActiveSession_RunsAuthorizerAndPersists(t *testing.T) {
	dir := t.TempDir()
	srv := tokenServer(t, "unused", nil)
	auth := &fakeAuthorizer{token: validToken("granted")}
	rec := &fakeRecorder{}

	m := NewSessionManager(SessionConfig{
		CredentialsFile: writeCredentials(t, dir, srv.URL),
		TokenFile:       filepath.Join(dir, "token.json"),
		Authorizer:      auth,
		Recorder:        rec,
	})

	_, err := m.ActiveSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, auth.calls)
	assert.True(t, m.HasToken())
	stored, err := m.TokenStore().Load()
	require.NoError(t, err)
	assert.Equal(t, "granted", stored.AccessToken)
	assert.Equal(t, []string{ResultSuccess}, rec.auths)
}

func TestActiveSession_AuthorizerFailure(t *testing.T) {
	dir := t.TempDir()
	srv := tokenServer(t, "unused", nil)
	rec := &fakeRecorder{}

	m := NewSessionManager(SessionConfig{
		CredentialsFile: writeCredentials(t, dir, srv.URL),
		TokenFile:       filepath.Join(dir, "token.json"),
		Authorizer:      &fakeAuthorizer{err: errors.New("user went away")},
		Recorder:        rec,
	})

	_, err := m.ActiveSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user went away")
	assert.False(t, m.HasToken())
	assert.Equal(t, []string{ResultFailure}, rec.auths)
}

func TestSession_HTTPClientAttachesBearerToken(t *testing.T) {
	dir := t.TempDir()
	srv := tokenServer(t, "unused", nil)
	tokenFile := filepath.Join(dir, "token.json")
	writeToken(t, tokenFile, validToken("abc123"))

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	m := NewSessionManager(SessionConfig{
		CredentialsFile: writeCredentials(t, dir, srv.URL),
		TokenFile:       tokenFile,
		DebugHTTP:       true,
	})
	s, err := m.ActiveSession(context.Background())
	require.NoError(t, err)

	resp, err := s.HTTPClient().Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer abc123", gotAuth)
}

func TestSessionManager_AuthorizeResetsSession(t *testing.T) {
	dir := t.TempDir()
	srv := tokenServer(t, "unused", nil)
	tokenFile := filepath.Join(dir, "token.json")
	writeToken(t, tokenFile, validToken("first"))

	auth := &fakeAuthorizer{token: validToken("second")}
	m := NewSessionManager(SessionConfig{
		CredentialsFile: writeCredentials(t, dir, srv.URL),
		TokenFile:       tokenFile,
		Authorizer:      auth,
	})

	s1, err := m.ActiveSession(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Authorize(context.Background()))

	s2, err := m.ActiveSession(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, s1, s2)

	tok, err := s2.Token()
	require.NoError(t, err)
	assert.Equal(t, "second", tok.AccessToken)
}

func TestSessionManager_AuthorizeWithoutAuthorizer(t *testing.T) {
	dir := t.TempDir()
	m := NewSessionManager(SessionConfig{
		CredentialsFile: filepath.Join(dir, "credentials.json"),
		TokenFile:       filepath.Join(dir, "token.json"),
	})

	err := m.Authorize(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
