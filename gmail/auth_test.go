package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/bassamadnan/mailfilter/config"
)

type tokenServer struct {
	*httptest.Server
	mu    sync.Mutex
	codes []string
	calls int
}

func (ts *tokenServer) seen() (int, []string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.calls, ts.codes
}

func newTokenServer(t *testing.T, access string) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		ts.mu.Lock()
		ts.calls++
		ts.codes = append(ts.codes, r.Form.Get("code"))
		ts.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func googleConfig(t *testing.T, tokenURL string) config.Google {
	t.Helper()
	dir := t.TempDir()
	creds := map[string]any{
		"installed": map[string]any{
			"client_id":     "client-id",
			"client_secret": "client-secret",
			"auth_uri":      "https://accounts.example.com/auth",
			"token_uri":     tokenURL,
			"redirect_uris": []string{"http://localhost"},
		},
	}
	b, err := json.Marshal(creds)
	require.NoError(t, err)
	credsFile := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credsFile, b, 0o600))

	return config.Google{
		CredentialsFile: credsFile,
		TokenFile:       filepath.Join(dir, "token.json"),
		Scopes:          []string{config.GmailModifyScope},
	}
}

func TestAuthenticate_ConsentFlow(t *testing.T) {
	srv := newTokenServer(t, "access-1")
	cfg := googleConfig(t, srv.URL)

	var shownURL string
	client, err := Authenticate(context.Background(), cfg, func(authURL string) (string, error) {
		shownURL = authURL
		return "  code-123\n", nil
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, client)

	assert.Contains(t, shownURL, "https://accounts.example.com/auth")
	assert.Contains(t, shownURL, "access_type=offline")
	_, codes := srv.seen()
	assert.Equal(t, []string{"code-123"}, codes)

	info, err := os.Stat(cfg.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := tokenFromFile(cfg.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
}

func TestAuthenticate_ValidCachedToken(t *testing.T) {
	srv := newTokenServer(t, "unused")
	cfg := googleConfig(t, srv.URL)
	require.NoError(t, saveToken(cfg.TokenFile, &oauth2.Token{
		AccessToken:  "cached",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(time.Hour),
	}))

	_, err := Authenticate(context.Background(), cfg, func(string) (string, error) {
		t.Fatal("consent flow must not run with a valid token")
		return "", nil
	}, nil)
	require.NoError(t, err)
	calls, _ := srv.seen()
	assert.Zero(t, calls)

	tok, err := tokenFromFile(cfg.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, "cached", tok.AccessToken)
}

func TestAuthenticate_RefreshesExpiredToken(t *testing.T) {
	srv := newTokenServer(t, "refreshed")
	cfg := googleConfig(t, srv.URL)
	require.NoError(t, saveToken(cfg.TokenFile, &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	_, err := Authenticate(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	calls, _ := srv.seen()
	assert.Equal(t, 1, calls)

	tok, err := tokenFromFile(cfg.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok.AccessToken)
}

func TestAuthenticate_NoTokenNoPrompt(t *testing.T) {
	srv := newTokenServer(t, "unused")
	cfg := googleConfig(t, srv.URL)

	_, err := Authenticate(context.Background(), cfg, nil, nil)
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "reading authorization code", authErr.Step)
}

func TestAuthenticate_PromptAborted(t *testing.T) {
	srv := newTokenServer(t, "unused")
	cfg := googleConfig(t, srv.URL)
	aborted := errors.New("aborted")

	_, err := Authenticate(context.Background(), cfg, func(string) (string, error) {
		return "", aborted
	}, nil)
	assert.ErrorIs(t, err, aborted)
	calls, _ := srv.seen()
	assert.Zero(t, calls)
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	cfg := config.Google{
		CredentialsFile: filepath.Join(t.TempDir(), "nope.json"),
		TokenFile:       filepath.Join(t.TempDir(), "token.json"),
		Scopes:          []string{config.GmailModifyScope},
	}
	_, err := Authenticate(context.Background(), cfg, nil, nil)
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type tokenSequence struct {
	toks []*oauth2.Token
	i    int
}

func (s *tokenSequence) Token() (*oauth2.Token, error) {
	if s.i >= len(s.toks) {
		return nil, errors.New("no more tokens")
	}
	tok := s.toks[s.i]
	s.i++
	return tok, nil
}

func TestSavingTokenSource_PersistsLaterRefreshes(t *testing.T) {
	file := filepath.Join(t.TempDir(), "token.json")
	first := &oauth2.Token{AccessToken: "a1", RefreshToken: "r"}
	require.NoError(t, saveToken(file, first))

	ts := newSavingTokenSource(&tokenSequence{toks: []*oauth2.Token{
		first,
		{AccessToken: "a2", RefreshToken: "r"},
		{AccessToken: "a2", RefreshToken: "r"},
	}}, file, first, zap.NewNop())

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "a1", tok.AccessToken)

	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "a2", tok.AccessToken)
	saved, err := tokenFromFile(file)
	require.NoError(t, err)
	assert.Equal(t, "a2", saved.AccessToken)

	require.NoError(t, os.Remove(file))
	_, err = ts.Token()
	require.NoError(t, err)
	_, err = os.Stat(file)
	assert.True(t, errors.Is(err, os.ErrNotExist), "unchanged token is not rewritten")

	_, err = ts.Token()
	assert.Error(t, err)
}
