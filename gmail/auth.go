package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/bassamadnan/mailfilter/config"
)

// CodeReader shows the consent URL to the user and returns the
// authorization code they paste back.
type CodeReader func(authURL string) (string, error)

// AuthError reports which step of the OAuth flow failed.
type AuthError struct {
	Step string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gmail auth: %s: %v", e.Step, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Authenticate builds a Gmail client from the cached token, refreshing it
// when needed, and falls back to the interactive consent flow when there is
// no usable token.
func Authenticate(ctx context.Context, cfg config.Google, readCode CodeReader, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	oauthCfg, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}
	ts, err := tokenSource(ctx, oauthCfg, cfg.TokenFile, readCode, logger)
	if err != nil {
		return nil, err
	}

	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, &AuthError{Step: "creating Gmail service", Err: err}
	}
	return NewClient(srv, logger), nil
}

func oauthConfig(cfg config.Google) (*oauth2.Config, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, &AuthError{Step: "reading client secret file", Err: err}
	}
	oauthCfg, err := google.ConfigFromJSON(b, cfg.Scopes...)
	if err != nil {
		return nil, &AuthError{Step: "parsing client secret file", Err: err}
	}
	return oauthCfg, nil
}

func tokenSource(ctx context.Context, oauthCfg *oauth2.Config, tokenFile string, readCode CodeReader, logger *zap.Logger) (oauth2.TokenSource, error) {
	cached, err := tokenFromFile(tokenFile)
	if err == nil {
		ts := newSavingTokenSource(oauth2.ReuseTokenSource(cached, oauthCfg.TokenSource(ctx, cached)), tokenFile, cached, logger)
		_, err := ts.Token()
		if err == nil {
			return ts, nil
		}
		logger.Warn("cached token unusable, starting consent flow", zap.Error(err))
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("cached token unreadable, starting consent flow", zap.Error(err))
	}

	tok, err := tokenFromWeb(ctx, oauthCfg, readCode)
	if err != nil {
		return nil, err
	}
	if err := saveToken(tokenFile, tok); err != nil {
		return nil, &AuthError{Step: "saving token", Err: err}
	}
	logger.Info("token saved", zap.String("file", tokenFile))
	return newSavingTokenSource(oauth2.ReuseTokenSource(tok, oauthCfg.TokenSource(ctx, tok)), tokenFile, tok, logger), nil
}

// savingTokenSource writes every new access token back to the token file,
// so refreshes made in the middle of a run survive it.
type savingTokenSource struct {
	base   oauth2.TokenSource
	file   string
	logger *zap.Logger

	mu   sync.Mutex
	last string
}

func newSavingTokenSource(base oauth2.TokenSource, file string, current *oauth2.Token, logger *zap.Logger) *savingTokenSource {
	return &savingTokenSource{base: base, file: file, logger: logger, last: current.AccessToken}
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.logger.Debug("access token refreshed", zap.String("file", s.file))
	if err := saveToken(s.file, tok); err != nil {
		s.logger.Warn("could not persist refreshed token", zap.Error(err))
		return tok, nil
	}
	s.last = tok.AccessToken
	return tok, nil
}

func tokenFromWeb(ctx context.Context, oauthCfg *oauth2.Config, readCode CodeReader) (*oauth2.Token, error) {
	if readCode == nil {
		return nil, &AuthError{Step: "reading authorization code", Err: errors.New("no interactive prompt available")}
	}
	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := readCode(authURL)
	if err != nil {
		return nil, &AuthError{Step: "reading authorization code", Err: err}
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &AuthError{Step: "reading authorization code", Err: errors.New("empty code")}
	}
	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthError{Step: "exchanging authorization code", Err: err}
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", file, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
