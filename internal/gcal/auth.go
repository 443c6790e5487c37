// Package gcal pushes tasks with due dates to Google Calendar as all-day
// events.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/logging"
)

// AuthPort is the local port that receives the OAuth redirect.
const AuthPort = "6789"

// authTimeout bounds how long the browser flow waits for the user.
const authTimeout = 5 * time.Minute

// OAuthConfig reads the client credentials downloaded from the Google Cloud
// console. Localhost and out-of-band redirects are pointed at AuthPort.
func OAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, &errors.UserError{
			Message:    "Cannot read Google credentials file",
			Suggestion: "Download OAuth client credentials to " + credentialsFile + " or set TASKTIME_GCAL_CREDENTIALS",
			Value:      credentialsFile,
			Cause:      errors.ErrNotConfigured,
		}
	}
	cfg, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, errors.Wrap(err, "parse Google credentials")
	}
	cfg.RedirectURL = localRedirect(cfg.RedirectURL)
	return cfg, nil
}

func localRedirect(redirect string) string {
	u, err := url.Parse(redirect)
	if err != nil || redirect == "urn:ietf:wg:oauth:2.0:oob" || redirect == "" {
		return "http://localhost:" + AuthPort + "/oauth2callback"
	}
	if u.Hostname() == "localhost" || u.Hostname() == "127.0.0.1" {
		u.Host = u.Hostname() + ":" + AuthPort
		return u.String()
	}
	return redirect
}

// NewService returns an authenticated Calendar service. Without a cached
// token it runs the browser flow, printing the consent URL to prompt.
func NewService(ctx context.Context, cfg config.CalendarConfig, prompt io.Writer) (*calendar.Service, error) {
	oauthCfg, err := OAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		logging.DebugLog("no cached calendar token", logging.KeyError, err)
		tok, err = tokenFromWeb(ctx, oauthCfg, prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenFile, tok); err != nil {
			return nil, err
		}
	}

	ts := &savingTokenSource{
		base: oauthCfg.TokenSource(ctx, tok),
		path: cfg.TokenFile,
		last: tok,
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, errors.Wrap(err, "create Calendar service")
	}
	return srv, nil
}

// savingTokenSource writes refreshed tokens back to the token file.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := saveToken(s.path, tok); err != nil {
			logging.Warn("failed to save refreshed calendar token", logging.KeyError, err)
		}
		s.last = tok
	}
	return tok, nil
}

// tokenFromWeb runs the authorization code flow through a local callback
// server.
func tokenFromWeb(ctx context.Context, cfg *oauth2.Config, prompt io.Writer) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "localhost:"+AuthPort)
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("calendar auth", "cannot listen for the OAuth redirect on port "+AuthPort, err)
	}

	state := logging.GenerateRequestID()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("state") != state || q.Get("code") == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- errors.New("authorization code not found in redirect"):
				default:
				}
				return
			}
			fmt.Fprintln(w, "Tasktime is authorized. You can close this window.")
			select {
			case codeCh <- q.Get("code"):
			default:
			}
		}),
	}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(prompt, "Open this URL in your browser to authorize Google Calendar access:\n\n  %s\n\n", authURL)

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()
	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, errors.Wrap(err, "exchange authorization code")
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrTimeout, "calendar authorization")
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.NewSystemErrorWithOp("save token", "cannot create token directory", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.NewSystemErrorWithOp("save token", "cannot write token file", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
