package gcal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// FreeBusyScope grants free/busy queries without event details.
const FreeBusyScope = "https://www.googleapis.com/auth/calendar.events.freebusy"

// Scopes requested during authorization.
var Scopes = []string{calendar.CalendarReadonlyScope, FreeBusyScope}

const callbackTimeout = 2 * time.Minute

// ErrNotAuthorized is returned when no token is stored and the caller did
// not allow an interactive authorization.
var ErrNotAuthorized = errors.New("calendar access not authorized; run `calagent auth`")

// LoadOAuthConfig reads the desktop-app client secret file.
func LoadOAuthConfig(credentialsFile string, callbackPort int) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", callbackPort)
	return cfg, nil
}

// Authorize runs the browser consent flow and stores the resulting token.
// The authorization URL is printed to out; the code arrives on a local
// callback server listening on the config's redirect port.
func Authorize(ctx context.Context, cfg *oauth2.Config, store TokenStore, out io.Writer, logger *zap.Logger) (*oauth2.Token, error) {
	addr, err := callbackAddr(cfg.RedirectURL)
	if err != nil {
		return nil, err
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "\nOpen the following URL in your browser:\n\n%s\n\n", authURL)

	code, err := waitForCode(ctx, addr)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange code for token: %w", err)
	}
	if err := store.Save(tok); err != nil {
		return nil, err
	}
	logger.Info("calendar token stored")
	return tok, nil
}

// HTTPClient returns an authorized client. Refreshed tokens are written
// back to store. When no token is stored, interactive decides whether to
// run Authorize or fail with ErrNotAuthorized.
func HTTPClient(ctx context.Context, cfg *oauth2.Config, store TokenStore, interactive bool, out io.Writer, logger *zap.Logger) (*http.Client, error) {
	tok, err := store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			return nil, err
		}
		if !interactive {
			return nil, ErrNotAuthorized
		}
		tok, err = Authorize(ctx, cfg, store, out, logger)
		if err != nil {
			return nil, err
		}
	}

	src := newPersistingSource(cfg.TokenSource(ctx, tok), store, tok)
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

func waitForCode(ctx context.Context, addr string) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			select {
			case errChan <- errors.New("no code in callback"):
			default:
			}
			return
		}
		fmt.Fprintf(w, "Authorization successful. You may close this window.")
		select {
		case codeChan <- code:
		default:
		}
	})
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer server.Shutdown(context.Background())

	select {
	case code := <-codeChan:
		return code, nil
	case err := <-errChan:
		return "", err
	case <-time.After(callbackTimeout):
		return "", errors.New("timeout waiting for authorization")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func callbackAddr(redirectURL string) (string, error) {
	var port int
	if _, err := fmt.Sscanf(redirectURL, "http://localhost:%d/callback", &port); err != nil {
		return "", fmt.Errorf("unsupported redirect URL %q", redirectURL)
	}
	return fmt.Sprintf("localhost:%d", port), nil
}
