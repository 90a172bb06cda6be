package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// ErrAuthRequired means no usable token is cached: either none was ever
// stored, or the stored one expired without a refresh token. The interactive
// flow (Authorize) is the only way out, and only the CLI can run it.
var ErrAuthRequired = errors.New("drive authorization required")

// Authenticator owns the credential lifecycle: cached token -> refreshed in
// place when expired with a refresh token -> interactive authorization when
// neither is possible.
type Authenticator struct {
	config *oauth2.Config
	store  TokenStore
}

// NewAuthenticator parses an OAuth client credentials blob (the JSON the
// provider's console issues) scoped to per-app Drive file access.
func NewAuthenticator(credentialsJSON []byte, store TokenStore) (*Authenticator, error) {
	cfg, err := google.ConfigFromJSON(credentialsJSON, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &Authenticator{config: cfg, store: store}, nil
}

// TokenSource returns a source backed by the cached token, refreshing and
// re-persisting it as needed. ErrAuthRequired when no cached token can be
// made usable without user interaction.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrAuthRequired
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, ErrAuthRequired
	}
	return &savingTokenSource{
		src:   a.config.TokenSource(ctx, tok),
		store: a.store,
		last:  tok,
	}, nil
}

// Authorize runs the interactive authorization-code flow: print the consent
// URL, read the code, exchange it, cache the resulting token.
func (a *Authenticator) Authorize(ctx context.Context, in io.Reader, out io.Writer) error {
	url := a.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the following link in your browser, then paste the authorization code:\n%s\n\n> ", url)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read authorization code: %w", err)
		}
		return fmt.Errorf("no authorization code provided")
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := a.store.Save(tok); err != nil {
		return err
	}
	fmt.Fprintln(out, "Authorization complete; token cached.")
	return nil
}
