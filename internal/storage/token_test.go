package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "state", "token.json")}

	tok, err := store.Load()
	if err != nil {
		t.Fatalf("load missing token failed: %v", err)
	}
	if tok != nil {
		t.Fatalf("missing token file must load as nil")
	}

	want := &oauth2.Token{
		AccessToken:  "a1",
		RefreshToken: "r1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save token failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load token failed: %v", err)
	}
	if got.AccessToken != "a1" || got.RefreshToken != "r1" || !got.Expiry.Equal(want.Expiry) {
		t.Fatalf("token mismatch: %+v", got)
	}
}

func TestFileTokenStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.json")
	store := &FileTokenStore{Path: path}
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

type staticTokenSource struct {
	toks []*oauth2.Token
	i    int
}

func (s *staticTokenSource) Token() (*oauth2.Token, error) {
	tok := s.toks[s.i]
	if s.i < len(s.toks)-1 {
		s.i++
	}
	return tok, nil
}

func TestSavingTokenSourcePersistsRefreshedToken(t *testing.T) {
	t.Parallel()

	store := &MemoryTokenStore{}
	first := &oauth2.Token{AccessToken: "a1"}
	refreshed := &oauth2.Token{AccessToken: "a2"}
	src := &savingTokenSource{
		src:   &staticTokenSource{toks: []*oauth2.Token{first, refreshed}},
		store: store,
		last:  first,
	}

	if _, err := src.Token(); err != nil {
		t.Fatalf("token: %v", err)
	}
	if stored, _ := store.Load(); stored != nil {
		t.Fatalf("unchanged token must not be re-saved")
	}

	tok, err := src.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok.AccessToken != "a2" {
		t.Fatalf("refreshed token mismatch: %+v", tok)
	}
	stored, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored == nil || stored.AccessToken != "a2" {
		t.Fatalf("refreshed token must be persisted: %+v", stored)
	}
}
