package gcal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned by a TokenStore that holds no token yet.
var ErrNoToken = errors.New("no stored token")

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
}

// FileStore keeps the token as JSON in a single file.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the token file.
func (s *FileStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", s.Path, err)
	}
	return tok, nil
}

// Save writes the token file with owner-only permissions.
func (s *FileStore) Save(tok *oauth2.Token) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

// SQLiteStore keeps one token per account in a sqlite database.
type SQLiteStore struct {
	db      *sql.DB
	account string
}

// OpenSQLiteStore opens (or creates) the token database at path.
func OpenSQLiteStore(path, account string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open token db: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		account_name TEXT PRIMARY KEY,
		token TEXT)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create tokens table: %w", err)
	}
	return &SQLiteStore{db: db, account: account}, nil
}

// Load returns the token stored for the store's account.
func (s *SQLiteStore) Load() (*oauth2.Token, error) {
	var tokenJSON []byte
	err := s.db.QueryRow("SELECT token FROM tokens WHERE account_name = ?", s.account).Scan(&tokenJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(tokenJSON, tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

// Save upserts the token for the store's account.
func (s *SQLiteStore) Save(tok *oauth2.Token) error {
	tokenJSON, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", s.account, string(tokenJSON))
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// persistingSource saves every refreshed token back to the store.
type persistingSource struct {
	mu    sync.Mutex
	base  oauth2.TokenSource
	store TokenStore
	last  string
}

func newPersistingSource(base oauth2.TokenSource, store TokenStore, initial *oauth2.Token) *persistingSource {
	ps := &persistingSource{base: base, store: store}
	if initial != nil {
		ps.last = initial.AccessToken
	}
	return ps
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		if err := p.store.Save(tok); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
