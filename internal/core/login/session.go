package login

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mediadash/internal/platform/engine"
)

// Cookie is one entry of a persisted login session, in the order and
// shape the crawl engines expect to read back.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HttpOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// SessionStore persists one cookie-jar file per platform. A successful
// handshake overwrites the platform's session wholesale; nothing else
// ever mutates it.
type SessionStore struct {
	dir string
}

func NewSessionStore(dir string) *SessionStore { return &SessionStore{dir: dir} }

func (s *SessionStore) Path(p engine.Platform) string {
	return filepath.Join(s.dir, string(p)+".json")
}

// Save writes the full cookie jar for a platform. The write goes to a
// temp file first and is renamed into place, so a concurrent reader
// never observes a half-written session.
func (s *SessionStore) Save(p engine.Platform, cookies []Cookie) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	b, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session for %s: %w", p, err)
	}

	tmp, err := os.CreateTemp(s.dir, string(p)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path(p)); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Load reads the persisted session for a platform, if any.
func (s *SessionStore) Load(p engine.Platform) ([]Cookie, error) {
	b, err := os.ReadFile(s.Path(p))
	if err != nil {
		return nil, err
	}
	var cookies []Cookie
	if err := json.Unmarshal(b, &cookies); err != nil {
		return nil, fmt.Errorf("decode session for %s: %w", p, err)
	}
	return cookies, nil
}
