package console

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// Session is an authenticated admin's connection to the API.
type Session struct {
	BaseURL string `json:"baseURL"`
	Token   string `json:"token"`
	Role    string `json:"role"`
	Email   string `json:"email"`
}

// LoggedIn reports whether the session carries a token.
func (s Session) LoggedIn() bool { return s.Token != "" }

type stateFile struct {
	Session Session    `json:"session"`
	Feed    *FeedState `json:"feed,omitempty"`
}

// FileStore keeps the session and the feed state in one JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) read() (stateFile, error) {
	var st stateFile
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, errors.Wrapf(err, "read %s", s.path)
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, errors.Wrapf(err, "parse %s", s.path)
	}
	return st, nil
}

// write replaces the file through a rename so a crash never leaves it
// half-written.
func (s *FileStore) write(st stateFile) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".console-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp state file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write state")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "write state")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path), "replace %s", s.path)
}

// Session returns the saved session, empty when none was saved.
func (s *FileStore) Session() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	return st.Session, err
}

// SaveSession replaces the saved session.
func (s *FileStore) SaveSession(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil {
		return err
	}
	st.Session = sess
	return s.write(st)
}

func (s *FileStore) LoadFeed(_ context.Context) (FeedState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil || st.Feed == nil {
		return FeedState{}, false, err
	}
	return *st.Feed, true, nil
}

func (s *FileStore) SaveFeed(_ context.Context, feed FeedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil {
		return err
	}
	st.Feed = &feed
	return s.write(st)
}

// MemoryStore is a WatermarkStore that lives in memory.
type MemoryStore struct {
	mu    sync.Mutex
	state *FeedState
	Saves int
}

func (m *MemoryStore) LoadFeed(_ context.Context) (FeedState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return FeedState{}, false, nil
	}
	return *m.state, true, nil
}

func (m *MemoryStore) SaveFeed(_ context.Context, st FeedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &st
	m.Saves++
	return nil
}
