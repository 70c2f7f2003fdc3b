package job

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound = errors.New("job not found")
	ErrExists   = errors.New("job id already registered")
)

// Store is the in-memory job registry: a mutable active set plus an
// append-only, bounded history of archived records. All job state lives
// for the current process only.
type Store struct {
	mu           sync.RWMutex
	active       map[string]*Record
	history      []Record
	historyLimit int
}

const DefaultHistoryLimit = 20

func NewStore(historyLimit int) *Store {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Store{
		active:       make(map[string]*Record),
		historyLimit: historyLimit,
	}
}

// Register adds a new record to the active set. Ids are advisory-unique;
// a collision is reported so the caller can disambiguate.
func (s *Store) Register(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.active[rec.ID]; exists {
		return ErrExists
	}
	r := rec
	s.active[rec.ID] = &r
	return nil
}

// Get returns a copy of the record, searching the active set first and
// then history.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.active[id]; ok {
		return *r, true
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].ID == id {
			return s.history[i], true
		}
	}
	return Record{}, false
}

// Update applies the mutator to an active record under the store lock.
// Unknown ids and archived records are reported, never a panic.
func (s *Store) Update(id string, mutate func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.active[id]
	if !ok {
		return ErrNotFound
	}
	mutate(r)
	return nil
}

// ListActive returns copies of every live record, newest first.
func (s *Store) ListActive() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.active))
	for _, r := range s.active {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// History returns up to n archived records, oldest first. n <= 0 returns
// everything retained.
func (s *Store) History(n int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.history) {
		n = len(s.history)
	}
	out := make([]Record, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

// Discard removes an active record without archiving it. Only used when
// dispatch fails right after registration.
func (s *Store) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// Archive moves a record out of the active set and appends a snapshot to
// history, exactly once per id. History retention is bounded: the oldest
// entries are dropped beyond the configured cap.
func (s *Store) Archive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.active[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.active, id)
	s.history = append(s.history, *r)
	if len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
	return nil
}
