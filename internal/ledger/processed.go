package ledger

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
)

// ProcessedSet is the append-only set of message ids already handled.
// It is stored as a JSON array and rewritten in full after every Add.
type ProcessedSet struct {
	path string

	mu    sync.Mutex
	ids   []string
	index map[string]struct{}
}

// LoadProcessed reads the set at path. A missing file is an empty set.
func LoadProcessed(path string) (*ProcessedSet, error) {
	s := &ProcessedSet{path: path, index: make(map[string]struct{})}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "ledger: read processed set")
	}
	if len(b) == 0 {
		return s, nil
	}

	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, eris.Wrapf(err, "ledger: decode processed set %s", path)
	}
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s, nil
}

func (s *ProcessedSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// Add records id and persists the whole set. The id stays in memory even
// when the write fails, so the current process never handles it twice.
func (s *ProcessedSet) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; ok {
		return nil
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return s.flush()
}

func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns a copy of the set in insertion order.
func (s *ProcessedSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func (s *ProcessedSet) flush() error {
	b, err := json.MarshalIndent(s.ids, "", "  ")
	if err != nil {
		return eris.Wrap(err, "ledger: encode processed set")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "ledger: create state dir")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return eris.Wrap(err, "ledger: write processed set")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrap(err, "ledger: replace processed set")
	}
	return nil
}
