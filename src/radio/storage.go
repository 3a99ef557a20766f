package radio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/jinjor/desktop-mixer/src/mixer"
)

// ----- Model Store ----- //

type modelMetaJSON struct {
	Name string `json:"name"`
}
type modelMetaListJSON struct {
	Items []modelMetaJSON `json:"items"`
}

// ModelStore keeps one <name>.json per model plus the _list.json index.
type ModelStore struct {
	sync.Mutex
	dir string
}

// NewModelStore ...
func NewModelStore(dir string) *ModelStore {
	return &ModelStore{dir: dir}
}

func (s *ModelStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// List returns the names in _list.json; a missing index is an empty list.
func (s *ModelStore) List() ([]string, error) {
	s.Lock()
	defer s.Unlock()
	return s.list()
}

func (s *ModelStore) list() ([]string, error) {
	bytes, err := os.ReadFile(filepath.Join(s.dir, "_list.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	metaListJSON := &modelMetaListJSON{}
	if err := json.Unmarshal(bytes, metaListJSON); err != nil {
		return nil, err
	}
	names := make([]string, len(metaListJSON.Items))
	for i, item := range metaListJSON.Items {
		names[i] = item.Name
	}
	return names, nil
}

// Exists ...
func (s *ModelStore) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Load applies the stored model name to m.
func (s *ModelStore) Load(name string, m *mixer.Model) error {
	bytes, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}
	if err := m.ApplyJSON(bytes); err != nil {
		return fmt.Errorf("model %s: %w", name, err)
	}
	if m.GetName() == "" {
		m.Rename(name)
	}
	return nil
}

// Save writes m and adds it to the index.
func (s *ModelStore) Save(m *mixer.Model) error {
	name := m.GetName()
	if name == "" {
		return errors.New("model without a name")
	}
	s.Lock()
	defer s.Unlock()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	if err := writeFileAtomic(s.path(name), m.ToJSON()); err != nil {
		return err
	}
	names, err := s.list()
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return nil
	}
	names = append(names, name)
	slices.Sort(names)
	items := make([]modelMetaJSON, len(names))
	for i, name := range names {
		items[i] = modelMetaJSON{Name: name}
	}
	bytes, err := json.MarshalIndent(&modelMetaListJSON{Items: items}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, "_list.json"), bytes)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ----- Storage ----- //

// Storage marks the model dirty on every edit and flushes it once no edit
// happened for the write delay.
type Storage struct {
	mu    sync.Mutex
	dirty bool
	since time.Time
	delay time.Duration
	flush func() error
	now   func() time.Time
}

var _ mixer.Notifier = (*Storage)(nil)

// NewStorage ...
func NewStorage(delay time.Duration, flush func() error) *Storage {
	return &Storage{
		delay: delay,
		flush: flush,
		now:   time.Now,
	}
}

// Dirty ...
func (s *Storage) Dirty() {
	s.mu.Lock()
	s.dirty = true
	s.since = s.now()
	s.mu.Unlock()
}

// IsDirty ...
func (s *Storage) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush writes now if there is something to write.
func (s *Storage) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Storage) flushLocked() error {
	if !s.dirty {
		return nil
	}
	if err := s.flush(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Exclusive runs fn while no flush can happen.
func (s *Storage) Exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Storage) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.now().Sub(s.since) < s.delay {
		return nil
	}
	return s.flushLocked()
}

// Run checks the write delay until ctx is done, then flushes what is left.
func (s *Storage) Run(ctx context.Context) error {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-t.C:
			if err := s.check(); err != nil {
				log.Printf("failed to save model: %v\n", err)
			}
		}
	}
	log.Println("Flushing storage...")
	return s.Flush()
}
