package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/curatorhq/curator/internal/model"
)

// snapshot is the on-disk representation of the store
type snapshot struct {
	Version int                      `json:"version"`
	Items   []model.ContentItem      `json:"items"`
	Chunks  map[string][]model.Chunk `json:"chunks,omitempty"`
}

const snapshotVersion = 1

// Save writes the full store contents to path as a JSON snapshot.
// I/O failures surface as model.ErrStorageUnavailable.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	snap := snapshot{
		Version: snapshotVersion,
		Items:   make([]model.ContentItem, 0, len(s.items)),
		Chunks:  make(map[string][]model.Chunk, len(s.chunks)),
	}
	for _, item := range s.items {
		snap.Items = append(snap.Items, item)
	}
	for id, chunks := range s.chunks {
		snap.Chunks[id] = chunks
	}
	s.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create snapshot dir: %v", model.ErrStorageUnavailable, err)
		}
	}

	// Write-then-rename so readers never observe a partial snapshot
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write snapshot: %v", model.ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: replace snapshot: %v", model.ErrStorageUnavailable, err)
	}

	return nil
}

// Load replaces the store contents from a JSON snapshot. A missing file is
// not an error; the store simply starts empty.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: read snapshot: %v", model.ErrStorageUnavailable, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]model.ContentItem, len(snap.Items))
	s.byURL = make(map[string]string, len(snap.Items))
	s.chunks = make(map[string][]model.Chunk, len(snap.Chunks))

	for _, item := range snap.Items {
		s.items[item.ID] = item
		if item.URL != "" {
			s.byURL[item.URL] = item.ID
		}
	}
	for id, chunks := range snap.Chunks {
		s.chunks[id] = chunks
	}

	return nil
}
