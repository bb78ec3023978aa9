package tailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"
)

// checkpointData is the on-disk JSON structure for persisted offsets.
type checkpointData struct {
	Offsets   map[string]int64 `json:"offsets"`
	UpdatedAt time.Time        `json:"updated_at,omitempty"`
}

// Checkpoint persists, per export file, the byte offset just past the last
// record handed downstream, so following can resume after a restart.
type Checkpoint struct {
	mu   sync.RWMutex
	path string
	data checkpointData
}

// NewCheckpoint creates or loads a checkpoint file at the given path.
// A missing file starts empty; an unreadable one is reported. Corrupt
// contents are logged and discarded.
func NewCheckpoint(path string) (*Checkpoint, error) {
	c := &Checkpoint{
		path: path,
		data: checkpointData{Offsets: make(map[string]int64)},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("read checkpoint %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &c.data); err != nil {
		log.Printf("warning: ignoring corrupt checkpoint %s: %v", path, err)
		c.data = checkpointData{}
	}
	if c.data.Offsets == nil {
		c.data.Offsets = make(map[string]int64)
	}
	return c, nil
}

// Get returns the saved offset for a file path.
func (c *Checkpoint) Get(path string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data.Offsets[path]
	return v, ok
}

// Set records the current offset for a file path.
func (c *Checkpoint) Set(path string, offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Offsets[path] = offset
}

// Delete forgets a file so it is read from the start next time.
func (c *Checkpoint) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data.Offsets, path)
}

// Len returns the number of files with a saved offset.
func (c *Checkpoint) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data.Offsets)
}

// Save writes the checkpoint data to disk atomically.
func (c *Checkpoint) Save() error {
	c.mu.Lock()
	c.data.UpdatedAt = time.Now().UTC()
	raw, err := json.MarshalIndent(c.data, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return err
	}

	// Write to a temp file first, then rename for atomicity.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
