package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoSnapshot is returned by Latest when the store holds no snapshots.
var ErrNoSnapshot = errors.New("checkpoint: no snapshot found")

// Store manages snapshot files in a directory, one file per checkpointed
// iteration. Saves are atomic: the snapshot is written to a temporary file
// and renamed into place only after a successful sync.
type Store struct {
	dir         string
	compression Compression
}

func NewStore(dir string, c Compression) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("checkpoint: create directory: %w", err)
	}
	return &Store{dir: dir, compression: c}, nil
}

func (st *Store) path(iteration int) string {
	return filepath.Join(st.dir, fmt.Sprintf("snapshot-%09d.snap", iteration))
}

// Save persists the snapshot and returns the file path it was written to.
func (st *Store) Save(s *Snapshot) (string, error) {
	data, err := Encode(s, st.compression)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(st.dir, "snapshot-*.tmp")
	if err != nil {
		return "", fmt.Errorf("checkpoint: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("checkpoint: write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("checkpoint: sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("checkpoint: close snapshot: %w", err)
	}

	path := st.path(s.Iteration)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("checkpoint: rename snapshot: %w", err)
	}
	return path, nil
}

// Load reads and decodes a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is configurable
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read snapshot: %w", err)
	}
	return Decode(data)
}

// Latest loads the snapshot with the highest iteration number.
func (st *Store) Latest() (*Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(st.dir, "snapshot-*.snap"))
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list snapshots: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoSnapshot
	}
	sort.Strings(matches)
	return Load(matches[len(matches)-1])
}
