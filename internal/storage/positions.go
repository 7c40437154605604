package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"liquidityKeeper/internal/model"
)

// ErrPositionsNotFound is returned when the position list file does not exist.
var ErrPositionsNotFound = errors.New("positions file not found")

// PositionFile stores the position list as a JSON array.
type PositionFile struct {
	path string
	mu   sync.Mutex
}

func NewPositionFile(path string) *PositionFile {
	return &PositionFile{path: path}
}

func (f *PositionFile) Path() string {
	return f.path
}

// Load reads the position list. A missing file is ErrPositionsNotFound.
func (f *PositionFile) Load() ([]model.PositionRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPositionsNotFound, f.path)
		}
		return nil, fmt.Errorf("read positions: %w", err)
	}
	var positions []model.PositionRecord
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("parse positions: %w", err)
	}
	return positions, nil
}

// SavePositions rewrites the file through a temp file and rename.
func (f *PositionFile) SavePositions(_ context.Context, positions []model.PositionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create positions dir: %w", err)
		}
	}
	if positions == nil {
		positions = []model.PositionRecord{}
	}
	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write positions tmp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("rename positions: %w", err)
	}
	return nil
}
