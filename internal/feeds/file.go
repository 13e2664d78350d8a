package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sealrun/sealrun/internal/market"
)

// FileSource replays a JSON-encoded snapshot from disk. Used by the CLI's
// replay mode and by integration fixtures.
type FileSource struct {
	path string
}

// NewFileSource points a source at a snapshot file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads and decodes the snapshot.
func (f *FileSource) Fetch(ctx context.Context) (*market.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", f.path, err)
	}
	var snap market.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", f.path, err)
	}
	return &snap, nil
}

// FileThemeSource reads symbol-to-theme membership from a JSON file mapping
// symbol to theme name list.
type FileThemeSource struct {
	path string
}

// NewFileThemeSource points a theme source at a membership file.
func NewFileThemeSource(path string) *FileThemeSource {
	return &FileThemeSource{path: path}
}

// Membership reads and decodes the mapping. A missing file is not an error;
// it yields empty membership so symbols fall back to the base theme score.
func (f *FileThemeSource) Membership(ctx context.Context) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read theme membership %s: %w", f.path, err)
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode theme membership %s: %w", f.path, err)
	}
	return m, nil
}
