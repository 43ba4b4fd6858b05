package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FilePersister keeps each cart session as a JSON file in Dir.
type FilePersister struct {
	Dir string
}

func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart directory: %w", err)
	}
	return &FilePersister{Dir: dir}, nil
}

func (p *FilePersister) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	var snap Snapshot

	path, err := p.path(sessionID)
	if err != nil {
		return snap, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snap, nil
		}
		return snap, fmt.Errorf("read cart file: %w", err)
	}

	if len(data) == 0 {
		return snap, nil
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode cart file: %w", err)
	}
	return snap, nil
}

// Save replaces the session file through a temporary file and a rename.
func (p *FilePersister) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	path, err := p.path(sessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cart file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cart file: %w", err)
	}
	return nil
}

func (p *FilePersister) path(sessionID string) (string, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return "", fmt.Errorf("invalid cart session %q: %w", sessionID, err)
	}
	return filepath.Join(p.Dir, id.String()+".json"), nil
}
