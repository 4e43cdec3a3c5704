package tally

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/memohai/recallbot/internal/recall"
)

// FilePersister stores the snapshot as a JSON document. Saves write a
// temporary file next to the target and rename it into place.
type FilePersister struct {
	path string
	mu   sync.Mutex
}

// fileSnapshot also accepts the older {"counts": {...}} layout.
type fileSnapshot struct {
	Reasons             []recall.Entry `json:"reasons,omitempty"`
	Counts              map[string]int `json:"counts,omitempty"`
	ProcessedMessageIDs []string       `json:"processed_message_ids"`
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Path() string {
	return p.path
}

func (p *FilePersister) Load(_ context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read %s: %w", p.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{}, nil
	}
	var raw fileSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", p.path, err)
	}
	if len(raw.Reasons) == 0 && len(raw.Counts) > 0 {
		return snapshotFromCounts(raw.Counts, raw.ProcessedMessageIDs), nil
	}
	return Snapshot{Reasons: raw.Reasons, ProcessedMessageIDs: raw.ProcessedMessageIDs}, nil
}

func (p *FilePersister) Save(_ context.Context, snap Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw := fileSnapshot{Reasons: snap.Reasons, ProcessedMessageIDs: snap.ProcessedMessageIDs}
	if raw.ProcessedMessageIDs == nil {
		raw.ProcessedMessageIDs = []string{}
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", p.path, err)
	}
	return nil
}
