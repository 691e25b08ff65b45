package chatstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot is the client-local state that survives a reload: the sidebar
// ordering and the unread counters. It is keyed per identity so profiles
// on a shared device do not bleed into each other.
type Snapshot struct {
	Order  []int64       `json:"order"`
	Unread map[int64]int `json:"unread"`
}

// SnapshotOf extracts the persistable part of a state.
func SnapshotOf(s State) Snapshot {
	snap := Snapshot{
		Order:  make([]int64, 0, len(s.Roster)),
		Unread: make(map[int64]int, len(s.Roster)),
	}
	for _, entry := range s.Roster {
		snap.Order = append(snap.Order, entry.UserID)
		if entry.Unread > 0 {
			snap.Unread[entry.UserID] = entry.Unread
		}
	}
	return snap
}

// StatePath returns the per-identity snapshot location under the OS user
// config directory.
func StatePath(selfID int64) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "duochat", fmt.Sprintf("state-%d.json", selfID)), nil
}

// SaveSnapshot writes the snapshot, creating parent directories as needed.
func SaveSnapshot(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadSnapshot reads a snapshot; a missing file yields an empty snapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt snapshot is not worth failing login over.
		return Snapshot{}, nil
	}
	return snap, nil
}
