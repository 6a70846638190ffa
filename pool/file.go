package pool

import (
	"encoding/json"
	"fmt"
	"os"
)

// snapshotFile is the on-disk envelope for a set of snapshots, so the
// format stays extensible without breaking old files.
type snapshotFile struct {
	Snapshots []*Snapshot `json:"snapshots"`
}

// ReadSnapshots loads snapshots from a JSON file written by WriteSnapshots.
func ReadSnapshots(path string) ([]*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file snapshotFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return file.Snapshots, nil
}

// WriteSnapshots saves snapshots as indented JSON so the files stay
// readable and diffable.
func WriteSnapshots(path string, snaps []*Snapshot) error {
	raw, err := json.MarshalIndent(snapshotFile{Snapshots: snaps}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}
