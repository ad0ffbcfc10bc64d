package manifest

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Snapshot is the object replicated to every region: the manifest plus
// the serialized rows of each table that backed up successfully. Restore
// reads rows back out of it; metadata-only consumers use just Manifest.
type Snapshot struct {
	Manifest *BackupManifest            `json:"manifest"`
	Rows     map[string]json.RawMessage `json:"rows,omitempty"`
}

func (s *Snapshot) Validate() error {
	if s.Manifest == nil {
		return fmt.Errorf("snapshot has no manifest")
	}
	if err := s.Manifest.Validate(); err != nil {
		return err
	}
	for table := range s.Rows {
		if _, ok := s.Manifest.Tables[table]; !ok {
			return fmt.Errorf("snapshot %s: rows for table %q not in manifest", s.Manifest.ID, table)
		}
	}
	return nil
}

func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot %s: %w", s.Manifest.ID, err)
	}
	return data, nil
}

func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
