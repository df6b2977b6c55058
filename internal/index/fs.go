package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FSStore keeps one JSON index file per document under
// <root>/<document_id>/index.json. Writes go to a temp file first and are
// renamed into place, so a crashed write never leaves a torn index and
// concurrent re-ingestions of different documents cannot interfere.
type FSStore struct {
	root string
}

const indexFile = "index.json"

func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("index root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create index root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Save(_ context.Context, rec Record) error {
	if rec.DocumentID == "" {
		return fmt.Errorf("document id required")
	}
	dir := filepath.Join(s.root, rec.DocumentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, indexFile+".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(dir, indexFile)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *FSStore) Load(_ context.Context, docID string) (Record, error) {
	data, err := os.ReadFile(filepath.Join(s.root, docID, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("%w: %s", ErrIndexNotFound, docID)
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("corrupt index for %s: %w", docID, err)
	}
	return rec, nil
}

func (s *FSStore) Delete(_ context.Context, docID string) error {
	if docID == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.root, docID))
}
