package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/topset/internal/storage"
)

// Backup is the raw content of every namespace for one user. Blobs are
// passed through untouched in both directions.
type Backup map[string]json.RawMessage

// ErrUnexportable is returned by Export when a stored blob is not JSON and so
// cannot be carried in a Backup without altering its bytes.
var ErrUnexportable = errors.New("blob is not valid JSON")

// Export collects the user's blobs. Namespaces with no data are omitted.
func (j *Journal) Export(ctx context.Context, userID string) (Backup, error) {
	out := Backup{}
	for _, ns := range storage.Namespaces {
		blob, err := j.store.Get(ctx, ns, userID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("exporting %s: %w", ns, err)
		}
		if !json.Valid(blob) {
			return nil, fmt.Errorf("exporting %s: %w", ns, ErrUnexportable)
		}
		out[ns] = blob
	}
	return out, nil
}

// Import writes each known namespace present in b, replacing what is stored.
func (j *Journal) Import(ctx context.Context, userID string, b Backup) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	known := make(map[string]bool, len(storage.Namespaces))
	for _, ns := range storage.Namespaces {
		known[ns] = true
	}
	for ns := range b {
		if !known[ns] {
			return fmt.Errorf("importing: unknown namespace %q", ns)
		}
	}
	for _, ns := range storage.Namespaces {
		blob, ok := b[ns]
		if !ok {
			continue
		}
		if err := j.store.Set(ctx, ns, userID, blob); err != nil {
			return fmt.Errorf("importing %s: %w", ns, err)
		}
	}
	return nil
}
