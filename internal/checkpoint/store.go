package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is one persisted artifact of run state.
type Snapshot struct {
	Epoch      int       `yaml:"epoch"`
	GlobalStep int       `yaml:"global_step"`
	ValLoss    float64   `yaml:"val_loss"`
	SavedAt    time.Time `yaml:"saved_at"`
	// State is the opaque serialized model/optimizer state supplied by the
	// persistence backend's caller.
	State []byte `yaml:"state,omitempty"`
}

// Store is the checkpoint-persistence backend. The policy decides when and
// under what names artifacts are written; the store decides how.
type Store interface {
	Save(ctx context.Context, dir, name string, snap Snapshot) error
}

// FSStore persists snapshots as files under the policy's directory. Writes
// go through a temp file and rename so a kill mid-save never corrupts the
// previous artifact.
type FSStore struct{}

// Save writes the snapshot to dir/name.
func (s *FSStore) Save(ctx context.Context, dir, name string, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encoding checkpoint %s: %w", name, err)
	}
	tmp := filepath.Join(dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("publishing checkpoint %s: %w", name, err)
	}
	return nil
}

// WriteHyperparams records the resolved run configuration next to the
// checkpoints so a directory is self-describing on reentry.
func WriteHyperparams(dir string, hparams map[string]any) error {
	data, err := yaml.Marshal(hparams)
	if err != nil {
		return fmt.Errorf("encoding hparams: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "hparams.yaml"), data, 0o644)
}
