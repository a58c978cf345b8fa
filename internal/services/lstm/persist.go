package lstm

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"CoinCast/pkg/util"
)

// Artifact is the on-disk form of a trained network.
type Artifact struct {
	Symbol    string    `json:"symbol"`
	TrainedAt time.Time `json:"trained_at"`
	TrainLoss *float64  `json:"train_loss,omitempty"`
	ValLoss   *float64  `json:"val_loss,omitempty"`
	Network   *Network  `json:"network"`
}

// NewArtifact wraps n with training metadata. NaN losses are omitted.
func NewArtifact(symbol string, n *Network, trainLoss, valLoss float64) *Artifact {
	return &Artifact{
		Symbol:    symbol,
		TrainedAt: time.Now().UTC(),
		TrainLoss: finite(trainLoss),
		ValLoss:   finite(valLoss),
		Network:   n,
	}
}

// Save writes the artifact atomically.
func (a *Artifact) Save(path string) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	return util.WriteFileAtomic(path, b, 0o644)
}

// Load reads and validates an artifact.
func Load(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if a.Network == nil {
		return nil, fmt.Errorf("model %s: missing network", path)
	}
	if err := a.Network.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &a, nil
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
