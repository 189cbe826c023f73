// Package classifier consumes externally produced node-kind predictions.
// The topology engine functions correctly with no predictions at all; a
// prediction table only refines simplification decisions. Tables are
// typically exported by an offline graph model and loaded from JSON.
package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Predictor maps a routing-node id to a predicted kind with confidence.
type Predictor interface {
	Predict(nodeID int64) (types.Prediction, bool)
}

// Table is a static in-memory Predictor.
type Table map[int64]types.Prediction

// Predict returns the prediction for a node, if any.
func (t Table) Predict(nodeID int64) (types.Prediction, bool) {
	p, ok := t[nodeID]
	return p, ok
}

// tableFile is the on-disk JSON layout of a prediction export.
type tableFile struct {
	Nodes []struct {
		NodeID     int64   `json:"node_id"`
		Kind       string  `json:"kind"`
		Confidence float64 `json:"confidence"`
	} `json:"nodes"`
}

// Load reads a prediction table from a JSON file. Entries with unknown
// kinds or out-of-range confidences are rejected so a bad export fails
// loudly instead of silently steering the simplifier.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier table: %w", err)
	}

	var tf tableFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse classifier table: %w", err)
	}

	table := make(Table, len(tf.Nodes))
	for _, n := range tf.Nodes {
		if !types.ValidNodeKind(n.Kind) {
			return nil, fmt.Errorf("classifier table: node %d: unknown kind %q", n.NodeID, n.Kind)
		}
		if n.Confidence < 0 || n.Confidence > 1 {
			return nil, fmt.Errorf("classifier table: node %d: confidence %v out of range", n.NodeID, n.Confidence)
		}
		table[n.NodeID] = types.Prediction{Kind: n.Kind, Confidence: n.Confidence}
	}
	return table, nil
}

// Overrides collects predictions for the given nodes into the map form the
// simplifier consumes. A nil predictor yields nil.
func Overrides(p Predictor, nodeIDs []int64) map[int64]types.Prediction {
	if p == nil {
		return nil
	}
	out := make(map[int64]types.Prediction)
	for _, id := range nodeIDs {
		if pred, ok := p.Predict(id); ok {
			out[id] = pred
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
