// Package invalidation defines the layer-invalidation event contract
// shared by the Kafka consumer and the filesystem watcher.
package invalidation

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	Layer   string    `json:"layer"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "insert", "update", "delete", "reload":
	default:
		return fmt.Errorf("op must be insert|update|delete|reload")
	}
	if strings.TrimSpace(e.Layer) == "" {
		return fmt.Errorf("layer is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}

// Invalidator drops all cached tiles for a layer. The returned count is
// the number of durable cache entries removed.
type Invalidator interface {
	Invalidate(ctx context.Context, layerID string) (int, error)
}
