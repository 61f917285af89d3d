package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	return rec
}

func TestSlogBridgeWritesZerologJSON(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	log := NewSlog(&zl)

	log.Info("chunk cached", "layer", "roads", "bytes", int64(42), "hit", true, "took", 250*time.Millisecond)

	rec := decodeRecord(t, &buf)
	if rec["level"] != "info" || rec["message"] != "chunk cached" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["layer"] != "roads" {
		t.Fatalf("layer = %v, want roads", rec["layer"])
	}
	if rec["bytes"] != float64(42) {
		t.Fatalf("bytes = %v, want 42", rec["bytes"])
	}
	if rec["hit"] != true {
		t.Fatalf("hit = %v, want true", rec["hit"])
	}
	if rec["took"] != float64(250) {
		t.Fatalf("took = %v, want 250ms", rec["took"])
	}
}

func TestSlogBridgeFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	log := NewSlog(&zl).With(slog.String("component", "cache")).WithGroup("chunk")

	log.Warn("stale entry", "id", "chunk_1_2")

	rec := decodeRecord(t, &buf)
	if rec["level"] != "warn" {
		t.Fatalf("level = %v, want warn", rec["level"])
	}
	if rec["component"] != "cache" {
		t.Fatalf("component = %v, want cache", rec["component"])
	}
	if rec["chunk.id"] != "chunk_1_2" {
		t.Fatalf("chunk.id = %v, want chunk_1_2", rec["chunk.id"])
	}
}

func TestSlogBridgeRespectsLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.WarnLevel)
	log := NewSlog(&zl)

	log.Debug("dropped")
	log.Info("also dropped")
	if buf.Len() != 0 {
		t.Fatalf("below-level records were written: %s", buf.String())
	}

	log.Error("kept")
	if buf.Len() == 0 {
		t.Fatal("error record was not written")
	}
}
