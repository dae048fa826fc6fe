package supervisor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dhoenisch/flicker/internal/config"
)

func TestSupervisor_IsolatesSinkFailures(t *testing.T) {
	dir := t.TempDir()

	goodLog := filepath.Join(dir, "good.log")
	badLog := filepath.Join(dir, "bad.log")
	outFile := filepath.Join(dir, "shipped.jsonl")
	if err := os.WriteFile(goodLog, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(badLog, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := &config.Config{
		LogFiles: []config.FileConfig{
			{
				Path:               goodLog,
				PollingFrequencyMs: 5,
				BufferSize:         1,
				FlushIntervalMs:    50,
				Destination:        config.DestinationConfig{Type: "file", OutputPath: outFile},
			},
			{
				Path:               badLog,
				PollingFrequencyMs: 5,
				BufferSize:         1,
				FlushIntervalMs:    50,
				// An http destination with no reachable listener: every send fails.
				Destination: config.DestinationConfig{Type: "http", Endpoint: "http://127.0.0.1:1/unreachable"},
			},
		},
	}

	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go sup.Run(ctx)
	defer cancel()

	time.Sleep(20 * time.Millisecond)
	appendTo(t, goodLog, "kept line\n")
	appendTo(t, badLog, "never shipped\n")

	deadline := time.After(2 * time.Second)
	for {
		if data, err := os.ReadFile(outFile); err == nil && len(data) > 0 {
			var rec map[string]string
			if err := json.Unmarshal(data[:indexOfNewline(data)], &rec); err == nil && rec["line"] == "kept line" {
				break
			}
		}
		select {
		case <-deadline:
			t.Fatal("good.log's line was never shipped despite bad.log's sink failing")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	time.Sleep(50 * time.Millisecond)
}

func appendTo(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
}

func indexOfNewline(data []byte) int {
	for i, b := range data {
		if b == '\n' {
			return i
		}
	}
	return len(data)
}
