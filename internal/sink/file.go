package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dhoenisch/flicker/pkg/models"
)

// FileConfig is the file destination's configuration: each batch is
// appended to Path as newline-delimited JSON.
type FileConfig struct {
	Path string
}

// FileDriver appends each LineRecord as one JSON object per line to an
// append-only output file. Outside this design's core budget (§1); kept
// minimal so destination.type: file has a real collaborator to dispatch
// to.
type FileDriver struct {
	path string
}

// NewFileDriver validates that Path is configured.
func NewFileDriver(cfg FileConfig) (*FileDriver, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file destination: path is required")
	}
	return &FileDriver{path: cfg.Path}, nil
}

// Send appends batch to the destination file, one JSON object per line.
func (d *FileDriver) Send(ctx context.Context, batch []models.LineRecord) error {
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("file sink: open %s: %w", d.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range batch {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("file sink: encode record: %w", err)
		}
	}
	return nil
}
