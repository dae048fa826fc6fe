package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dhoenisch/flicker/pkg/models"
)

// ElasticsearchConfig is the elasticsearch destination's configuration.
type ElasticsearchConfig struct {
	URL     string // e.g. http://localhost:9200
	Index   string
	Timeout time.Duration
}

// ElasticsearchDriver posts each batch to the _bulk API as one index
// action per record. Outside this design's core budget (§1); kept
// minimal so destination.type: elasticsearch has a real collaborator to
// dispatch to.
type ElasticsearchDriver struct {
	cfg    ElasticsearchConfig
	client *http.Client
}

// NewElasticsearchDriver validates URL/Index and returns a driver ready
// to send.
func NewElasticsearchDriver(cfg ElasticsearchConfig) (*ElasticsearchDriver, error) {
	if cfg.URL == "" || cfg.Index == "" {
		return nil, fmt.Errorf("elasticsearch destination: url and index are required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ElasticsearchDriver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Send encodes batch as an NDJSON bulk request (one action line, one
// document line per record) and posts it to <url>/<index>/_bulk.
func (d *ElasticsearchDriver) Send(ctx context.Context, batch []models.LineRecord) error {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, r := range batch {
		if err := enc.Encode(map[string]any{"index": map[string]any{}}); err != nil {
			return fmt.Errorf("elasticsearch sink: encode action: %w", err)
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("elasticsearch sink: encode document: %w", err)
		}
	}

	url := fmt.Sprintf("%s/%s/_bulk", d.cfg.URL, d.cfg.Index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("elasticsearch sink: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("elasticsearch sink: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("elasticsearch sink: unexpected status %d", resp.StatusCode)
	}
	return nil
}
