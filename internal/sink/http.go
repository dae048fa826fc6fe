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

// HTTPConfig is the http destination's configuration (§6).
type HTTPConfig struct {
	Endpoint    string
	RequireAuth bool
	APIKey      string
	BasicUser   string
	BasicPass   string
	Timeout     time.Duration
}

// HTTPDriver ships batches as a JSON array via one POST per flush.
type HTTPDriver struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPDriver validates the auth constraint from §6 — if RequireAuth is
// set, exactly one of APIKey or BasicUser/BasicPass must be present — and
// returns a driver ready to send.
func NewHTTPDriver(cfg HTTPConfig) (*HTTPDriver, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("http destination: endpoint is required")
	}
	hasAPIKey := cfg.APIKey != ""
	hasBasic := cfg.BasicUser != "" || cfg.BasicPass != ""
	if cfg.RequireAuth && hasAPIKey == hasBasic {
		return nil, fmt.Errorf("http destination: require_auth needs exactly one of api_key or basic")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPDriver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Send POSTs batch as a JSON array of {"path","line"} objects. Success is
// any 2xx status; anything else is a SinkError.
func (d *HTTPDriver) Send(ctx context.Context, batch []models.LineRecord) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("http sink: marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http sink: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	d.applyAuth(req)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http sink: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http sink: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (d *HTTPDriver) applyAuth(req *http.Request) {
	switch {
	case d.cfg.APIKey != "":
		req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)
	case d.cfg.BasicUser != "" || d.cfg.BasicPass != "":
		req.SetBasicAuth(d.cfg.BasicUser, d.cfg.BasicPass)
	}
}
