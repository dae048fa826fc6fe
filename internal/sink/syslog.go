package sink

import (
	"context"
	"fmt"
	"log/syslog"

	"github.com/dhoenisch/flicker/pkg/models"
)

// SyslogConfig is the syslog destination's configuration.
type SyslogConfig struct {
	Network string // "" for the local syslog daemon, else "tcp"/"udp"
	Address string // required when Network is set
	Tag     string
}

// SyslogDriver writes each line to a syslog writer at info severity.
// Outside this design's core budget (§1); kept minimal so
// destination.type: syslog has a real collaborator to dispatch to.
type SyslogDriver struct {
	writer *syslog.Writer
}

// NewSyslogDriver dials the syslog daemon (local or remote) and tags
// messages with Tag.
func NewSyslogDriver(cfg SyslogConfig) (*SyslogDriver, error) {
	tag := cfg.Tag
	if tag == "" {
		tag = "flicker"
	}
	w, err := syslog.Dial(cfg.Network, cfg.Address, syslog.LOG_INFO|syslog.LOG_USER, tag)
	if err != nil {
		return nil, fmt.Errorf("syslog destination: dial: %w", err)
	}
	return &SyslogDriver{writer: w}, nil
}

// Send writes each record's line, prefixed with its source path, as one
// syslog message.
func (d *SyslogDriver) Send(ctx context.Context, batch []models.LineRecord) error {
	for _, r := range batch {
		if err := d.writer.Info(fmt.Sprintf("%s: %s", r.Path, r.Line)); err != nil {
			return fmt.Errorf("syslog sink: write: %w", err)
		}
	}
	return nil
}
