// Package sink defines the SinkDriver contract every destination must
// honor and its concrete variants. Only the http variant is part of this
// design's core; syslog, elasticsearch, and file exist so the
// discriminated destination.type in configuration always has somewhere
// real to dispatch to.
package sink

import (
	"context"
	"fmt"

	"github.com/dhoenisch/flicker/pkg/models"
)

// Driver accepts a batch of line records and reports success or failure.
// Implementations must not mutate batch. A failed Send is logged by the
// caller and the batch is discarded — there is no retry or dead-letter
// queue in this design.
type Driver interface {
	Send(ctx context.Context, batch []models.LineRecord) error
}

// Type discriminates the destination variants configured for a file.
type Type string

const (
	TypeHTTP          Type = "http"
	TypeSyslog        Type = "syslog"
	TypeElasticsearch Type = "elasticsearch"
	TypeFile          Type = "file"
)

// Config is the tagged union of every destination's configuration, as
// parsed from the destination object in a FileConfig. New reads only the
// type-specific field matching Type; the others are ignored.
type Config struct {
	Type          Type
	HTTP          HTTPConfig
	Syslog        SyslogConfig
	Elasticsearch ElasticsearchConfig
	File          FileConfig
}

// New builds the Driver named by cfg.Type. It never uses reflection: each
// branch constructs its variant directly from its own config struct.
func New(cfg Config) (Driver, error) {
	switch cfg.Type {
	case TypeHTTP:
		return NewHTTPDriver(cfg.HTTP)
	case TypeSyslog:
		return NewSyslogDriver(cfg.Syslog)
	case TypeElasticsearch:
		return NewElasticsearchDriver(cfg.Elasticsearch)
	case TypeFile:
		return NewFileDriver(cfg.File)
	default:
		return nil, fmt.Errorf("sink: unknown destination type %q", cfg.Type)
	}
}
