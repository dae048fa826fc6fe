// Package models holds the data types shared across flicker's internal
// packages: the line records a Tailer produces and a SinkDriver ships.
package models

// LineRecord is one line read from a tailed file, paired with the path it
// came from. Line never contains the terminating newline.
type LineRecord struct {
	Path string `json:"path"`
	Line string `json:"line"`
}
