// Package supervisor spawns one independent task per configured file and
// coordinates their shutdown. No state is shared between tasks: a panic
// or sink failure on one file never affects another.
package supervisor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dhoenisch/flicker/internal/config"
	"github.com/dhoenisch/flicker/internal/filter"
	"github.com/dhoenisch/flicker/internal/scheduler"
	"github.com/dhoenisch/flicker/internal/sink"
)

// ShutdownTimeout bounds how long Run waits for every task to reach
// Terminated before abandoning the stragglers.
const ShutdownTimeout = 10 * time.Second

// Supervisor owns one FlushScheduler per configured file.
type Supervisor struct {
	tasks []*scheduler.FlushScheduler
}

// New constructs a Filter, Buffer, Tailer, SinkDriver, and FlushScheduler
// for every entry in cfg.LogFiles. A failure to compile a filter's
// regexes or to build a destination's driver is a ConfigError and aborts
// construction — it happens once at startup, not per task.
func New(cfg *config.Config) (*Supervisor, error) {
	s := &Supervisor{}
	for _, fc := range cfg.LogFiles {
		f, err := filter.New(fc.MatchOn, fc.ExcludeOn)
		if err != nil {
			return nil, fmt.Errorf("supervisor: %s: %w", fc.Path, err)
		}

		driver, err := sink.New(toSinkConfig(fc.Destination))
		if err != nil {
			return nil, fmt.Errorf("supervisor: %s: %w", fc.Path, err)
		}

		task := scheduler.New(fc.Path, fc.PollInterval(), fc.FlushInterval(), ShutdownTimeout, fc.BufferSize, f, driver)
		s.tasks = append(s.tasks, task)
	}
	return s, nil
}

// Tasks exposes the supervised schedulers for status reporting.
func (s *Supervisor) Tasks() []*scheduler.FlushScheduler {
	return s.tasks
}

// Run spawns every task and blocks until ctx is cancelled, then waits up
// to ShutdownTimeout for all tasks to reach Terminated. Tasks that do not
// terminate in time are abandoned — Run returns regardless.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, task := range s.tasks {
		wg.Add(1)
		go func(t *scheduler.FlushScheduler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("supervisor: path=%s task panicked, not restarting: %v", t.Path, r)
				}
			}()
			t.Run(ctx)
		}(task)
	}

	<-ctx.Done()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("supervisor: all tasks terminated cleanly")
	case <-time.After(ShutdownTimeout):
		log.Printf("supervisor: shutdown timeout exceeded, abandoning remaining tasks")
	}
}

func toSinkConfig(d config.DestinationConfig) sink.Config {
	cfg := sink.Config{Type: sink.Type(d.Type)}
	cfg.HTTP = sink.HTTPConfig{
		Endpoint:    d.Endpoint,
		RequireAuth: d.RequireAuth,
		APIKey:      d.APIKey,
	}
	if d.Basic != nil {
		cfg.HTTP.BasicUser = d.Basic.Username
		cfg.HTTP.BasicPass = d.Basic.Password
	}
	cfg.Syslog = sink.SyslogConfig{Network: d.Network, Address: d.Address, Tag: d.Tag}
	cfg.Elasticsearch = sink.ElasticsearchConfig{URL: d.URL, Index: d.Index}
	cfg.File = sink.FileConfig{Path: d.OutputPath}
	return cfg
}
