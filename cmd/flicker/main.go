// Command flicker tails a configured set of log files, filters and
// batches their lines, and ships them to remote sinks.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/dhoenisch/flicker/internal/config"
	"github.com/dhoenisch/flicker/internal/statusfeed"
	"github.com/dhoenisch/flicker/internal/supervisor"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var statusAddr string
	var statusPort int
	pflag.StringVarP(&configPath, "config", "c", "flicker.yaml", "path to the YAML configuration file")
	pflag.StringVar(&statusAddr, "status-host", "localhost", "host the operator status feed listens on")
	pflag.IntVar(&statusPort, "status-port", 8090, "port the operator status feed listens on")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flicker: configuration error: %v\n", err)
		return 1
	}

	sup, err := supervisor.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flicker: startup error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := statusfeed.NewServer(statusAddr, statusPort, sup.Tasks())
	go feed.Start(ctx, time.Second)

	log.Printf("flicker: tailing %d file(s) from %s", len(cfg.LogFiles), configPath)
	sup.Run(ctx)
	log.Printf("flicker: shutdown complete")
	return 0
}
