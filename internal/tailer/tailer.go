// Package tailer owns one open file handle per configured log file and
// turns newly appended bytes into complete lines, surviving rotation and
// truncation without losing or duplicating lines.
package tailer

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dhoenisch/flicker/pkg/models"
	"github.com/fsnotify/fsnotify"
)

// Tailer tails a single path. It is not safe for concurrent use; exactly
// one FlushScheduler goroutine drives it.
type Tailer struct {
	path       string
	file       *os.File
	identity   Identity
	position   int64
	pending    []byte
	everOpened bool

	watcher *fsnotify.Watcher
	wake    chan struct{}
}

// New creates a Tailer for path. It does not open the file yet; the first
// call to Poll performs the initial open.
func New(path string) *Tailer {
	t := &Tailer{
		path: path,
		wake: make(chan struct{}, 1),
	}
	t.startWatch()
	return t
}

// startWatch best-effort watches the file's parent directory so Poll can
// be nudged sooner than the next poll tick. Failure to start the watcher
// is not fatal — the scheduler's poll ticker remains the source of truth.
func (t *Tailer) startWatch() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("tailer: path=%s fsnotify unavailable, polling only: %v", t.path, err)
		return
	}
	dir := filepath.Dir(t.path)
	if err := w.Add(dir); err != nil {
		log.Printf("tailer: path=%s cannot watch directory %s, polling only: %v", t.path, dir, err)
		w.Close()
		return
	}
	t.watcher = w
	go t.watchLoop()
}

func (t *Tailer) watchLoop() {
	for {
		select {
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(t.path) {
				continue
			}
			select {
			case t.wake <- struct{}{}:
			default:
			}
		case _, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Wake is a channel the scheduler's select loop can include to poll ahead
// of the next regular tick when fsnotify observes activity on path.
func (t *Tailer) Wake() <-chan struct{} {
	return t.wake
}

// Close releases the open file handle and the directory watcher.
func (t *Tailer) Close() {
	if t.watcher != nil {
		t.watcher.Close()
	}
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
}

// Poll performs one poll step: it detects rotation and truncation, opens
// the file if it is not currently open, and returns every complete line
// newly available. It never returns an error for a transient condition —
// open/stat/read failures are logged and retried on the next call.
func (t *Tailer) Poll(ctx context.Context) ([]models.LineRecord, error) {
	if t.file == nil {
		if err := t.open(); err != nil {
			return nil, nil
		}
	}

	info, err := os.Stat(t.path)
	if err != nil {
		log.Printf("tailer: path=%s stat failed, will retry: %v", t.path, err)
		t.file.Close()
		t.file = nil
		return nil, nil
	}

	if t.identity.Valid() && !t.identity.SameAs(info) {
		return t.handleRotation(), nil
	}

	if info.Size() < t.position {
		log.Printf("tailer: path=%s truncated, resetting position", t.path)
		t.position = 0
		t.pending = nil
		return nil, nil
	}

	return t.readNew(info.Size()), nil
}

// open opens path and captures its identity. On the Tailer's first
// successful open, position starts at end-of-file so existing content
// present before startup is never reshipped (testable property: startup
// skip). Every later open (after rotation, or after the file vanished)
// starts at offset 0 so the new file is read in full.
func (t *Tailer) open() error {
	f, err := os.Open(t.path)
	if err != nil {
		if !t.everOpened {
			log.Printf("tailer: path=%s not found, will retry: %v", t.path, err)
		}
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	t.file = f
	t.identity = NewIdentity(info)
	t.pending = nil
	if t.everOpened {
		// Reopen after rotation: the new stream is read in full.
		t.position = 0
	} else {
		t.position = info.Size()
	}
	t.everOpened = true
	log.Printf("tailer: path=%s opened at position=%d", t.path, t.position)
	return nil
}

// handleRotation drains whatever remains in the previous file, then opens
// the new file at path from the beginning and ships everything already in
// it — rotation produces a fresh log stream that is shipped in full.
func (t *Tailer) handleRotation() []models.LineRecord {
	log.Printf("tailer: path=%s rotated", t.path)

	var records []models.LineRecord
	if oldInfo, err := t.file.Stat(); err == nil {
		records = append(records, t.drain(t.file, oldInfo.Size())...)
	}
	t.file.Close()
	t.file = nil
	t.pending = nil

	if err := t.open(); err != nil {
		return records
	}
	if info, err := os.Stat(t.path); err == nil {
		records = append(records, t.readNew(info.Size())...)
	}
	return records
}

// readNew reads from the current position up to length and returns every
// complete line found, holding back any trailing partial line.
func (t *Tailer) readNew(length int64) []models.LineRecord {
	if length <= t.position {
		return nil
	}
	return t.drain(t.file, length)
}

// drain reads f from the tailer's current position up to length, updates
// position by the number of bytes actually read (never more, even on a
// short read), and returns every complete line as a LineRecord tagged
// with this tailer's path.
func (t *Tailer) drain(f *os.File, length int64) []models.LineRecord {
	from := t.position
	if length <= from {
		return nil
	}
	if _, err := f.Seek(from, io.SeekStart); err != nil {
		log.Printf("tailer: path=%s seek failed: %v", t.path, err)
		return nil
	}

	buf := make([]byte, length-from)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		log.Printf("tailer: path=%s read failed after %d bytes: %v", t.path, n, err)
	}
	t.position = from + int64(n)

	data := buf[:n]
	if len(t.pending) > 0 {
		data = append(append([]byte(nil), t.pending...), data...)
	}
	parts := bytes.Split(data, []byte{'\n'})
	t.pending = parts[len(parts)-1]

	complete := parts[:len(parts)-1]
	if len(complete) == 0 {
		return nil
	}
	records := make([]models.LineRecord, len(complete))
	for i, c := range complete {
		records[i] = models.LineRecord{Path: t.path, Line: string(c)}
	}
	return records
}
