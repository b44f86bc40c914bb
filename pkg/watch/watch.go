// Package watch tails a directory of MCE log files, parsing every appended
// line through pkg/mcalog and delivering the result to a caller-supplied
// handler. Log-line ingestion from files or streams is explicitly named as
// an external collaborator in spec.md §1/§6; this package is that
// collaborator's concrete implementation for the local-filesystem case.
package watch

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mscrnt/mcadecode/pkg/mcalog"
)

// Handler is called once per successfully parsed log line. It runs on the
// Watcher's own goroutine; a handler that blocks stalls further line
// delivery, so slow work should be dispatched onward by the caller.
type Handler func(path string, line mcalog.Line)

// Watcher watches a directory for new and appended log files.
type Watcher struct {
	dir     string
	fsw     *fsnotify.Watcher
	handler Handler
	logger  *log.Logger

	mu      sync.Mutex
	offsets map[string]int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Watcher over dir. It does not start watching until Start is
// called.
func New(dir string, handler Handler, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:     dir,
		fsw:     fsw,
		handler: handler,
		logger:  logger,
		offsets: make(map[string]int64),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the directory and dispatching parsed lines. Start
// returns once the initial watch is registered; delivery continues on a
// background goroutine until Stop is called.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: watch %s: %w", w.dir, err)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("watch: read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.processFile(w.dir + "/" + e.Name())
		}
	}

	go w.loop()
	return nil
}

// Stop halts watching and waits for the delivery goroutine to exit.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.fsw.Close()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.processFile(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watch: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) processFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		w.logger.Printf("watch: open %s: %v", path, err)
		return
	}
	defer f.Close()

	w.mu.Lock()
	offset := w.offsets[path]
	w.mu.Unlock()

	if _, err := f.Seek(offset, 0); err != nil {
		w.logger.Printf("watch: seek %s: %v", path, err)
		return
	}

	scanner := bufio.NewScanner(f)
	var read int64
	for scanner.Scan() {
		line := scanner.Text()
		read += int64(len(line)) + 1

		parsed, err := mcalog.ParseLine(line)
		if err != nil {
			continue
		}
		w.handler(path, parsed)
	}

	w.mu.Lock()
	w.offsets[path] = offset + read
	w.mu.Unlock()
}
