package tailer

import (
	"context"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AndresProano/CleaningDataIt/internal/model"
	"github.com/AndresProano/CleaningDataIt/internal/tokenizer"
	"github.com/AndresProano/CleaningDataIt/internal/watcher"
)

// Options configures a Tailer.
type Options struct {
	// Tokenizer options for each read. SkipHeader only applies when a file
	// is read from its first byte.
	Tokenizer tokenizer.Options
	// OnStats, if set, receives the counters of every completed read.
	OnStats func(path string, s tokenizer.Stats)
}

// Tailer follows watched exports and emits each newly completed record.
// A record still being written stays unread until its terminator arrives.
type Tailer struct {
	mu     sync.Mutex
	files  map[string]*trackedFile
	out    chan model.RawRecord
	ckpt   *Checkpoint
	events <-chan watcher.Event
	watch  *watcher.Watcher
	opts   Options
}

type trackedFile struct {
	path   string
	file   *os.File
	offset int64 // just past the last emitted record
}

// New creates a Tailer that reads events from the given Watcher.
func New(w *watcher.Watcher, ckpt *Checkpoint, opts Options) *Tailer {
	return &Tailer{
		files:  make(map[string]*trackedFile),
		out:    make(chan model.RawRecord, 512),
		ckpt:   ckpt,
		events: w.Events,
		watch:  w,
		opts:   opts,
	}
}

// Records returns the channel where tokenized records are sent.
func (t *Tailer) Records() <-chan model.RawRecord {
	return t.out
}

// Start reads every watched file from its checkpoint (or from the start),
// then follows watcher events. Blocks until context is cancelled.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.out)

	for _, p := range t.watch.Paths() {
		if ctx.Err() != nil {
			break
		}
		t.openFile(p)
		t.readNew(ctx, p)
	}
	t.saveCheckpoint()

	// Periodic checkpoint save.
	saveTicker := time.NewTicker(5 * time.Second)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.saveCheckpoint()
			t.closeAll()
			return

		case ev, ok := <-t.events:
			if !ok {
				t.saveCheckpoint()
				t.closeAll()
				return
			}
			t.handleEvent(ctx, ev)

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

// handleEvent dispatches watcher events to the appropriate handler.
func (t *Tailer) handleEvent(ctx context.Context, ev watcher.Event) {
	switch {
	case ev.Op.Has(fsnotify.Write):
		t.readNew(ctx, ev.Path)

	case ev.Op.Has(fsnotify.Create):
		// New export appeared (possibly after rotation).
		t.openFile(ev.Path)
		t.readNew(ctx, ev.Path)

	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		// Export replaced or deleted: forget its offset and wait for it.
		t.closeFile(ev.Path)
		t.ckpt.Delete(ev.Path)
		go t.reconnect(ctx, ev.Path)
	}
}

// openFile opens a file for tailing, resuming from the checkpointed offset.
func (t *Tailer) openFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Printf("cannot open %s: %v", path, err)
		return
	}

	// Resume from checkpoint or read the whole export.
	offset, _ := t.ckpt.Get(path)
	t.files[path] = &trackedFile{
		path:   path,
		file:   f,
		offset: offset,
	}
}

// readNew tokenizes from the last offset to EOF and emits complete records.
func (t *Tailer) readNew(ctx context.Context, path string) {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return
	}

	info, err := tf.file.Stat()
	if err != nil {
		log.Printf("stat %s: %v", path, err)
		return
	}
	if info.Size() < tf.offset {
		log.Printf("%s shrank below offset %d, reading from the start", path, tf.offset)
		tf.offset = 0
	}
	if info.Size() == tf.offset {
		return
	}
	if _, err := tf.file.Seek(tf.offset, io.SeekStart); err != nil {
		log.Printf("seek %s: %v", path, err)
		return
	}

	opts := t.opts.Tokenizer
	opts.SkipHeader = opts.SkipHeader && tf.offset == 0
	base := tf.offset
	tok := tokenizer.New(tf.file, opts)
	sent := 0
	for tok.Scan() {
		select {
		case t.out <- model.RawRecord{Record: tok.Record(), Source: path}:
			// A record handed downstream is never read again.
			sent++
			t.advance(tf, base+tok.Offset())
		case <-ctx.Done():
			t.report(path, sent)
			return
		}
	}
	if err := tok.Err(); err != nil {
		log.Printf("read error on %s: %v", path, err)
	}

	// Only completed records move the offset; a partial tail is re-read later.
	t.advance(tf, base+tok.Offset())
	t.report(path, sent)
}

// advance moves a file's offset and its checkpoint entry.
func (t *Tailer) advance(tf *trackedFile, offset int64) {
	tf.offset = offset
	t.ckpt.Set(tf.path, offset)
}

func (t *Tailer) report(path string, emitted int) {
	if t.opts.OnStats != nil {
		t.opts.OnStats(path, tokenizer.Stats{Openings: emitted, Emitted: emitted})
	}
}

// closeFile releases a tracked file.
func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		tf.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a file to reappear after rotation (up to 5 retries).
func (t *Tailer) reconnect(ctx context.Context, path string) {
	for i := 0; i < 5; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Second):
		}
		if _, err := os.Stat(path); err == nil {
			log.Printf("reconnected to replaced export: %s", path)
			_ = t.watch.ReWatch(path)
			t.openFile(path)
			return
		}
	}
	log.Printf("gave up reconnecting to %s after 5 retries", path)
}

// saveCheckpoint persists the current offsets to disk.
func (t *Tailer) saveCheckpoint() {
	if err := t.ckpt.Save(); err != nil {
		log.Printf("checkpoint save failed: %v", err)
	}
}

// closeAll closes all tracked file handles.
func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}
