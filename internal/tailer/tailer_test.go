package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AndresProano/CleaningDataIt/internal/model"
	"github.com/AndresProano/CleaningDataIt/internal/tokenizer"
	"github.com/AndresProano/CleaningDataIt/internal/watcher"
)

const header = "Title,Details,File,Status,Stage,Source,Create at,Sent by,Sent to,Custom response\n"

func record(title string) string {
	return `"` + title + `","detalle","http://f","Completed",,"Infra","8/15/2025 3:34:50 PM","Juan","Ana","Ok";` + "\n"
}

func appendTo(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString(s)
	f.Close()
}

func next(t *testing.T, ch <-chan model.RawRecord) model.RawRecord {
	t.Helper()
	select {
	case raw := <-ch:
		return raw
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for record")
	}
	return model.RawRecord{}
}

func startTailer(t *testing.T, path string, ckpt *Checkpoint, onStats func(string, tokenizer.Stats)) (*Tailer, context.CancelFunc) {
	t.Helper()
	w, err := watcher.New([]string{path})
	if err != nil {
		t.Fatal(err)
	}

	tail := New(w, ckpt, Options{Tokenizer: tokenizer.DefaultOptions(), OnStats: onStats})

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	go tail.Start(ctx)
	return tail, cancel
}

func TestTailNewRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datos.csv")
	if err := os.WriteFile(path, []byte(header+record("uno")), 0644); err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(path)

	ckpt, err := NewCheckpoint(filepath.Join(dir, ".cleaningdata-state.json"))
	if err != nil {
		t.Fatal(err)
	}

	tail, cancel := startTailer(t, path, ckpt, nil)

	// Existing content is read first.
	raw := next(t, tail.Records())
	if raw.Record.Title != "uno" {
		t.Errorf("expected 'uno', got %q", raw.Record.Title)
	}
	if raw.Source != abs {
		t.Errorf("expected source %q, got %q", abs, raw.Source)
	}

	// Append a record in two writes; nothing is emitted until it completes.
	second := record("dos")
	appendTo(t, path, second[:20])
	time.Sleep(300 * time.Millisecond)
	select {
	case raw := <-tail.Records():
		t.Fatalf("unexpected record before terminator: %+v", raw.Record)
	default:
	}
	appendTo(t, path, second[20:])

	raw = next(t, tail.Records())
	if raw.Record.Title != "dos" {
		t.Errorf("expected 'dos', got %q", raw.Record.Title)
	}
	if raw.Record.CustomResponse != "Ok" {
		t.Errorf("expected custom response 'Ok', got %q", raw.Record.CustomResponse)
	}

	// Offset stops right after the terminator, before the trailing newline.
	want := int64(len(header) + len(record("uno")) + len(second) - 1)
	time.Sleep(100 * time.Millisecond)
	if got, _ := ckpt.Get(abs); got != want {
		t.Errorf("expected offset %d, got %d", want, got)
	}

	// Cancel and allow goroutines to stop before TempDir cleanup.
	cancel()
	time.Sleep(200 * time.Millisecond)
}

func TestTailResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datos.csv")
	if err := os.WriteFile(path, []byte(header+record("uno")+record("dos")), 0644); err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(path)

	ckpt, err := NewCheckpoint(filepath.Join(dir, "ckpt.json"))
	if err != nil {
		t.Fatal(err)
	}
	// Pretend the first record was already processed.
	ckpt.Set(abs, int64(len(header)+len(record("uno"))-1))

	stats := make(chan tokenizer.Stats, 4)
	tail, cancel := startTailer(t, path, ckpt, func(_ string, s tokenizer.Stats) { stats <- s })

	raw := next(t, tail.Records())
	if raw.Record.Title != "dos" {
		t.Errorf("expected 'dos', got %q", raw.Record.Title)
	}

	select {
	case s := <-stats:
		if s.Emitted != 1 || s.Openings != 1 {
			t.Errorf("expected 1 emitted and 1 opening, got %+v", s)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stats")
	}

	cancel()
	time.Sleep(200 * time.Millisecond)
}

func TestCancelKeepsOffsetOfDeliveredRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datos.csv")
	content := header + record("uno") + record("dos") + record("tres") + record("cuatro")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(path)

	ckpt, err := NewCheckpoint(filepath.Join(dir, "ckpt.json"))
	if err != nil {
		t.Fatal(err)
	}
	w, err := watcher.New([]string{path})
	if err != nil {
		t.Fatal(err)
	}
	stats := make(chan tokenizer.Stats, 1)
	tail := New(w, ckpt, Options{
		Tokenizer: tokenizer.DefaultOptions(),
		OnStats:   func(_ string, s tokenizer.Stats) { stats <- s },
	})
	// Unbuffered, so every send waits for the reader below.
	tail.out = make(chan model.RawRecord)
	tail.openFile(abs)
	defer tail.closeAll()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tail.readNew(ctx, abs)
		close(done)
	}()

	for _, want := range []string{"uno", "dos"} {
		if raw := next(t, tail.out); raw.Record.Title != want {
			t.Errorf("expected %q, got %q", want, raw.Record.Title)
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("read did not stop after cancel")
	}

	want := int64(len(header) + 2*len(record("uno")) - 1)
	if got, _ := ckpt.Get(abs); got != want {
		t.Errorf("expected offset %d after two delivered records, got %d", want, got)
	}
	if s := <-stats; s.Emitted != 2 {
		t.Errorf("expected 2 emitted, got %+v", s)
	}

	// A restart resumes with the first record that was not delivered.
	resumed, cancelResumed := startTailer(t, path, ckpt, nil)
	defer cancelResumed()
	if raw := next(t, resumed.Records()); raw.Record.Title != "tres" {
		t.Errorf("expected 'tres' after resume, got %q", raw.Record.Title)
	}
	time.Sleep(100 * time.Millisecond)
}

func TestCheckpointSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ckpt.json")

	// Create and save checkpoint.
	c1, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	c1.Set("/data/datos.csv", 42)
	c1.Set("/data/agosto.csv", 1024)
	c1.Set("/data/viejo.csv", 7)
	c1.Delete("/data/viejo.csv")
	if err := c1.Save(); err != nil {
		t.Fatal(err)
	}

	// Load checkpoint in a new instance.
	c2, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}

	v1, ok := c2.Get("/data/datos.csv")
	if !ok || v1 != 42 {
		t.Errorf("expected 42, got %d (found=%v)", v1, ok)
	}

	v2, ok := c2.Get("/data/agosto.csv")
	if !ok || v2 != 1024 {
		t.Errorf("expected 1024, got %d (found=%v)", v2, ok)
	}

	if _, ok := c2.Get("/data/viejo.csv"); ok {
		t.Error("expected deleted key to return false")
	}
	if c2.Len() != 2 {
		t.Errorf("expected 2 offsets, got %d", c2.Len())
	}
}

func TestCheckpointCorruptStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty checkpoint, got %d entries", c.Len())
	}
}
