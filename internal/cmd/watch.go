package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AndresProano/CleaningDataIt/internal/aggregator"
	"github.com/AndresProano/CleaningDataIt/internal/config"
	"github.com/AndresProano/CleaningDataIt/internal/enrich"
	"github.com/AndresProano/CleaningDataIt/internal/extract"
	"github.com/AndresProano/CleaningDataIt/internal/hub"
	"github.com/AndresProano/CleaningDataIt/internal/server"
	"github.com/AndresProano/CleaningDataIt/internal/tailer"
	"github.com/AndresProano/CleaningDataIt/internal/tokenizer"
	"github.com/AndresProano/CleaningDataIt/internal/watcher"
)

const flushInterval = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Extract exports, then follow them for appended records",
	Long: `Watch one or more exports (or glob patterns). Every file is extracted in
full on the first run; afterwards only records appended since the last
checkpoint are tokenized and added to the CSV output. A record still being
written is picked up once its terminator arrives.

Examples:
  cleaningdata watch
  cleaningdata watch -i "exports/*.csv" --serve --port 7070`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	d := config.Default()
	watchCmd.Flags().Bool("serve", d.Serve, "serve the live dashboard API")
	watchCmd.Flags().String("port", d.Port, "dashboard port")
	watchCmd.Flags().String("checkpoint", d.Checkpoint, "offset checkpoint file")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Workbook != "" {
		return fmt.Errorf("%w: --workbook is only supported for one-shot extraction", config.ErrInvalidConfig)
	}
	opts, err := cfg.TokenizerOptions()
	if err != nil {
		return err
	}

	// --- Set up context with graceful shutdown ---
	ctx, cancel := signalContext("\nCleaningData shutting down gracefully...")
	defer cancel()

	// --- Initialize watcher ---
	w, err := watcher.New(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if w.FileCount() == 0 {
		return fmt.Errorf("%w: %v", extract.ErrNoInput, cfg.Input)
	}

	fmt.Fprintf(os.Stderr, "%s watching %d file(s):\n", styleTitle.Render("CleaningData"), w.FileCount())
	for _, p := range w.Paths() {
		fmt.Fprintf(os.Stderr, "   • %s\n", p)
	}

	// --- Initialize checkpoint ---
	ckpt, err := tailer.NewCheckpoint(cfg.Checkpoint)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	resume := ckpt.Len() > 0
	if resume {
		fmt.Fprintf(os.Stderr, "   resuming from %s\n", cfg.Checkpoint)
	}

	// --- Outputs: append to the CSV only when resuming ---
	sink, err := openSinks(cfg, resume)
	if err != nil {
		return err
	}

	// --- Pipeline: watcher → tailer → hub → sink / aggregator / dashboard ---
	var agg *aggregator.Aggregator
	t := tailer.New(w, ckpt, tailer.Options{
		Tokenizer: opts,
		OnStats:   func(_ string, s tokenizer.Stats) { agg.AddTokenizer(s) },
	})
	h := hub.New(t.Records(), enrich.Default())
	rows := h.SubscribeLossless()
	agg = aggregator.New(h.Subscribe(), aggregator.Sources{
		Dropped:  h.Dropped,
		Files:    w.FileCount,
		Warnings: h.Warnings,
	})

	// A failing component cancels the others; Wait lets the tailer save its
	// final checkpoint before we return.
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Serve {
		srv := server.New(h, agg, cfg.Port)
		dash := h.Subscribe()
		g.Go(func() error { srv.Collect(gctx, dash); return nil })
		g.Go(func() error {
			if err := srv.Start(gctx); err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		})
		fmt.Fprintf(os.Stderr, "   dashboard on http://localhost:%s (stats: /api/stats, metrics: /metrics)\n", cfg.Port)
	}
	fmt.Fprintln(os.Stderr)

	g.Go(func() error { w.Start(gctx); return nil })
	g.Go(func() error { t.Start(gctx); return nil })
	g.Go(func() error { agg.Start(gctx); return nil })
	// The hub outlives cancellation: it stops when the tailer closes its
	// channel, so every checkpointed record still reaches the sink.
	g.Go(func() error { h.Start(context.WithoutCancel(gctx)); return nil })

	// --- Write rows in input order, flushing periodically ---
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var writeErr error
loop:
	for {
		select {
		case row, ok := <-rows:
			if !ok {
				break loop
			}
			if err := sink.Render(row); err != nil {
				writeErr = fmt.Errorf("write output: %w", err)
				cancel()
			}
		case <-ticker.C:
			if err := sink.Flush(); err != nil {
				log.Printf("flush failed: %v", err)
			}
		}
	}

	closeErr := sink.Close()
	cancel()
	waitErr := g.Wait()
	printSummary(os.Stderr, agg.Snapshot(), outputPaths(cfg))
	return errors.Join(writeErr, closeErr, waitErr)
}
