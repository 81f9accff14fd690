package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"retireplan/internal/amqp"
	"retireplan/internal/core"
	applog "retireplan/internal/log"
	"retireplan/internal/sheets"
)

// Summarizer recomputes the year summary from the store.
// services.ProgressService implements it.
type Summarizer interface {
	Summary(ctx context.Context) ([]core.YearSummary, error)
}

type Config struct {
	// Interval between full exports; they cover lost sync messages.
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: time.Hour}
}

type Stats struct {
	Exports    int64
	Failures   int64
	LastExport time.Time
	LastError  string
}

// ExportWorker rewrites the exported summary whenever stored data changes
// and on a fixed interval.
type ExportWorker struct {
	summaries Summarizer
	exporter  sheets.SummaryExporter
	config    Config
	logger    *applog.Logger

	exportMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	stats   Stats
}

func NewExportWorker(summaries Summarizer, exporter sheets.SummaryExporter, config Config) *ExportWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &ExportWorker{
		summaries: summaries,
		exporter:  exporter,
		config:    config,
		logger:    applog.New(applog.Config{Component: applog.ComponentWorker, Handler: slog.Default().Handler()}),
	}
}

// HandleSyncMessage handles one message from the sync queue. Every message
// triggers a full export, so a failed one is acknowledged and left to the
// interval export instead of being redelivered against a failing sheet.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SummarySyncMessage) error {
	w.logger.InfoContext(ctx, "Processing summary sync message",
		"entity", msg.Entity,
		applog.FieldID, msg.ID,
		applog.FieldYear, msg.Year,
		"queued_at", msg.Timestamp)
	if err := w.Export(ctx); err != nil {
		w.logger.WarnContext(ctx, "Sync message dropped, next interval export retries",
			"entity", msg.Entity,
			applog.FieldID, msg.ID,
			"interval", w.config.Interval)
	}
	return nil
}

// Export recomputes the summary and writes it. Concurrent calls are
// serialized so two exports never interleave on the sheet.
func (w *ExportWorker) Export(ctx context.Context) error {
	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	start := time.Now()
	err := w.export(ctx)

	w.mu.Lock()
	if err != nil {
		w.stats.Failures++
		w.stats.LastError = err.Error()
	} else {
		w.stats.Exports++
		w.stats.LastExport = start
		w.stats.LastError = ""
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.ErrorContext(ctx, "Summary export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		return err
	}
	w.logger.DebugContext(ctx, "Summary exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *ExportWorker) export(ctx context.Context) error {
	summary, err := w.summaries.Summary(ctx)
	if err != nil {
		return fmt.Errorf("compute summary: %w", err)
	}
	if err := w.exporter.ExportSummaries(ctx, summary); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	return nil
}

// Start runs the periodic export loop. It returns an error if already
// running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx, w.stopCh, w.doneCh)

	w.logger.InfoContext(ctx, "Export worker started", "interval", w.config.Interval)
	return nil
}

// Stop ends the loop and waits for an export in progress to finish.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Export worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ExportWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *ExportWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		// a cancelled ctx ends the loop without Stop; a newer Start owns the flag
		w.mu.Lock()
		if w.doneCh == doneCh {
			w.running = false
		}
		w.mu.Unlock()
	}()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// full export on startup
	_ = w.Export(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.Export(ctx)
		}
	}
}
