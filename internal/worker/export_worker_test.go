package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"retireplan/internal/amqp"
	"retireplan/internal/core"
	"retireplan/internal/sheets/memory"
)

type fakeSummarizer struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSummarizer) Summary(context.Context) ([]core.YearSummary, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return core.Summarize(core.DefaultProjectionConfig(), nil, nil), nil
}

func TestDefaultConfig(t *testing.T) {
	if got := DefaultConfig().Interval; got != time.Hour {
		t.Errorf("expected Interval 1h, got %v", got)
	}
	w := NewExportWorker(&fakeSummarizer{}, memory.New(nil), Config{})
	if w.config.Interval != time.Hour {
		t.Errorf("zero interval should fall back to default, got %v", w.config.Interval)
	}
}

func TestExportWorker_HandleSyncMessage(t *testing.T) {
	sheet := memory.New(nil)
	w := NewExportWorker(&fakeSummarizer{}, sheet, DefaultConfig())

	msg := amqp.NewSummarySyncMessage(amqp.EntityTransaction, 1, 2026)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	summary, n := sheet.Exported()
	if n != 1 || len(summary) != 1 || summary[0].Total != 27000 {
		t.Fatalf("unexpected export: %v (%d)", summary, n)
	}
	stats := w.Stats()
	if stats.Exports != 1 || stats.Failures != 0 || stats.LastExport.IsZero() {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestExportWorker_FailedSyncIsAcknowledged(t *testing.T) {
	sheet := memory.New(nil)
	sum := &fakeSummarizer{err: errors.New("sheets unavailable")}
	w := NewExportWorker(sum, sheet, DefaultConfig())

	msg := amqp.NewSummarySyncMessage(amqp.EntityPlan, 2, 2030)
	for i := 0; i < 2; i++ {
		if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
			t.Fatalf("failed export must not redeliver the message: %v", err)
		}
	}
	if _, n := sheet.Exported(); n != 0 {
		t.Errorf("nothing should be exported, got %d", n)
	}
	stats := w.Stats()
	if stats.Failures != 2 || stats.LastError == "" {
		t.Errorf("unexpected stats %+v", stats)
	}
	if err := w.Export(context.Background()); err == nil {
		t.Error("Export itself should still report the failure")
	}
}

func TestExportWorker_CancelledContextClearsRunning(t *testing.T) {
	w := NewExportWorker(&fakeSummarizer{}, memory.New(nil), Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for w.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if w.IsRunning() {
		t.Fatal("worker still reports running after its context was cancelled")
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	if err := w.Start(ctx2); err != nil {
		t.Fatalf("restart after cancellation: %v", err)
	}
	if !w.IsRunning() {
		t.Error("restarted worker should be running")
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestExportWorker_StartStop(t *testing.T) {
	sheet := memory.New(nil)
	sum := &fakeSummarizer{}
	w := NewExportWorker(sum, sheet, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if w.IsRunning() {
		t.Fatal("worker should not be running initially")
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Error("expected error when starting a running worker")
	}

	deadline := time.Now().Add(2 * time.Second)
	for sum.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sum.calls.Load() < 3 {
		t.Fatalf("expected periodic exports, got %d", sum.calls.Load())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Error("worker should not be running after Stop")
	}
}

func TestExportWorker_StopNotRunning(t *testing.T) {
	w := NewExportWorker(&fakeSummarizer{}, memory.New(nil), DefaultConfig())
	if err := w.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}
