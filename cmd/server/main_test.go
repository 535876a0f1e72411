package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) FetchLatest(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return 0, nil
}

// TestRunBackground_WaitBlocksUntilTasksReturn は Wait がキャンセル後のタスク終了まで待つことを検証します。
func TestRunBackground_WaitBlocksUntilTasksReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var finished atomic.Int32
	slowTask := func(ctx context.Context) {
		<-ctx.Done()
		// 実行中のトランザクションを模して終了を遅らせる
		time.Sleep(50 * time.Millisecond)
		finished.Add(1)
	}

	wg := runBackground(ctx, slowTask, slowTask)
	cancel()
	wg.Wait()

	assert.Equal(t, int32(2), finished.Load())
}

func TestScheduleScrape_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &countingFetcher{}

	wg := runBackground(ctx, func(ctx context.Context) { scheduleScrape(ctx, f, 10*time.Millisecond) })

	assert.Eventually(t, func() bool { return f.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled scrape did not stop after cancel")
	}
}
