package apilog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerDrainsRecordedEntries(t *testing.T) {
	store := NewMemoryStore()
	recorder := NewRecorder(store, 8, nil)
	worker := NewWorker(recorder, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		recorder.Record(ctx, Entry{
			ID:        uuid.New(),
			DriverID:  "drv-1",
			Provider:  "nin-registry-mock",
			Outcome:   "matched",
			CreatedAt: time.Now(),
		})
	}

	assert.Eventually(t, func() bool {
		entries, err := store.ListByDriver(context.Background(), "drv-1")
		return err == nil && len(entries) == 5
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRecorderFallsBackToSynchronousAppendWhenFull(t *testing.T) {
	store := NewMemoryStore()
	recorder := NewRecorder(store, 1, nil)
	// No worker running: first entry fills the inbox, the second must be
	// appended synchronously rather than dropped.
	recorder.Record(context.Background(), Entry{ID: uuid.New(), DriverID: "drv-2"})
	recorder.Record(context.Background(), Entry{ID: uuid.New(), DriverID: "drv-2"})

	entries, err := store.ListByDriver(context.Background(), "drv-2")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Draining the inbox recovers the buffered entry too.
	worker := NewWorker(recorder, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = worker.Run(ctx)

	entries, err = store.ListByDriver(context.Background(), "drv-2")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
