package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-dcs/dcs/internal/logging"
	"github.com/go-dcs/dcs/internal/sample/model"
)

func newDBTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

type dbTxExecutorOptions struct {
	dbFlushSize int
	dbFlushTime time.Duration
}

// dbTxExecutor accumulates a buffer of samples and inserts it in bulk into
// persistent storage.
type dbTxExecutor struct {
	mtx sync.RWMutex

	opts dbTxExecutorOptions
	// Buffer that accumulates sample data for appending
	buf        []model.Sample
	shutdownCh chan<- error
}

// shutdown urgently inserts all data from the buffer into persistent storage.
func (tx *dbTxExecutor) shutdown(fn appendSamplesFn) error {
	tx.mtx.Lock()
	defer tx.mtx.Unlock()
	if err := fn(context.Background(), tx.buf); err != nil {
		return fmt.Errorf("txExecutor: append many operation failed: %v", err)
	}
	tx.buf = tx.buf[:0]
	return nil
}

// append adds data to the buffer. A full buffer is flushed in the background.
func (tx *dbTxExecutor) append(ctx context.Context, data model.Sample, fn appendSamplesFn) {
	tx.mtx.Lock()
	if tx.buf == nil {
		tx.buf = []model.Sample{}
	}

	tx.buf = append(tx.buf, data)
	bufLen := len(tx.buf)
	tx.mtx.Unlock()

	if bufLen >= tx.opts.dbFlushSize {
		go tx.bulkAppend(ctx, fn)
	}
}

// bulkAppend writes the buffered samples to persistent storage and clears the
// buffer.
func (tx *dbTxExecutor) bulkAppend(ctx context.Context, fn appendSamplesFn) {
	logger := logging.FromContext(ctx)

	tx.mtx.Lock()
	tmpBuf := make([]model.Sample, len(tx.buf))
	copy(tmpBuf, tx.buf)
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()
	if err := fn(context.Background(), tmpBuf); err != nil {
		logger.Errorf("txExecutor: append many operation failed: %v", err)
	}
}

// flusher periodically flushes the buffer into the database.
func (tx *dbTxExecutor) flusher(ctx context.Context, fn appendSamplesFn) {
	defer func() {
		tx.shutdownCh <- tx.shutdown(fn)
	}()
	ticker := time.NewTicker(tx.opts.dbFlushTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.bulkAppend(ctx, fn)
		case <-ctx.Done():
			return
		}
	}
}
