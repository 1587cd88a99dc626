package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-dcs/dcs/internal/logging"
	"github.com/go-dcs/dcs/internal/sample/model"
)

type dbSchedulerConfig struct {
	maxItemsStored int
	maxStorageTime time.Duration
	rebuildDBTime  time.Duration
}

func newDBScheduler(config dbSchedulerConfig) *dbScheduler {
	return &dbScheduler{opts: config}
}

// dbScheduler deletes old samples from the DB. Depending on the configuration
// it caps the number of stored samples per stream or their retention time.
type dbScheduler struct {
	opts dbSchedulerConfig
}

// processOutdatedSamples retrieves the processed samples of the stream that
// outlived the retention period and deletes them in bulk.
func (s *dbScheduler) processOutdatedSamples(
	streamID string,
	fetchFn fetchSamplesByStreamFn,
	deleteFn deleteSamplesFn,
) error {
	samples, err := fetchFn(streamID, func(sample model.Sample) bool {
		return sample.Status == model.StatusProcessed && time.Since(sample.CreatedAt) > s.opts.maxStorageTime
	})

	if err != nil {
		return fmt.Errorf("unable find samples by stream %s: %v", streamID, err)
	}

	if err := deleteFn(context.Background(), samples); err != nil {
		return fmt.Errorf("unable delete outdated samples of stream %s: %v", streamID, err)
	}
	return nil
}

// processOverSizeSamples retrieves the processed samples of the stream, sorts
// them by creation date and deletes the oldest surplus.
func (s *dbScheduler) processOverSizeSamples(
	streamID string,
	fetchFn fetchSamplesByStreamFn,
	deleteFn deleteSamplesFn,
) error {
	samples, err := fetchFn(streamID, func(sample model.Sample) bool {
		return sample.Status == model.StatusProcessed
	})

	if err != nil {
		return fmt.Errorf("unable find samples by stream %s: %v", streamID, err)
	}

	if len(samples) <= s.opts.maxItemsStored {
		return nil
	}

	// This can be a costly operation for large streams.
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].CreatedAt.UnixNano() < samples[j].CreatedAt.UnixNano()
	})

	if err := deleteFn(context.Background(), samples[:len(samples)-s.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete oversize samples of stream %s: %v", streamID, err)
	}
	return nil
}

// rebuildOutdated checks every stream for samples past the retention period.
func (s *dbScheduler) rebuildOutdated(
	keysFn fetchKeysFn,
	fetchFn fetchSamplesByStreamFn,
	deleteFn deleteSamplesFn,
) error {
	keys, err := keysFn()
	if err != nil {
		return fmt.Errorf("unable to fetch sample keys: %v", err)
	}
	for i := range keys {
		if err := s.processOutdatedSamples(keys[i], fetchFn, deleteFn); err != nil {
			return fmt.Errorf("unable process samples: %v", err)
		}
	}
	return nil
}

// rebuildSize checks every stream for exceeding the per-stream sample cap.
func (s *dbScheduler) rebuildSize(
	keysFn fetchKeysFn,
	countFn countByStreamFn,
	fetchFn fetchSamplesByStreamFn,
	deleteFn deleteSamplesFn,
) error {
	keys, err := keysFn()
	if err != nil {
		return fmt.Errorf("unable fetch keys: %v", err)
	}
	for i := range keys {
		length, err := countFn(keys[i])
		if err != nil {
			return fmt.Errorf("unable count by stream %s: %v", keys[i], err)
		}
		if length > s.opts.maxItemsStored {
			if err := s.processOverSizeSamples(keys[i], fetchFn, deleteFn); err != nil {
				return fmt.Errorf("unable process samples: %v", err)
			}
		}
	}

	return nil
}

// schedule runs the data cleanup passes on a timer.
func (s *dbScheduler) schedule(
	ctx context.Context,
	keysFn fetchKeysFn,
	countFn countByStreamFn,
	fetchFn fetchSamplesByStreamFn,
	deleteFn deleteSamplesFn,
) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(s.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxItemsStored > 0 {
				if err := s.rebuildSize(keysFn, countFn, fetchFn, deleteFn); err != nil {
					logger.Errorf("unable db rebuild size: %v", err)
				}
			}
			if s.opts.maxStorageTime > 0 {
				if err := s.rebuildOutdated(keysFn, fetchFn, deleteFn); err != nil {
					logger.Errorf("unable db rebuild outdated: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
