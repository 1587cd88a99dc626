package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-dcs/dcs/internal/alert"
	"github.com/go-dcs/dcs/internal/classifier"
	"github.com/go-dcs/dcs/internal/database"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/internal/logging"
	sampleDb "github.com/go-dcs/dcs/internal/sample/database"
	"github.com/go-dcs/dcs/internal/sample/model"
	mstats "github.com/go-dcs/dcs/internal/stats"
	"github.com/go-dcs/dcs/pkg/iqueue"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

// ProvideFn is the contract for returning the Manager instance.
type ProvideFn func(alert.Manager, chan<- error) (Manager, error)

// Manager is the background service coupling per-stream classifiers with the
// sample feed.
type Manager interface {
	CollectPredictor
	Run(context.Context) error
	Stop()
}

// Collector accepts samples from outside and queues them for processing.
type Collector interface {
	Collect(in ...model.Sample) error
}

// Predictor answers vote queries against the ensemble of one stream.
type Predictor interface {
	Predict(ctx context.Context, streamID string, in learner.Example) (*classifier.Prediction, error)
}

// CollectPredictor aggregates the Collector and Predictor interfaces.
type CollectPredictor interface {
	Collector
	Predictor
}

// Abstractions for pulling storage dependencies.
type (
	fetchSamplesFn         func(context.Context, sampleDb.FilterFn) ([]model.Sample, error)
	fetchSamplesByStreamFn func(string, sampleDb.FilterFn) ([]model.Sample, error)
	deleteSampleFn         func(context.Context, model.Sample) error
	deleteSamplesFn        func(context.Context, []model.Sample) error
	appendSamplesFn        func(context.Context, []model.Sample) error
	fetchKeysFn            func() ([]string, error)
	countByStreamFn        func(string) (int, error)
)

type pullDependencies struct {
	fetchSamples         fetchSamplesFn
	fetchSamplesByStream fetchSamplesByStreamFn
	deleteSample         deleteSampleFn
	deleteSamples        deleteSamplesFn
	appendSamples        appendSamplesFn
	fetchKeys            fetchKeysFn
	countByStream        countByStreamFn
}

type Options struct {
	maxItemsStored int
	maxStorageTime time.Duration
	persistSamples bool
	dbFlushTime    time.Duration
	dbFlushSize    int
	rebuildDBTime  time.Duration
	deps           pullDependencies
}

type Option func(*manager)

func WithDBFlushTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.dbFlushTime = t
	}
}

func WithDBFlushSize(n int) Option {
	return func(o *manager) {
		o.opts.dbFlushSize = n
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.rebuildDBTime = t
	}
}

func WithMaxItemsStored(n int) Option {
	return func(o *manager) {
		o.opts.maxItemsStored = n
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.maxStorageTime = t
	}
}

func WithPersistSamples(t bool) Option {
	return func(o *manager) {
		o.opts.persistSamples = t
	}
}

func New(
	db *database.DB,
	provideClassifierFn classifier.ProvideFn,
	notifier alert.Manager,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if notifier == nil {
		return nil, fmt.Errorf("notifier instance is not created")
	}

	if provideClassifierFn == nil {
		return nil, fmt.Errorf("classifier instance is not created")
	}

	d := &manager{
		sampleDB:            sampleDb.New(db),
		collectCh:           make(chan model.Sample, 1),
		shutDownCh:          shutdownCh,
		classifierProvideFn: provideClassifierFn,
		classifiers:         map[string]*streamClassifier{},
		queue:               map[string]*iqueue.Queue{},
		notifier:            notifier,
	}

	for _, f := range opts {
		f(d)
	}

	d.opts.deps = pullDependencies{
		fetchSamples:         d.sampleDB.FindAll,
		fetchSamplesByStream: d.sampleDB.FindByStream,
		deleteSample:         d.sampleDB.Delete,
		deleteSamples:        d.sampleDB.DeleteMany,
		appendSamples:        d.sampleDB.AppendMany,
		fetchKeys:            d.sampleDB.Keys,
		countByStream:        d.sampleDB.CountByStream,
	}

	d.dbScheduler = newDBScheduler(dbSchedulerConfig{
		maxItemsStored: d.opts.maxItemsStored,
		maxStorageTime: d.opts.maxStorageTime,
		rebuildDBTime:  d.opts.rebuildDBTime,
	})

	d.dbTxExecutor = newDBTxExecutor(
		dbTxExecutorOptions{
			dbFlushTime: d.opts.dbFlushTime,
			dbFlushSize: d.opts.dbFlushSize,
		},
		shutdownCh,
	)

	return d, nil
}

// streamClassifier couples the ensemble of one stream with the mutex that
// serializes training against vote queries.
type streamClassifier struct {
	mtx sync.Mutex
	clf classifier.Classifier
}

// manager routes every stream's samples through its own queue into its own
// chunk-trained ensemble and reports misclassifications to the notifier.
type manager struct {
	mtx sync.RWMutex

	opts Options
	// Main sample storage
	sampleDB *sampleDb.DB
	// The notification manager
	notifier alert.Manager
	// The transaction manager in the store
	dbTxExecutor *dbTxExecutor
	// Managing data retention in storage
	dbScheduler *dbScheduler

	// Queue for new data to be processed
	queue map[string]*iqueue.Queue
	// New data channel for processing
	collectCh chan model.Sample
	// Channel to shutdown the application
	shutDownCh chan<- error

	closed bool
	// The factory returns a fresh ensemble classifier
	classifierProvideFn classifier.ProvideFn
	// Created per-stream classifiers
	classifiers map[string]*streamClassifier

	cancelNotifier func()
	cancel         func()
}

// Run starts the main data collection and training functions.
func (d *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	c, cancel := context.WithCancel(context.Background())
	d.cancelNotifier = cancel

	go d.collector(ctx)
	if d.opts.persistSamples {
		go d.dbTxExecutor.flusher(ctx, d.opts.deps.appendSamples)
		go d.dbScheduler.schedule(
			ctx,
			d.opts.deps.fetchKeys,
			d.opts.deps.countByStream,
			d.opts.deps.fetchSamplesByStream,
			d.opts.deps.deleteSamples,
		)
	}

	// Loading data from storage to memory
	if err := d.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start dispatcher manager: %w", err)
	}
	// Launching the notification service
	if err := d.notifier.Run(c); err != nil {
		return fmt.Errorf("alert.Run: %w", err)
	}

	return nil
}

func (d *manager) Stop() {
	d.cancel()
}

// Predict returns the combined vote vector and winning class for the data of
// one stream.
func (d *manager) Predict(ctx context.Context, streamID string, in learner.Example) (*classifier.Prediction, error) {
	d.mtx.Lock()
	if d.closed {
		d.mtx.Unlock()
		return nil, fmt.Errorf("error to predict, shutting down")
	}
	sc, err := d.classifierLocked(streamID)
	if err != nil {
		d.mtx.Unlock()
		return nil, err
	}
	d.mtx.Unlock()

	sc.mtx.Lock()
	votes, err := sc.clf.Votes(ctx, in)
	sc.mtx.Unlock()
	if err != nil {
		return nil, fmt.Errorf("unable to compute votes: %w", err)
	}
	_ = stats.RecordWithTags(
		ctx,
		[]tag.Mutator{tag.Upsert(mstats.KeyStream, streamID)},
		mstats.MPredictions.M(1),
	)
	return &classifier.Prediction{Votes: votes, Class: votes.MaxIndex()}, nil
}

// Collect adds samples to the processing queue.
func (d *manager) Collect(data ...model.Sample) error {
	d.mtx.RLock()
	if d.closed {
		d.mtx.RUnlock()
		return fmt.Errorf("error send to collect, shutting down")
	}
	for i := range data {
		d.collectCh <- data[i]
	}
	d.mtx.RUnlock()
	return nil
}

// classifierLocked returns the classifier of the stream, creating it from the
// factory on first use. The manager mutex must be held.
func (d *manager) classifierLocked(streamID string) (*streamClassifier, error) {
	sc, ok := d.classifiers[streamID]
	if !ok {
		clf, err := d.classifierProvideFn()
		if err != nil {
			return nil, fmt.Errorf("can not create classifier instance: %w", err)
		}
		sc = &streamClassifier{clf: clf}
		d.classifiers[streamID] = sc
	}
	return sc, nil
}

// bulkLoad replays the persisted samples so every stream's ensemble is
// rebuilt to its pre-shutdown state. Samples that never got processed go back
// to the queue.
func (d *manager) bulkLoad(ctx context.Context) error {
	var newSamples []model.Sample

	data, err := d.opts.deps.fetchSamples(ctx, nil)
	if err != nil {
		return fmt.Errorf("error fetching all samples: %w", err)
	}

	processed := map[string][]model.Sample{}
	for _, dat := range data {
		if dat.IsProcessed() {
			processed[dat.StreamID] = append(processed[dat.StreamID], dat)
		}
		if dat.IsNew() {
			newSamples = append(newSamples, dat)
		}
	}

	for streamID, list := range processed {
		d.mtx.Lock()
		sc, err := d.classifierLocked(streamID)
		d.mtx.Unlock()
		if err != nil {
			return err
		}
		// replay in arrival order so the chunks regroup the same way
		sort.Slice(list, func(i, j int) bool {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
		sc.mtx.Lock()
		for i := range list {
			if err := sc.clf.Train(ctx, list[i]); err != nil {
				sc.mtx.Unlock()
				return fmt.Errorf("unable to replay samples of stream %s: %w", streamID, err)
			}
		}
		sc.mtx.Unlock()
	}
	for i := range newSamples {
		d.collectCh <- newSamples[i]
	}

	return nil
}

// process runs one sample through its stream's ensemble: query first, so the
// member evaluators judge the vote on unseen data, then train.
func (d *manager) process(ctx context.Context, sample model.Sample) error {
	d.mtx.Lock()
	sc, err := d.classifierLocked(sample.StreamID)
	d.mtx.Unlock()
	if err != nil {
		return err
	}

	sc.mtx.Lock()
	votes, votesErr := sc.clf.Votes(ctx, sample)
	if votesErr != nil {
		sc.mtx.Unlock()
		return fmt.Errorf("unable to compute votes: %w", votesErr)
	}
	sample.Predicted = votes.MaxIndex()
	trainErr := sc.clf.Train(ctx, sample)
	sc.mtx.Unlock()
	if trainErr != nil {
		return fmt.Errorf("unable to train: %w", trainErr)
	}

	if sample.IsLabeled() && sample.Predicted >= 0 && sample.Predicted != sample.ClassLabel {
		d.alert(sample)
	}

	sample.Status = model.StatusProcessed
	if d.opts.persistSamples {
		d.dbTxExecutor.append(ctx, sample, d.opts.deps.appendSamples)
	}
	_ = stats.RecordWithTags(
		ctx,
		[]tag.Mutator{tag.Upsert(mstats.KeyStream, sample.StreamID)},
		mstats.MSamplesCollected.M(1),
	)

	return nil
}

func (d *manager) alert(in ...model.Sample) {
	d.mtx.RLock()
	if !d.closed {
		d.mtx.RUnlock()
		d.notifier.Notify(in...)
		return
	}
	d.mtx.RUnlock()
}

// shutdown drains the stream queue so no accepted sample is lost.
func (d *manager) shutdown(ctx context.Context, q *iqueue.Queue) error {
	for {
		front := q.Queue().Front()
		if front == nil {
			if !d.recvShutdown() {
				return fmt.Errorf("dispatcher shutdown: closed num receivers not equal created")
			}
			d.cancelNotifier()
			break
		}

		if err := d.process(ctx, front.Value.(model.Sample)); err != nil {
			return fmt.Errorf("dispatcher shutdown: unable processed data: %w", err)
		}

		q.Queue().Remove(front)
	}
	return nil
}

func (d *manager) recvShutdown() bool {
	finishedNum, streamsNum := 0, len(d.queue)
	for _, q := range d.queue {
		if q.Queue().Len() == 0 {
			finishedNum += 1
		}
	}

	return finishedNum == streamsNum
}

// receive is the single consumer of one stream's queue; one consumer per
// stream keeps training and querying of the ensemble strictly ordered.
func (d *manager) receive(ctx context.Context, q *iqueue.Queue) {
	logger := logging.FromContext(ctx)
	defer func() {
		d.shutDownCh <- d.shutdown(ctx, q)
	}()

	for {
		select {
		case recv := <-q.Receive():
			if err := d.process(ctx, recv.(model.Sample)); err != nil {
				logger.Errorf("unable processed data: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *manager) collector(ctx context.Context) {
	defer close(d.collectCh)
	for {
		select {
		case in := <-d.collectCh:
			q, ok := d.queue[in.StreamID]
			if !ok {
				queue := iqueue.New()
				go queue.Loop()
				go d.receive(ctx, queue)
				d.queue[in.StreamID] = queue
				q = queue
			}
			q.Send(in)
		case <-ctx.Done():
			d.mtx.Lock()
			d.closed = true
			d.mtx.Unlock()
			return
		}
	}
}
