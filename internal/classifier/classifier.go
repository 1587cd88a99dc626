package classifier

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-dcs/dcs/internal/ensemble"
	"github.com/go-dcs/dcs/internal/evaluation"
	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/internal/logging"
	"github.com/go-dcs/dcs/internal/spatial"
	mstats "github.com/go-dcs/dcs/internal/stats"
	"github.com/valyala/fastrand"
	"go.opencensus.io/stats"
)

// ProvideFn is the factory contract for a ready-to-train classifier instance.
type ProvideFn func() (Classifier, error)

// Classifier is an online chunk-trained model. Callers must serialize Train
// and Votes; the implementations hold no internal locks.
type Classifier interface {
	Train(ctx context.Context, ex learner.Example) error
	Votes(ctx context.Context, ex learner.Example) (geom.Point, error)
	Len() int
	Models() []learner.Classifier
	Measurements() []evaluation.Measurement
}

// Prediction is a combined vote vector together with its winning class index.
// Class is -1 when the vector carries no votes.
type Prediction struct {
	Votes geom.Point `json:"votes"`
	Class int        `json:"class"`
}

type Option func(*DCS)

func WithEnsembleSize(size int) Option {
	return func(d *DCS) {
		d.ensembleSize = size
	}
}

func WithChunkSize(size int) Option {
	return func(d *DCS) {
		d.chunkSize = size
	}
}

func WithWorkers(workers int) Option {
	return func(d *DCS) {
		d.workers = workers
	}
}

func WithBagging(bagging bool) Option {
	return func(d *DCS) {
		d.bagging = bagging
	}
}

func WithInitEnsemble(init bool) Option {
	return func(d *DCS) {
		d.initEnsemble = init
	}
}

func WithVoting(voting VotingType) Option {
	return func(d *DCS) {
		d.voting = voting
	}
}

func WithSeed(seed uint32) Option {
	return func(d *DCS) {
		d.seed = seed
	}
}

func WithTrainTimeout(timeout time.Duration) Option {
	return func(d *DCS) {
		d.trainTimeout = timeout
	}
}

// WithSearcher installs the factory used to rebuild the neighbor index on
// every chunk completion. Without it the dynamic strategies degrade to
// majority voting.
func WithSearcher(fn spatial.ProvideFn) Option {
	return func(d *DCS) {
		d.searcherFn = fn
	}
}

var _ Classifier = (*DCS)(nil)

// DCS is a dynamic classifier selection ensemble. Examples accumulate into
// fixed-size chunks; each completed chunk spawns a fresh ensemble member,
// evicts the worst one at capacity and retrains every survivor over the chunk.
type DCS struct {
	learnerFn  learner.ProvideFn
	searcherFn spatial.ProvideFn

	ensembleSize int
	chunkSize    int
	workers      int
	bagging      bool
	initEnsemble bool
	voting       VotingType
	seed         uint32
	trainTimeout time.Duration

	poissonFn func(rng *fastrand.RNG) int

	members  *ensemble.Ensemble
	searcher spatial.Index
	buf      []learner.Example
	chunkSeq uint32
}

func New(learnerFn learner.ProvideFn, opts ...Option) (*DCS, error) {
	d := &DCS{
		learnerFn:    learnerFn,
		ensembleSize: 10,
		chunkSize:    1000,
		workers:      1,
		bagging:      true,
		voting:       VotingTypeNoSel,
		seed:         1,
		trainTimeout: 60 * time.Minute,
		poissonFn:    poisson,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", d.chunkSize)
	}
	if d.workers < 1 {
		return nil, fmt.Errorf("worker pool size must be at least 1, got %d", d.workers)
	}
	members, err := ensemble.New(d.ensembleSize)
	if err != nil {
		return nil, err
	}
	d.members = members
	if d.initEnsemble {
		for i := 0; i < d.ensembleSize; i++ {
			m, err := d.newMember()
			if err != nil {
				return nil, fmt.Errorf("unable to initiate ensemble: %w", err)
			}
			d.members.Add(m)
		}
	}
	return d, nil
}

// Train buffers ex until the chunk is full. The example that arrives at a
// full buffer only triggers the chunk pass and is itself discarded.
func (d *DCS) Train(ctx context.Context, ex learner.Example) error {
	if len(d.buf) < d.chunkSize {
		d.buf = append(d.buf, ex)
		return nil
	}
	return d.completeChunk(ctx)
}

func (d *DCS) Len() int {
	return d.members.Len()
}

func (d *DCS) Models() []learner.Classifier {
	return d.members.Models()
}

func (d *DCS) Measurements() []evaluation.Measurement {
	return d.members.Measurements()
}

func (d *DCS) completeChunk(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	chunk := d.buf
	d.buf = nil
	d.chunkSeq++

	d.searcher = nil
	if d.searcherFn != nil {
		idx, err := d.searcherFn()
		if err == nil {
			err = idx.Build(chunk...)
		}
		if err != nil {
			logger.Warnf("unable to index chunk %d: %v", d.chunkSeq, err)
		} else {
			d.searcher = idx
		}
	}

	m, err := d.newMember()
	if err != nil {
		logger.Errorf("unable to create ensemble member: %v", err)
	} else if d.members.Add(m) {
		stats.Record(ctx, mstats.MMembersEvicted.M(1))
	}

	if err := d.trainChunk(ctx, chunk); err != nil {
		return err
	}
	stats.Record(ctx, mstats.MChunksCompleted.M(1))
	return nil
}

func (d *DCS) newMember() (ensemble.Member, error) {
	model, err := d.learnerFn()
	if err != nil {
		return ensemble.Member{}, err
	}
	return ensemble.Member{Model: model, Eval: evaluation.NewBasic()}, nil
}

// trainChunk runs every member over the chunk in a bounded worker pool and
// waits for the pool behind a timeout barrier. Hitting the barrier cancels
// the stragglers but is not an error.
func (d *DCS) trainChunk(ctx context.Context, chunk []learner.Example) error {
	trainCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	rate := make(chan struct{}, d.workers)
	members := d.members.Members()
	for i := range members {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			rate <- struct{}{}
			d.trainMember(trainCtx, members[i], i, chunk)
			<-rate
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(d.trainTimeout):
		cancel()
		<-done
		logging.FromContext(ctx).Warnf("chunk %d training barrier expired after %s", d.chunkSeq, d.trainTimeout)
		return nil
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

func (d *DCS) trainMember(ctx context.Context, m ensemble.Member, memberIdx int, chunk []learner.Example) {
	var rng fastrand.RNG
	rng.Seed(d.seed + d.chunkSeq*2654435761 + uint32(memberIdx)*40503)
	for _, ex := range chunk {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !d.bagging {
			m.Model.Train(ex)
			continue
		}
		k := d.poissonFn(&rng)
		if k == 0 {
			continue
		}
		m.Model.Train(weightedExample{Example: ex, weight: float64(k) * ex.Weight()})
	}
}

type weightedExample struct {
	learner.Example
	weight float64
}

func (w weightedExample) Weight() float64 {
	return w.weight
}

// poisson draws from Poisson(1) by Knuth's product method.
func poisson(rng *fastrand.RNG) int {
	limit := math.Exp(-1)
	k := 0
	p := 1.0
	for {
		p *= (float64(rng.Uint32()) + 0.5) / (1 << 32)
		if p <= limit {
			return k
		}
		k++
	}
}
