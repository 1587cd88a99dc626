package alert

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	alertDb "github.com/go-dcs/dcs/internal/alert/database"
	"github.com/go-dcs/dcs/internal/alert/model"
	"github.com/go-dcs/dcs/internal/database"
	"github.com/go-dcs/dcs/internal/httputil"
	"github.com/go-dcs/dcs/internal/logging"
	sampleModel "github.com/go-dcs/dcs/internal/sample/model"
	mstats "github.com/go-dcs/dcs/internal/stats"
	"github.com/go-dcs/dcs/pkg/rworker"
	"go.opencensus.io/stats"
)

type ProvideFn = func(chan<- error) (Manager, error)

const UserAgent = "DCS/0.1"

type Options struct {
	maxConcurrentRequest int
	requestTimeout       time.Duration
	alertInterval        time.Duration
	allowAlerts          bool
}

type Option func(*manager)

func WithAllowAlerts(allow bool) Option {
	return func(o *manager) {
		o.opts.allowAlerts = allow
	}
}

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.alertInterval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithTargets(m Targets) Option {
	return func(o *manager) {
		o.targets = m
	}
}

// data is one misclassified sample in the delivery payload.
type data struct {
	Vec       []float64   `json:"vector"`
	Predicted int         `json:"predicted"`
	Actual    int         `json:"actual"`
	CreatedAt time.Time   `json:"createdAt"`
	Extra     interface{} `json:"extra"`
}

type request struct {
	StreamID string `json:"streamId"`
	Data     []data `json:"data"`
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	m := &manager{
		alertDb:    alertDb.New(db),
		shutdownCh: shutdownCh,
		targets:    Targets{},
		clients:    map[string]*http.Client{},
		alerts:     map[string][]sampleModel.Sample{},
	}
	m.opts.allowAlerts = true
	for _, f := range opts {
		f(m)
	}
	for _, target := range m.targets {
		if _, ok := m.clients[target.StreamID]; !ok {
			client, err := httputil.NewClientFromConfig(target.HTTPConfig, true)
			if err != nil {
				return nil, fmt.Errorf("unable create client for stream %s: %v", target.StreamID, err)
			}
			m.clients[target.StreamID] = client
		}
	}
	return m, nil
}

type Notifier interface {
	Notify(samples ...sampleModel.Sample)
}

type Manager interface {
	Notifier
	Run(context.Context) error
	Stop()
}

type manager struct {
	mtx        sync.RWMutex
	opts       Options
	alertDb    *alertDb.DB
	shutdownCh chan<- error
	targets    Targets
	clients    map[string]*http.Client
	alerts     map[string][]sampleModel.Sample
	cancel     func()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.notifier(ctx)
	if err := m.initialize(ctx); err != nil {
		return fmt.Errorf("can not start alert manager: %v", err)
	}
	return nil
}

func (m *manager) Stop() {
	m.cancel()
}

// Notify queues misclassified samples for delivery, grouped by stream.
// It is a no-op when alerting is disabled.
func (m *manager) Notify(samples ...sampleModel.Sample) {
	if !m.opts.allowAlerts {
		return
	}
	m.mtx.Lock()
	for i := range samples {
		if _, ok := m.alerts[samples[i].StreamID]; !ok {
			m.alerts[samples[i].StreamID] = []sampleModel.Sample{}
		}
		m.alerts[samples[i].StreamID] = append(m.alerts[samples[i].StreamID], samples[i])
	}
	m.mtx.Unlock()
}

// initialize re-queues alert batches that were persisted on a previous
// shutdown.
func (m *manager) initialize(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	alerts, err := m.alertDb.FindAll(ctx, nil)
	if err != nil {
		logger.Errorf("Error with fetching data from db, %v", err)
	}
	for i := range alerts {
		m.Notify(alerts[i].Samples...)
		if err := m.alertDb.Delete(context.Background(), alerts[i]); err != nil {
			return fmt.Errorf("unable delete alert on initialize: %v", err)
		}
	}
	return nil
}

func (m *manager) shutdown() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for streamID, samples := range m.alerts {
		if len(samples) == 0 {
			continue
		}
		alert := model.NewAlert(streamID, samples)
		if err := m.alertDb.Store(context.Background(), alert); err != nil {
			return fmt.Errorf("alert shutdown: unable store alert: %v", err)
		}
	}
	return nil
}

type makeRequestFn func() request

func (m *manager) notifier(ctx context.Context) {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	rateCh := make(chan struct{}, m.opts.maxConcurrentRequest)
	defer close(errCh)
	defer close(rateCh)
	go func() {
		for err := range errCh {
			logger.Errorf("alert error: %v", err)
		}
	}()
	defer func() {
		m.shutdownCh <- m.shutdown()
	}()
	wg := sync.WaitGroup{}
	ticker := time.NewTicker(m.opts.alertInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		OuterLoop:
			for _, target := range m.targets {
				target := target
				m.mtx.RLock()
				samples := m.alerts[target.StreamID]
				m.mtx.RUnlock()
				if len(samples) == 0 {
					continue OuterLoop
				}
				rworker.Job(&wg, func() error {
					alertModel := model.NewAlert(target.StreamID, samples)
					if err := m.alertDb.Store(context.Background(), alertModel); err != nil {
						return fmt.Errorf("unable store alert: %v", err)
					}
					if err := m.do(context.Background(), target, func() request {
						missed := make([]data, len(samples))
						for i := range samples {
							missed[i] = data{
								Vec:       samples[i].Vec,
								Predicted: samples[i].Predicted,
								Actual:    samples[i].ClassLabel,
								CreatedAt: samples[i].CreatedAt,
								Extra:     samples[i].Extra,
							}
						}
						return request{
							StreamID: target.StreamID,
							Data:     missed,
						}
					}); err != nil {
						return fmt.Errorf("alert do request error: %v", err)
					}
					if err := m.alertDb.Delete(context.Background(), alertModel); err != nil {
						return fmt.Errorf("unable delete alert: %v", err)
					}
					m.mtx.Lock()
					m.alerts[target.StreamID] = m.alerts[target.StreamID][:0]
					m.mtx.Unlock()
					stats.Record(ctx, mstats.MAlertsSent.M(1))
					return nil
				}, rateCh, errCh)
			}
			wg.Wait()
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) do(ctx context.Context, target Target, fn makeRequestFn) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.requestTimeout)
	defer cancel()
	body, err := json.Marshal(fn())
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	link, err := url.Parse(target.URL)
	if err != nil {
		return fmt.Errorf("url parsing error: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", link.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Accept-Encoding", "gzip")
	client, ok := m.clients[target.StreamID]
	if !ok {
		return fmt.Errorf("client for stream %s not defined", target.StreamID)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request error: %w", err)
	}

	defer resp.Body.Close()

	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("unable create gzip.NewReader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	default:
		reader = resp.Body
	}

	respBody, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("response was not 200 OK: %s", respBody)
	}
	return nil
}
