package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-dcs/dcs/internal/dispatcher"
	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/httputil"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/internal/logging"
	"github.com/go-dcs/dcs/internal/sample/model"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 64 * 1024 * 1024

// Query is one unlabeled observation submitted for classification.
type Query struct {
	Vec       geom.Point `json:"vec"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (q Query) Vector() learner.Vector {
	return q.Vec
}

func (q Query) Label() int {
	return model.NoLabel
}

func (q Query) Weight() float64 {
	return 1
}

type request struct {
	StreamID string `json:"stream"`
	Data     []struct {
		Vec       []float64   `json:"vector"`
		Extra     interface{} `json:"extra"`
		CreatedAt time.Time   `json:"createdAt"`
	} `json:"data"`
}

type response struct {
	StreamID string `json:"stream"`
	Data     []struct {
		Class     int         `json:"class"`
		Votes     []float64   `json:"votes"`
		Vec       []float64   `json:"vector"`
		Extra     interface{} `json:"extra"`
		CreatedAt time.Time   `json:"createdAt"`
	} `json:"data"`
}

func NewHandler(cfg *Config, predictor dispatcher.Predictor) (http.Handler, error) {
	return &handler{
		cfg:       cfg,
		predictor: predictor,
	}, nil
}

type handler struct {
	predictor dispatcher.Predictor
	cfg       *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}
	var respData []struct {
		Class     int         `json:"class"`
		Votes     []float64   `json:"votes"`
		Vec       []float64   `json:"vector"`
		Extra     interface{} `json:"extra"`
		CreatedAt time.Time   `json:"createdAt"`
	}
	errGrp := errgroup.Group{}
	mtx := sync.Mutex{}
	for _, dat := range req.Data {
		dat := dat
		errGrp.Go(func() error {
			query := Query{
				Vec:       geom.NewPoint(dat.Vec),
				CreatedAt: dat.CreatedAt,
			}
			result, err := h.predictor.Predict(ctx, req.StreamID, query)
			if err != nil {
				return fmt.Errorf("predict error: %v", err)
			}
			mtx.Lock()
			respData = append(respData, struct {
				Class     int         `json:"class"`
				Votes     []float64   `json:"votes"`
				Vec       []float64   `json:"vector"`
				Extra     interface{} `json:"extra"`
				CreatedAt time.Time   `json:"createdAt"`
			}{Class: result.Class, Votes: result.Votes, Vec: query.Vec, Extra: dat.Extra, CreatedAt: dat.CreatedAt})
			mtx.Unlock()
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "predict processing error, %v"}`, err)
		return
	}
	resp := response{
		StreamID: req.StreamID,
	}
	resp.Data = respData
	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}
