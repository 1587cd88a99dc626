package model

import (
	"time"

	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/google/uuid"
)

type Status uint8

const (
	StatusNew Status = iota
	StatusProcessed
)

// NoLabel marks a sample that arrived without a class label.
const NoLabel = -1

func NewSample(streamID string, vec geom.Point, label int, createdAt time.Time, extra interface{}) Sample {
	return Sample{
		ID:           uuid.New(),
		StreamID:     streamID,
		Vec:          vec,
		ClassLabel:   label,
		SampleWeight: 1,
		Predicted:    NoLabel,
		Status:       StatusNew,
		CreatedAt:    createdAt,
		Extra:        extra,
	}
}

var _ learner.Example = (*Sample)(nil)

type Sample struct {
	ID           uuid.UUID   `json:"id"`
	StreamID     string      `json:"streamId"`
	Vec          geom.Point  `json:"vector"`
	ClassLabel   int         `json:"label"`
	SampleWeight float64     `json:"weight"`
	Predicted    int         `json:"predicted"`
	Status       Status      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	Extra        interface{} `json:"extra"`
}

func (s Sample) IsProcessed() bool {
	return s.Status == StatusProcessed
}

func (s Sample) IsNew() bool {
	return s.Status == StatusNew
}

func (s Sample) IsLabeled() bool {
	return s.ClassLabel >= 0
}

func (s Sample) Vector() learner.Vector {
	return s.Vec
}

func (s Sample) Label() int {
	return s.ClassLabel
}

func (s Sample) Weight() float64 {
	if s.SampleWeight <= 0 {
		return 1
	}
	return s.SampleWeight
}
