package model

import (
	"time"

	"github.com/go-dcs/dcs/internal/sample/model"
	"github.com/google/uuid"
)

func NewAlert(streamID string, samples []model.Sample) Alert {
	return Alert{
		ID:        uuid.New(),
		StreamID:  streamID,
		Samples:   samples,
		CreatedAt: time.Now(),
	}
}

// Alert is a batch of misclassified samples pending delivery for one stream.
type Alert struct {
	ID        uuid.UUID      `json:"id"`
	StreamID  string         `json:"streamId"`
	Samples   []model.Sample `json:"samples"`
	CreatedAt time.Time      `json:"createdAt"`
}
