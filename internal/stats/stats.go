package stats

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var KeyStream = tag.MustNewKey("stream")

var (
	MSamplesCollected = stats.Int64("dcs/samples_collected", "Samples accepted for training", stats.UnitDimensionless)
	MChunksCompleted  = stats.Int64("dcs/chunks_completed", "Chunk retraining passes completed", stats.UnitDimensionless)
	MMembersEvicted   = stats.Int64("dcs/members_evicted", "Ensemble members evicted", stats.UnitDimensionless)
	MPredictions      = stats.Int64("dcs/predictions_served", "Vote queries served", stats.UnitDimensionless)
	MAlertsSent       = stats.Int64("dcs/alerts_sent", "Misclassification alert batches delivered", stats.UnitDimensionless)
)

func Views() []*view.View {
	return []*view.View{
		{
			Name:        "dcs/samples_collected",
			Measure:     MSamplesCollected,
			Description: MSamplesCollected.Description(),
			TagKeys:     []tag.Key{KeyStream},
			Aggregation: view.Count(),
		},
		{
			Name:        "dcs/chunks_completed",
			Measure:     MChunksCompleted,
			Description: MChunksCompleted.Description(),
			Aggregation: view.Count(),
		},
		{
			Name:        "dcs/members_evicted",
			Measure:     MMembersEvicted,
			Description: MMembersEvicted.Description(),
			Aggregation: view.Count(),
		},
		{
			Name:        "dcs/predictions_served",
			Measure:     MPredictions,
			Description: MPredictions.Description(),
			TagKeys:     []tag.Key{KeyStream},
			Aggregation: view.Count(),
		},
		{
			Name:        "dcs/alerts_sent",
			Measure:     MAlertsSent,
			Description: MAlertsSent.Description(),
			Aggregation: view.Count(),
		},
	}
}

func Register() error {
	return view.Register(Views()...)
}
