package spatial

type Config struct {
	Alg    AlgType    `envconfig:"DCS_SPATIAL_ALG" default:"KD"`
	Metric MetricType `envconfig:"DCS_SPATIAL_METRIC" default:"EUCLIDEAN"`
}

func (c Config) SpatialAlg() AlgType {
	return c.Alg
}

func (c Config) SpatialMetric() MetricType {
	return c.Metric
}
