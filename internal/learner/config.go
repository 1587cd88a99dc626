package learner

type AlgType string

const (
	AlgTypeBayes AlgType = "BAYES"
)

type Config struct {
	Type AlgType `envconfig:"DCS_LEARNER_TYPE" default:"BAYES"`
}

func (c Config) LearnerType() AlgType {
	return c.Type
}
