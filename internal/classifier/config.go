package classifier

import "time"

type VotingType string

const (
	VotingTypeNoSel  VotingType = "NO_SEL"
	VotingTypeKnoraE VotingType = "KNORAE"
	VotingTypeKnoraU VotingType = "KNORAU"
)

type Config struct {
	EnsembleSize int           `envconfig:"DCS_ENSEMBLE_SIZE" default:"10"`
	ChunkSize    int           `envconfig:"DCS_CHUNK_SIZE" default:"1000"`
	Workers      int           `envconfig:"DCS_WORKERS" default:"1"`
	Bagging      bool          `envconfig:"DCS_BAGGING" default:"true"`
	InitEnsemble bool          `envconfig:"DCS_INIT_ENSEMBLE" default:"false"`
	Voting       VotingType    `envconfig:"DCS_VOTING" default:"NO_SEL"`
	Seed         uint32        `envconfig:"DCS_SEED" default:"1"`
	TrainTimeout time.Duration `envconfig:"DCS_TRAIN_TIMEOUT" default:"60m"`
}

// Options maps the environment configuration onto constructor options.
func (c Config) Options() []Option {
	return []Option{
		WithEnsembleSize(c.EnsembleSize),
		WithChunkSize(c.ChunkSize),
		WithWorkers(c.Workers),
		WithBagging(c.Bagging),
		WithInitEnsemble(c.InitEnsemble),
		WithVoting(c.Voting),
		WithSeed(c.Seed),
		WithTrainTimeout(c.TrainTimeout),
	}
}
