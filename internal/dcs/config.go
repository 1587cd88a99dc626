package dcs

import (
	"github.com/go-dcs/dcs/internal/alert"
	"github.com/go-dcs/dcs/internal/classifier"
	"github.com/go-dcs/dcs/internal/collect"
	"github.com/go-dcs/dcs/internal/database"
	"github.com/go-dcs/dcs/internal/dispatcher"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/internal/predict"
	"github.com/go-dcs/dcs/internal/scrape"
	"github.com/go-dcs/dcs/internal/setup"
	"github.com/go-dcs/dcs/internal/spatial"
)

var (
	_ setup.ClassifierConfigProvider = (*Config)(nil)
	_ setup.DatabaseConfigProvider   = (*Config)(nil)
	_ setup.NotifierConfigProvider   = (*Config)(nil)
	_ setup.ScrapeConfigProvider     = (*Config)(nil)
	_ setup.DispatcherConfigProvider = (*Config)(nil)
	_ setup.SvcModeConfigProvider    = (*Config)(nil)
)

const (
	SvcModeTypeCollect = "COLLECT"
	SvcModeTypeScrape  = "SCRAPE"
)

type Config struct {
	SvcModeType string `envconfig:"DCS_SVC_MODE" default:"COLLECT"`
	SrvAddr     string `envconfig:"DCS_ADDR" default:":8787"`
	Dispatcher  dispatcher.Config
	Collect     collect.Config
	Predict     predict.Config
	Database    database.Config
	Scrape      scrape.Config
	Classifier  classifier.Config
	Learner     learner.Config
	Spatial     spatial.Config
	Alert       alert.Config
}

func (c Config) SvcMode() string {
	return c.SvcModeType
}

func (c Config) DispatcherConfig() *dispatcher.Config {
	return &c.Dispatcher
}

func (c Config) NotifyConfig() *alert.Config {
	return &c.Alert
}

func (c Config) ScrapeConfig() *scrape.Config {
	return &c.Scrape
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) ClassifierConfig() *classifier.Config {
	return &c.Classifier
}

func (c Config) LearnerConfig() *learner.Config {
	return &c.Learner
}

func (c Config) SpatialConfig() *spatial.Config {
	return &c.Spatial
}
