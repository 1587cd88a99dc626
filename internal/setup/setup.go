package setup

import (
	"context"
	"fmt"

	"github.com/go-dcs/dcs/internal/alert"
	"github.com/go-dcs/dcs/internal/classifier"
	"github.com/go-dcs/dcs/internal/database"
	"github.com/go-dcs/dcs/internal/dispatcher"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/internal/learner/bayes"
	"github.com/go-dcs/dcs/internal/logging"
	"github.com/go-dcs/dcs/internal/scrape"
	"github.com/go-dcs/dcs/internal/spatial"
	"github.com/go-dcs/dcs/internal/srvenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	SvcModeScrape  string = "SCRAPE"
	SvcModeCollect string = "COLLECT"
)

type SvcModeConfigProvider interface {
	SvcMode() string
}

type DispatcherConfigProvider interface {
	DispatcherConfig() *dispatcher.Config
}

type NotifierConfigProvider interface {
	NotifyConfig() *alert.Config
}

type ScrapeConfigProvider interface {
	ScrapeConfig() *scrape.Config
}

type ClassifierConfigProvider interface {
	ClassifierConfig() *classifier.Config
	LearnerConfig() *learner.Config
	SpatialConfig() *spatial.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		db                  *database.DB
		classifierProvideFn classifier.ProvideFn
		notifierProvideFn   alert.ProvideFn
		dispatcherProvideFn dispatcher.ProvideFn
		scrapperProvideFn   scrape.ProvideFn
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if notifyConfigProvider, ok := config.(NotifierConfigProvider); ok {
		logger.Info("Configuring notifier")

		provideFn, err := ProvideNotifierFor(notifyConfigProvider, db)
		if err != nil {
			return nil, fmt.Errorf("unable create notifier provide function: %v", err)
		}
		notifierProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithNotifier(notifierProvideFn))
	}

	if clfConfigProvider, ok := config.(ClassifierConfigProvider); ok {
		logger.Info("Configuring classifier")
		provideFn, err := ProvideClassifierFor(clfConfigProvider)
		if err != nil {
			return nil, fmt.Errorf("unable create classifier provide function: %v", err)
		}
		classifierProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithClassifier(classifierProvideFn))
	}

	if dispatcherConfigProvider, ok := config.(DispatcherConfigProvider); ok {
		logger.Info("Configuring dispatcher")
		provideFn, err := ProvideDispatcherFor(dispatcherConfigProvider, classifierProvideFn, db)
		if err != nil {
			return nil, fmt.Errorf("unable create dispatcher provide function: %v", err)
		}
		dispatcherProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDispatcher(dispatcherProvideFn))
	}

	if svcModeConfigProvider, ok := config.(SvcModeConfigProvider); ok && svcModeConfigProvider.SvcMode() == SvcModeScrape {
		if scrapeConfigProvider, ok := config.(ScrapeConfigProvider); ok {
			logger.Info("Configuring scrapper")
			provideFn, err := ProvideScrapperFor(scrapeConfigProvider)
			if err != nil {
				return nil, fmt.Errorf("unable create scrapper provide function: %v", err)
			}
			scrapperProvideFn = provideFn
			serverEnvOpts = append(serverEnvOpts, srvenv.WithScrapper(scrapperProvideFn))
		}
	}
	return srvenv.New(serverEnvOpts...), nil
}

func ProvideScrapperFor(provider ScrapeConfigProvider) (scrape.ProvideFn, error) {
	cfg := provider.ScrapeConfig()
	targets := cfg.Targets
	if cfg.TargetsFile != "" {
		fileTargets, err := scrape.LoadTargetsFile(cfg.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("unable load scrape targets: %w", err)
		}
		targets = append(targets, fileTargets...)
	}
	return func(collector dispatcher.Manager, shutdownCh chan<- error) (scrape.Manager, error) {
		return scrape.New(
			collector,
			shutdownCh,
			scrape.WithInterval(cfg.Interval),
			scrape.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			scrape.WithTargets(targets),
		)
	}, nil
}

func ProvideNotifierFor(provider NotifierConfigProvider, db *database.DB) (alert.ProvideFn, error) {
	cfg := provider.NotifyConfig()
	return func(shutdownCh chan<- error) (alert.Manager, error) {
		return alert.New(
			db,
			shutdownCh,
			alert.WithAllowAlerts(cfg.AllowAlerts),
			alert.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			alert.WithInterval(cfg.Interval),
			alert.WithRequestTimeout(cfg.RequestTimeout),
			alert.WithTargets(cfg.Targets),
		)
	}, nil
}

func ProvideDispatcherFor(
	provider DispatcherConfigProvider,
	provideClassifierFn classifier.ProvideFn,
	db *database.DB,
) (dispatcher.ProvideFn, error) {
	cfg := provider.DispatcherConfig()
	return func(notifier alert.Manager, shutdownCh chan<- error) (dispatcher.Manager, error) {
		return dispatcher.New(
			db,
			provideClassifierFn,
			notifier,
			shutdownCh,
			dispatcher.WithRebuildDBTime(cfg.RebuildDBTime),
			dispatcher.WithMaxItemsStored(cfg.MaxItemsStored),
			dispatcher.WithMaxStorageTime(cfg.MaxStorageTime),
			dispatcher.WithDBFlushSize(cfg.DBFlushSize),
			dispatcher.WithDBFlushTime(cfg.DBFlushTime),
			dispatcher.WithPersistSamples(cfg.PersistSamples),
		)
	}, nil
}

// ProvideClassifierFor assembles the ensemble factory: a base learner from
// the learner configuration and a neighbor index from the spatial one.
func ProvideClassifierFor(provider ClassifierConfigProvider) (classifier.ProvideFn, error) {
	learnerFn, err := provideLearnerFor(provider.LearnerConfig())
	if err != nil {
		return nil, err
	}
	searcherFn, err := provideSearcherFor(provider.SpatialConfig())
	if err != nil {
		return nil, err
	}
	cfg := provider.ClassifierConfig()
	return func() (classifier.Classifier, error) {
		opts := append(cfg.Options(), classifier.WithSearcher(searcherFn))
		clf, err := classifier.New(learnerFn, opts...)
		if err != nil {
			return nil, fmt.Errorf("unable create classifier instance: %v", err)
		}
		return clf, nil
	}, nil
}

func provideLearnerFor(cfg *learner.Config) (learner.ProvideFn, error) {
	switch cfg.LearnerType() {
	case learner.AlgTypeBayes:
		return func() (learner.Classifier, error) {
			return bayes.New(), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown learner type: %s", cfg.LearnerType())
	}
}

func provideSearcherFor(cfg *spatial.Config) (spatial.ProvideFn, error) {
	distFn, err := spatial.DistanceFor(cfg.SpatialMetric())
	if err != nil {
		return nil, fmt.Errorf("unable provide distance function: %v", err)
	}
	alg := cfg.SpatialAlg()
	if _, err := spatial.For(alg, distFn); err != nil {
		return nil, err
	}
	return func() (spatial.Index, error) {
		return spatial.For(alg, distFn)
	}, nil
}
