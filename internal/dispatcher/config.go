package dispatcher

import (
	"time"
)

type Config struct {
	// Timer for performing data cleaning operations in the DB
	RebuildDBTime time.Duration `envconfig:"DCS_DISPATCHER_REBUILD_DB_TIME" default:"15s"`
	// maximum number of samples in the DB for each stream
	MaxItemsStored int `envconfig:"DCS_DISPATCHER_MAX_ITEMS_STORED" default:"1000000"`
	// maximum retention period for samples in the DB for each stream
	MaxStorageTime time.Duration `envconfig:"DCS_DISPATCHER_MAX_STORAGE_TIME" default:"0s"`
	// Critical buffer size in dbTxExecutor at which data is flushed to disk
	DBFlushSize int `envconfig:"DCS_DB_FLUSH_SIZE" default:"10"`
	// Critical lifetime of the dbTxExecutor buffer at which data is flushed to disk
	DBFlushTime time.Duration `envconfig:"DCS_DB_FLUSH_TIME" default:"5s"`
	// Keep processed samples in the DB so ensembles can be replayed on restart
	PersistSamples bool `envconfig:"DCS_DISPATCHER_PERSIST_SAMPLES" default:"true"`
}
