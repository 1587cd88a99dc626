package scrape

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Targets              Targets       `envconfig:"DCS_SCRAPE_TARGET_URLS"`
	TargetsFile          string        `envconfig:"DCS_SCRAPE_TARGETS_FILE"`
	MaxConcurrentRequest int           `envconfig:"DCS_SCRAPE_MAX_CONCURRENT_REQUEST" default:"64"`
	Interval             time.Duration `envconfig:"DCS_SCRAPE_INTERVAL" default:"1s"`
}

type Targets []Target

func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

type Target struct {
	URL      string `json:"url" toml:"url"`
	StreamID string `json:"streamId" toml:"stream"`
}

type targetsFile struct {
	Targets []Target `toml:"targets"`
}

// LoadTargetsFile reads scrape targets from a TOML file of [[targets]]
// blocks, each with url and stream keys.
func LoadTargetsFile(path string) (Targets, error) {
	var file targetsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("unable decode targets file %s: %w", path, err)
	}
	return file.Targets, nil
}
