package alert

import (
	"encoding/json"
	"time"

	"github.com/go-dcs/dcs/internal/httputil"
)

type Config struct {
	AllowAlerts          bool          `envconfig:"DCS_ALLOW_ALERTS" default:"true"`
	Targets              Targets       `envconfig:"DCS_ALERT_TARGETS"`
	Interval             time.Duration `envconfig:"DCS_ALERT_INTERVAL" default:"5s"`
	MaxConcurrentRequest int           `envconfig:"DCS_ALERT_MAX_CONCURRENT_REQUEST" default:"64"`
	RequestTimeout       time.Duration `envconfig:"DCS_ALERT_REQUEST_TIMEOUT" default:"30s"`
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
	URL        string                    `json:"url"`
	StreamID   string                    `json:"streamId"`
	HTTPConfig httputil.HTTPClientConfig `json:"httpConfig"`
}
