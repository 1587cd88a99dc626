package httputil

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// NewClientFromConfig builds the client used for alert webhook deliveries,
// wrapping the transport with the configured authorization scheme.
func NewClientFromConfig(cfg HTTPClientConfig, disableKeepAlives bool) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var rt http.RoundTripper = &http.Transport{
		MaxIdleConnsPerHost: 2,
		DisableKeepAlives:   disableKeepAlives,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if len(cfg.BearerToken) > 0 {
		rt = &bearerAuthRoundTripper{bearerToken: cfg.BearerToken, rt: rt}
	}
	if cfg.BasicAuth != nil {
		rt = &basicAuthRoundTripper{
			username: cfg.BasicAuth.Username,
			password: cfg.BasicAuth.Password,
			rt:       rt,
		}
	}
	return &http.Client{Transport: rt}, nil
}

// bearerAuthRoundTripper sets the bearer Authorization header on a request
// unless the header is already set.
type bearerAuthRoundTripper struct {
	bearerToken string
	rt          http.RoundTripper
}

func (rt *bearerAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(req.Header.Get("Authorization")) == 0 {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", rt.bearerToken))
	}
	return rt.rt.RoundTrip(req)
}

type basicAuthRoundTripper struct {
	username string
	password string
	rt       http.RoundTripper
}

func (rt *basicAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(req.Header.Get("Authorization")) != 0 {
		return rt.rt.RoundTrip(req)
	}
	req.SetBasicAuth(rt.username, strings.TrimSpace(rt.password))
	return rt.rt.RoundTrip(req)
}
