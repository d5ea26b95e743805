package provider

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Doer is the subset of *http.Client used by provider clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RLClient waits on a rate limiter before each request.
type RLClient struct {
	Client      Doer
	Ratelimiter *rate.Limiter
}

// NewRLClient wraps client; a nil limiter disables throttling.
func NewRLClient(client Doer, limiter *rate.Limiter) *RLClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &RLClient{Client: client, Ratelimiter: limiter}
}

func (c *RLClient) Do(req *http.Request) (*http.Response, error) {
	if c.Ratelimiter != nil {
		if err := c.Ratelimiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return c.Client.Do(req)
}
