package elasticsearch

import (
	"fmt"
	"net/http"

	elastic "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/huynhanx03/go-batching/pkg/settings"
)

// Client adapts the official client to the ElasticClient interface. The
// official client exposes its API as function-typed fields, which cannot
// satisfy a method set on their own.
type Client struct {
	es *elastic.Client
}

var _ ElasticClient = (*Client)(nil)

// New creates an Elasticsearch client from settings
func New(cfg settings.Elasticsearch) (*Client, error) {
	if err := settings.Validate(&cfg); err != nil {
		return nil, err
	}

	es, err := elastic.NewClient(elastic.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	client := &Client{es: es}

	// Ping test
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPingFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrPingFailed, res.Status())
	}

	return client, nil
}

// Info reports cluster metadata; the cheapest connectivity check.
func (c *Client) Info(o ...func(*esapi.InfoRequest)) (*esapi.Response, error) {
	return c.es.Info(o...)
}

// Perform executes a raw request against the cluster.
func (c *Client) Perform(req *http.Request) (*http.Response, error) {
	return c.es.Perform(req)
}
