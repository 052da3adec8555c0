package elasticsearch

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticClient defines the contract for Elasticsearch client operations
type ElasticClient interface {
	Info(o ...func(*esapi.InfoRequest)) (*esapi.Response, error)

	// Perform is required for esapi.Transport interface, which lets esapi
	// request types execute against the client directly.
	Perform(*http.Request) (*http.Response, error)
}
