package httpclient

import "net/http"

// HTTPClient is the minimal surface the REST adapters need; *http.Client
// satisfies it and tests substitute fakes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
