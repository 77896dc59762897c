package ports

import "net/http"

// HTTPClient sends bridge REST requests. *http.Client satisfies it; tests
// swap in clients pointed at httptest servers.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
