package ports

import (
	"net/http"
)

// HTTPClient sends outbound requests. *http.Client satisfies it; tests swap in fakes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
