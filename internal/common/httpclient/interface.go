// Package httpclient is the REST transport used by the sync operations. It
// resolves paths against a configured server URL, authenticates with a token or
// API key, and reports any non-2xx response as an *HTTPError.
package httpclient

import "context"

// Client is the transport the operations layer depends on. Every method returns
// the raw JSON response body.
type Client interface {
	// Get fetches path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Post sends body as JSON to path. A []byte body is sent as is.
	Post(ctx context.Context, path string, body any) ([]byte, error)

	// Delete deletes the resource at path.
	Delete(ctx context.Context, path string) ([]byte, error)
}

var _ Client = &HTTPClient{}
