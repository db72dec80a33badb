package outbound

import "context"

// Fetcher retrieves the body of a third-party GET endpoint, consulting the
// cache substrate first. A non-success upstream status surfaces as an
// *apierror.Error carrying the status and response body; failed responses
// are never cached.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
