package trakt

import (
	"errors"
	"fmt"
)

// HTTPError is a non-2xx answer from trakt.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Endpoint   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("trakt: %s returned status %d", e.Endpoint, e.StatusCode)
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an
// *HTTPError.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
