package kraken

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration marks missing or malformed credentials. Fatal; callers
// should not retry.
var ErrConfiguration = errors.New("kraken: configuration error")

// APIError is a request the exchange accepted transport-wise but rejected at
// the application level (result == "error" or an errors list in the body).
type APIError struct {
	Endpoint string
	Status   int
	Errors   []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kraken: %s status %d: %s", e.Endpoint, e.Status, strings.Join(e.Errors, "; "))
}
