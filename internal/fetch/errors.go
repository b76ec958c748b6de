package fetch

import "fmt"

// TransportError reports that no HTTP response was obtained after all
// attempts: DNS failure, refused connection, timeout, truncated body.
type TransportError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: transport failure after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
