package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrLocationNotFound is wrapped in an InputError when the postcode does not
// geocode.
var ErrLocationNotFound = eris.New("analysis: location not found")

// InputError is a problem with the caller's request. It is never retried.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Err.Error()
}

func (e *InputError) Unwrap() error { return e.Err }

// UpstreamError is a failure of the geocoder or of one or more data
// providers. Stage is "geocode" or "fetch"; Providers names the failed
// providers of a fetch.
type UpstreamError struct {
	Stage     string
	Providers []string
	Err       error
}

func (e *UpstreamError) Error() string {
	if len(e.Providers) == 0 {
		return fmt.Sprintf("upstream %s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("upstream %s failed (%s): %v", e.Stage, strings.Join(e.Providers, ", "), e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsInputError reports whether err is, or wraps, an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsUpstreamError reports whether err is, or wraps, an UpstreamError.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsLocationNotFound reports whether err means the postcode did not resolve.
func IsLocationNotFound(err error) bool {
	return errors.Is(err, ErrLocationNotFound)
}
