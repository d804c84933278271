package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getmockd/loosed/pkg/api/types"
)

// StatusError is returned when the server answers with a failure envelope
// or a non-200 status.
type StatusError struct {
	StatusCode int
	Err        *types.APIError
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Err.Description)
}

func (e *StatusError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the configuration API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsBadRequest reports whether err is a 400 from the configuration API.
func IsBadRequest(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusBadRequest
}
