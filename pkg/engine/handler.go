// Data-plane HTTP handler for the dynamic routes.

package engine

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/getmockd/loosed/pkg/httputil"
	"github.com/getmockd/loosed/pkg/logging"
)

// MaxRequestBodySize is the largest request body read before dispatch (10MB).
const MaxRequestBodySize = 10 << 20

// Dispatcher answers requests with the reply of the first matching rule.
type Dispatcher interface {
	Dispatch(r *http.Request) (*Reply, error)
}

// Handler serves the dynamic routes by dispatching every request.
type Handler struct {
	dispatcher Dispatcher
	log        *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(d Dispatcher) *Handler {
	return &Handler{
		dispatcher: d,
		log:        logging.Nop(),
	}
}

// SetLogger sets the operational logger.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log != nil {
		h.log = log
	} else {
		h.log = logging.Nop()
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.log.Warn("request body too large", "path", r.URL.Path, "limit", MaxRequestBodySize)
				httputil.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large",
					"request body exceeds maximum allowed size")
				return
			}
			h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
			httputil.WriteError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
			return
		}
	}
	r = WithBody(r, body)

	reply, err := h.dispatcher.Dispatch(r)
	if err != nil {
		h.log.Debug("no reply", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	if err := reply.Write(w); err != nil {
		h.log.Warn("failed to write reply", "path", r.URL.Path, "error", err)
	}
}
