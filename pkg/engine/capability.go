package engine

import (
	"net/http"
)

// Rule is a predicate over incoming requests. Implementations are plugged in
// through a rule registry and must be safe for concurrent use.
type Rule interface {
	// Kind returns the tag the rule is registered under.
	Kind() string

	// Match reports whether the request satisfies the rule. An error is
	// treated by the dispatcher as "no match".
	Match(r *http.Request) (bool, error)
}

// Response builds the reply for a request matched by a rule.
// Implementations must be safe for concurrent use.
type Response interface {
	// Kind returns the tag the response is registered under.
	Kind() string

	// Build produces the reply. An error makes the dispatcher move on to
	// the next rule.
	Build(r *http.Request, rule Rule) (*Reply, error)
}

// Reply is the wire response produced by a Response.
type Reply struct {
	Status int
	Header http.Header
	Body   []byte
}

// Write sends the reply. A zero status is sent as 200.
func (rp *Reply) Write(w http.ResponseWriter) error {
	for name, values := range rp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	status := rp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(rp.Body) == 0 {
		return nil
	}
	_, err := w.Write(rp.Body)
	return err
}
