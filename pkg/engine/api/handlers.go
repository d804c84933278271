package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getmockd/loosed/pkg/httputil"
)

const maxRequestBodySize = 10 << 20

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	data, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	writeResult(w, s.api.CreateRule(data))
}

func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, s.api.ListRules())
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.api.GetRule(r.PathValue("ruleID")))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.api.DeleteRule(r.PathValue("ruleID")))
}

func (s *Server) handleSetResponse(w http.ResponseWriter, r *http.Request) {
	data, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	writeResult(w, s.api.SetResponse(r.PathValue("ruleID"), data))
}

func (s *Server) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.api.GetResponse(r.PathValue("ruleID")))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, s.api.Health())
}

// decodeBody reads the JSON document of a configuration request. On failure
// it writes the failure envelope and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var data any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeResult(w, s.api.failure(http.StatusRequestEntityTooLarge, "Request body is too large"))
			return nil, false
		}
		s.log.Debug("configuration request is not JSON", "path", r.URL.Path, "error", err)
		writeResult(w, s.api.failure(http.StatusBadRequest, "Failed to parse JSON data from the request"))
		return nil, false
	}
	return data, true
}

func writeResult(w http.ResponseWriter, res Result) {
	httputil.WriteJSON(w, res.Status, res.Envelope)
}
