package engine

import (
	"net/http"
	"sync"
)

type funcRule struct {
	kind  string
	match func(r *http.Request) (bool, error)
}

func (f *funcRule) Kind() string { return f.kind }

func (f *funcRule) Match(r *http.Request) (bool, error) { return f.match(r) }

func always(ok bool) *funcRule {
	return &funcRule{kind: "FUNC", match: func(*http.Request) (bool, error) { return ok, nil }}
}

type funcResponse struct {
	kind  string
	build func(r *http.Request, rule Rule) (*Reply, error)
}

func (f *funcResponse) Kind() string { return f.kind }

func (f *funcResponse) Build(r *http.Request, rule Rule) (*Reply, error) { return f.build(r, rule) }

func fixed(status int, body string) *funcResponse {
	return &funcResponse{kind: "FUNC", build: func(*http.Request, Rule) (*Reply, error) {
		return &Reply{Status: status, Body: []byte(body)}, nil
	}}
}

type event struct {
	name   string
	ruleID string
	stage  Stage
}

type recordingObserver struct {
	mu     sync.Mutex
	events []event
}

func (o *recordingObserver) add(e event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) named(name string) []event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []event
	for _, e := range o.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func (o *recordingObserver) RuleAdded(id, _ string) { o.add(event{name: "added", ruleID: id}) }
func (o *recordingObserver) RuleRemoved(id string) { o.add(event{name: "removed", ruleID: id}) }
func (o *recordingObserver) ResponseSet(id, _ string) { o.add(event{name: "response", ruleID: id}) }
func (o *recordingObserver) RuleFailed(id string, s Stage, _ error) {
	o.add(event{name: "failed", ruleID: id, stage: s})
}
func (o *recordingObserver) RuleUnbound(id string) { o.add(event{name: "unbound", ruleID: id}) }
func (o *recordingObserver) Matched(id string) { o.add(event{name: "matched", ruleID: id}) }
func (o *recordingObserver) Missed() { o.add(event{name: "missed"}) }
