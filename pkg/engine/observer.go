package engine

import (
	"log/slog"

	"github.com/getmockd/loosed/pkg/logging"
)

// Stage identifies where in dispatch a plugin failed.
type Stage string

// Dispatch stages.
const (
	StageMatch Stage = "match"
	StageBuild Stage = "build"
)

// Observer receives structured events from a Manager. Events are
// notifications only and never influence dispatch decisions.
// Implementations must be safe for concurrent use.
type Observer interface {
	RuleAdded(ruleID, kind string)
	RuleRemoved(ruleID string)
	ResponseSet(ruleID, kind string)
	RuleFailed(ruleID string, stage Stage, err error)
	RuleUnbound(ruleID string)
	Matched(ruleID string)
	Missed()
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) RuleAdded(string, string) {}
func (NopObserver) RuleRemoved(string) {}
func (NopObserver) ResponseSet(string, string) {}
func (NopObserver) RuleFailed(string, Stage, error) {}
func (NopObserver) RuleUnbound(string) {}
func (NopObserver) Matched(string) {}
func (NopObserver) Missed() {}

// LogObserver writes events to a slog.Logger.
type LogObserver struct {
	log *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger discards events.
func NewLogObserver(log *slog.Logger) *LogObserver {
	if log == nil {
		log = logging.Nop()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) RuleAdded(ruleID, kind string) {
	o.log.Info("rule added", "ruleID", ruleID, "kind", kind)
}

func (o *LogObserver) RuleRemoved(ruleID string) {
	o.log.Info("rule removed", "ruleID", ruleID)
}

func (o *LogObserver) ResponseSet(ruleID, kind string) {
	o.log.Info("response set", "ruleID", ruleID, "kind", kind)
}

func (o *LogObserver) RuleFailed(ruleID string, stage Stage, err error) {
	o.log.Error("rule skipped after failure", "ruleID", ruleID, "stage", string(stage), "error", err)
}

func (o *LogObserver) RuleUnbound(ruleID string) {
	o.log.Debug("matched rule has no response", "ruleID", ruleID)
}

func (o *LogObserver) Matched(ruleID string) {
	o.log.Debug("request matched", "ruleID", ruleID)
}

func (o *LogObserver) Missed() {
	o.log.Debug("no rule matched the request")
}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) RuleAdded(ruleID, kind string) {
	for _, o := range m {
		o.RuleAdded(ruleID, kind)
	}
}

func (m MultiObserver) RuleRemoved(ruleID string) {
	for _, o := range m {
		o.RuleRemoved(ruleID)
	}
}

func (m MultiObserver) ResponseSet(ruleID, kind string) {
	for _, o := range m {
		o.ResponseSet(ruleID, kind)
	}
}

func (m MultiObserver) RuleFailed(ruleID string, stage Stage, err error) {
	for _, o := range m {
		o.RuleFailed(ruleID, stage, err)
	}
}

func (m MultiObserver) RuleUnbound(ruleID string) {
	for _, o := range m {
		o.RuleUnbound(ruleID)
	}
}

func (m MultiObserver) Matched(ruleID string) {
	for _, o := range m {
		o.Matched(ruleID)
	}
}

func (m MultiObserver) Missed() {
	for _, o := range m {
		o.Missed()
	}
}

var (
	_ Observer = NopObserver{}
	_ Observer = (*LogObserver)(nil)
	_ Observer = MultiObserver(nil)
)
