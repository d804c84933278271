package server

import (
	"fmt"

	"github.com/getmockd/loosed/pkg/api/types"
	"github.com/getmockd/loosed/pkg/config"
)

// SeedError reports a seed rule rejected by the configuration API.
type SeedError struct {
	Index  int
	Status int
	Err    *types.APIError
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("seed rule %d: %s", e.Index, e.Err.Description)
}

func (e *SeedError) Unwrap() error { return e.Err }

// Seed applies the configured seed rules. It runs at most once; Start calls
// it automatically.
func (s *Server) Seed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedLocked()
}

func (s *Server) seedLocked() error {
	if s.seeded {
		return nil
	}
	s.seeded = true
	return s.ApplySeeds(s.cfg.Rules)
}

// ApplySeeds creates each seed rule and binds its response through the
// configuration API. It stops at the first rejected record; rules created
// before it are kept.
func (s *Server) ApplySeeds(seeds []config.RuleSeed) error {
	for i, seed := range seeds {
		res := s.api.CreateRule(seed.Rule)
		if !res.OK() {
			return &SeedError{Index: i, Status: res.Status, Err: res.Envelope.Err()}
		}
		ruleID := res.Envelope.Data.(types.RuleRecord).RuleID

		if seed.Response != nil {
			res = s.api.SetResponse(ruleID, seed.Response)
			if !res.OK() {
				return &SeedError{Index: i, Status: res.Status, Err: res.Envelope.Err()}
			}
		}
		s.log.Info("seed rule applied", "index", i, "ruleID", ruleID)
	}
	return nil
}
