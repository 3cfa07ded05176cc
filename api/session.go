/*
session.go - Operator session state

PURPOSE:
  Uploaded datasets and the working rule tables live in memory for
  the life of the process. One operator session per process is the
  operating model; the mutex exists because the dashboard fires
  concurrent requests, not because sessions are shared.

  Snapshots hand out clones so a long-running reconcile pass never
  observes a rule edit mid-flight.

SEE ALSO:
  - handlers.go: The only consumer
*/
package api

import (
	"strings"
	"sync"

	"github.com/syncops/recon-engine/factory"
	"github.com/syncops/recon-engine/recon"
)

type datasetState struct {
	set   *recon.RecordSet
	roles recon.Roles
}

type session struct {
	mu       sync.RWMutex
	datasets map[recon.Side]*datasetState
	tables   *factory.Tables
}

func newSession(tables *factory.Tables) *session {
	return &session{
		datasets: map[recon.Side]*datasetState{},
		tables:   tables,
	}
}

func (s *session) setDataset(side recon.Side, set *recon.RecordSet, roles recon.Roles) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[side] = &datasetState{set: set, roles: roles}
}

func (s *session) dataset(side recon.Side) (*recon.RecordSet, recon.Roles, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[side]
	if !ok {
		return nil, recon.Roles{}, false
	}
	return ds.set, ds.roles, true
}

func (s *session) setRoles(side recon.Side, roles recon.Roles) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ds, ok := s.datasets[side]; ok {
		ds.roles = roles
	}
}

// tablesSnapshot returns the working tables with the rule table
// cloned, so callers can read without holding the lock.
func (s *session) tablesSnapshot() *factory.Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &factory.Tables{
		Version:             s.tables.Version,
		Rules:               s.tables.Rules.Clone(),
		Categories:          s.tables.Categories,
		ReplacementStatuses: s.tables.ReplacementStatuses,
	}
}

// mutateRules applies fn to the working rule table under the lock.
func (s *session) mutateRules(fn func(*recon.RuleTable) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.tables.Rules)
}

func (s *session) replaceTables(tables *factory.Tables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = tables
}

// configSnapshot serializes the working configuration.
func (s *session) configSnapshot() *factory.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables.Config()
}

// expectedString renders a rule's current value for the audit log.
func (s *session) expectedString(status string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs, ok := s.tables.Rules.Expected(status)
	if !ok {
		return ""
	}
	return strings.Join(vs, ", ")
}
