// Package store holds the bounded in-memory collections for recent flows and
// alerts. Both stores are newest-first: Push prepends and eviction happens
// strictly at the back once capacity is reached. Eviction is a designed
// behavior, not an error, and is silent apart from metrics.
package store

import (
	"sync"

	"flowscope/internal/model"
)

// FlowStore keeps the most recent flows, newest first, capped at a fixed
// capacity.
type FlowStore struct {
	mu       sync.RWMutex
	flows    []model.FlowRecord
	capacity int
	evicted  uint64
}

// NewFlowStore creates a flow store with the given capacity.
func NewFlowStore(capacity int) *FlowStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &FlowStore{
		flows:    make([]model.FlowRecord, 0, capacity),
		capacity: capacity,
	}
}

// Push prepends a flow, evicting the oldest entry when the store is full.
func (s *FlowStore) Push(flow model.FlowRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(flow)
}

// PushAll prepends a batch in order: the first element of flows ends up
// newest. Used to seed the store from the history service.
func (s *FlowStore) PushAll(flows []model.FlowRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(flows) - 1; i >= 0; i-- {
		s.insert(flows[i])
	}
}

func (s *FlowStore) insert(flow model.FlowRecord) {
	s.flows = append(s.flows, model.FlowRecord{})
	copy(s.flows[1:], s.flows)
	s.flows[0] = flow
	if len(s.flows) > s.capacity {
		s.flows = s.flows[:s.capacity]
		s.evicted++
	}
}

// Snapshot returns a copy of the current contents, newest first.
func (s *FlowStore) Snapshot() []model.FlowRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.FlowRecord, len(s.flows))
	copy(out, s.flows)
	return out
}

// Len returns the number of stored flows.
func (s *FlowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}

// Evicted returns the number of flows dropped to capacity so far.
func (s *FlowStore) Evicted() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

// Clear removes all stored flows.
func (s *FlowStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows = s.flows[:0]
}
