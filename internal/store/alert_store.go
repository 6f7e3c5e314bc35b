package store

import (
	"sync"

	"flowscope/internal/model"
)

// AlertStore keeps the most recent alerts, newest first, capped at a fixed
// capacity. Alerts leave the store either by capacity eviction or by
// consumer-initiated dismissal.
type AlertStore struct {
	mu       sync.RWMutex
	alerts   []model.Alert
	capacity int
	evicted  uint64
}

// NewAlertStore creates an alert store with the given capacity.
func NewAlertStore(capacity int) *AlertStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &AlertStore{
		alerts:   make([]model.Alert, 0, capacity),
		capacity: capacity,
	}
}

// Push prepends an alert, evicting the oldest entry when the store is full.
func (s *AlertStore) Push(alert model.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(alert)
}

// PushAll prepends a batch in order: the first element ends up newest.
func (s *AlertStore) PushAll(alerts []model.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(alerts) - 1; i >= 0; i-- {
		s.insert(alerts[i])
	}
}

func (s *AlertStore) insert(alert model.Alert) {
	s.alerts = append(s.alerts, model.Alert{})
	copy(s.alerts[1:], s.alerts)
	s.alerts[0] = alert
	if len(s.alerts) > s.capacity {
		s.alerts = s.alerts[:s.capacity]
		s.evicted++
	}
}

// Remove dismisses a single alert by id. It reports whether an alert was
// removed.
func (s *AlertStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveIf dismisses every alert matching the predicate and returns how many
// were removed.
func (s *AlertStore) RemoveIf(match func(model.Alert) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.alerts[:0]
	removed := 0
	for _, a := range s.alerts {
		if match(a) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
	return removed
}

// Snapshot returns a copy of the current contents, newest first.
func (s *AlertStore) Snapshot() []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Len returns the number of stored alerts.
func (s *AlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// Evicted returns the number of alerts dropped to capacity so far.
func (s *AlertStore) Evicted() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

// Clear dismisses all alerts.
func (s *AlertStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = s.alerts[:0]
}
