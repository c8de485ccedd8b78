package core

import (
	"fmt"

	"github.com/aretw0/introspection"
)

// ServiceState reports what the store client sees of its store.
type ServiceState struct {
	Store        string `json:"store"` // component type of the adapter
	Watchable    bool   `json:"watchable"`
	WatchBrokers int    `json:"watch_brokers"` // live Watch relays
	EventBuffer  int    `json:"event_buffer"`
	Failures     int64  `json:"failures"` // store errors other than ErrNotFound
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	buffer := s.eventBufferSize
	s.mu.RUnlock()

	_, watchable := s.repo.(Watchable)
	return ServiceState{
		Store:        storeKind(s.repo),
		Watchable:    watchable,
		WatchBrokers: int(s.brokers.Load()),
		EventBuffer:  buffer,
		Failures:     s.failures.Load(),
	}
}

func storeKind(repo Repository) string {
	switch r := repo.(type) {
	case nil:
		return "none"
	case introspection.Component:
		return r.ComponentType()
	}
	return fmt.Sprintf("%T", repo)
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "store_client"
}

var (
	_ introspection.Introspectable = (*Service)(nil)
	_ introspection.Component      = (*Service)(nil)
)
