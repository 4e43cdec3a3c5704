package channel

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry holds the configured chat adapters keyed by Type.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Type]Adapter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: map[Type]Adapter{},
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(adapter Adapter) error {
	if adapter == nil {
		return errors.New("adapter is nil")
	}
	ct := normalizeType(adapter.Type().String())
	if ct == "" {
		return errors.New("channel type is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[ct]; exists {
		return fmt.Errorf("channel type already registered: %s", ct)
	}
	r.adapters[ct] = adapter
	return nil
}

// MustRegister calls Register and panics on error.
func (r *Registry) MustRegister(adapter Adapter) {
	if err := r.Register(adapter); err != nil {
		panic(err)
	}
}

// Get returns the adapter for the given channel type.
func (r *Registry) Get(channelType Type) (Adapter, bool) {
	ct := normalizeType(channelType.String())
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[ct]
	return adapter, ok
}

// Types returns all registered channel types, sorted.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]Type, 0, len(r.adapters))
	for ct := range r.adapters {
		items = append(items, ct)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}

// Endpoint bundles the capabilities the bot needs from one adapter.
type Endpoint struct {
	Type      Type
	Receiver  Receiver
	Publisher Publisher
	// History is nil when the platform cannot page message history.
	History HistoryReader
}

// Endpoint resolves the adapter for raw and checks it can both receive and
// publish.
func (r *Registry) Endpoint(raw string) (Endpoint, error) {
	ct := normalizeType(raw)
	adapter, ok := r.Get(ct)
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrUnknownType, raw)
	}
	receiver, ok := adapter.(Receiver)
	if !ok {
		return Endpoint{}, fmt.Errorf("channel %s cannot receive messages", ct)
	}
	publisher, ok := adapter.(Publisher)
	if !ok {
		return Endpoint{}, fmt.Errorf("channel %s cannot publish messages", ct)
	}
	ep := Endpoint{Type: ct, Receiver: receiver, Publisher: publisher}
	if history, ok := adapter.(HistoryReader); ok {
		ep.History = history
	}
	return ep, nil
}
