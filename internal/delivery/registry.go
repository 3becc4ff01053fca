// Package delivery routes assistant replies back to the chat surface that
// owns the session, selected by session-key prefix (e.g. "telegram:").
package delivery

import (
	"fmt"
	"strings"
	"sync"

	"github.com/user/mindloom/internal/types"
)

// Handler delivers one assistant reply to the session's surface.
type Handler func(key types.SessionKey, reply string) error

// Registry maps session-key prefixes to delivery handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler for session keys starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Deliver finds the handler matching the session key prefix and calls it.
func (r *Registry) Deliver(key types.SessionKey, reply string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for prefix, handler := range r.handlers {
		if strings.HasPrefix(string(key), prefix) {
			return handler(key, reply)
		}
	}
	return fmt.Errorf("no delivery handler for session key %q", key)
}
