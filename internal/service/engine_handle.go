package service

import (
	"context"
	"sync"

	"private-checkout-gateway/internal/core/ports"
)

// EngineHandle memoizes a dialed privacy engine. The first caller pays the
// dial cost (the engine syncs its shielded-pool view before it is usable);
// later callers reuse the live handle. A failed dial is not cached, so the
// next caller retries.
type EngineHandle struct {
	dialer ports.EngineDialer

	mu     sync.Mutex
	engine ports.PrivacyEngine
}

// NewEngineHandle wraps an EngineDialer with memoization.
func NewEngineHandle(dialer ports.EngineDialer) *EngineHandle {
	return &EngineHandle{dialer: dialer}
}

// Engine returns the live engine, dialing it on first use.
func (h *EngineHandle) Engine(ctx context.Context) (ports.PrivacyEngine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine != nil {
		return h.engine, nil
	}

	eng, err := h.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	h.engine = eng
	return eng, nil
}

// Reset drops the cached handle. Callers invoke it after an engine call
// fails in a way that suggests the connection is dead.
func (h *EngineHandle) Reset() {
	h.mu.Lock()
	h.engine = nil
	h.mu.Unlock()
}
