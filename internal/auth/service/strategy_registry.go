package service

import (
	"net/http"
	"sync"
)

type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	order      []string
}

func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: make(map[string]Strategy)}
}

func (r *StrategyRegistry) Register(name string, strategy Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[name]; !exists {
		r.order = append(r.order, name)
	}
	r.strategies[name] = strategy
}

func (r *StrategyRegistry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

func (r *StrategyRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Parse asks the named strategies, in order, for credentials in the request.
func (r *StrategyRegistry) Parse(req *http.Request, names ...string) (AuthRequest, bool) {
	if len(names) == 0 {
		names = r.Names()
	}
	for _, name := range names {
		strategy, ok := r.Get(name)
		if !ok {
			continue
		}
		if auth, ok := strategy.Parse(req); ok {
			if auth.Strategy() == "" {
				auth["strategy"] = name
			}
			return auth, true
		}
	}
	return nil, false
}
