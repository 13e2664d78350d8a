package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry holds the registered strategies and tracks which one is active.
// It is an injected collaborator, constructed once at startup and passed to
// whatever needs strategy lookup. A strategy that fails validation is
// rejected at registration without affecting the others.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	order      []string
	activeID   string
	log        zerolog.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		strategies: map[string]Strategy{},
		log:        log.With().Str("component", "registry").Logger(),
	}
}

// NewDefaultRegistry builds a registry preloaded with the built-in rule
// sets, the first one active.
func NewDefaultRegistry(log zerolog.Logger) (*Registry, error) {
	reg := NewRegistry(log)
	for _, cfg := range DefaultConfigs() {
		rs, err := NewRuleSet(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(rs); err != nil {
			return nil, err
		}
	}
	if err := reg.SetActive(DefaultResealV1().ID); err != nil {
		return nil, err
	}
	return reg, nil
}

// Register adds a strategy. Duplicate ids are rejected.
func (r *Registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.ID()
	if _, exists := r.strategies[id]; exists {
		return fmt.Errorf("register strategy: duplicate id %q", id)
	}
	r.strategies[id] = s
	r.order = append(r.order, id)
	r.log.Info().Str("strategy", id).Str("version", s.Version()).Msg("strategy registered")
	return nil
}

// Get returns the strategy with the given id.
func (r *Registry) Get(id string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, id)
	}
	return s, nil
}

// SetActive switches the active strategy. The switch takes effect on the
// next cycle; an in-flight cycle keeps the strategy it started with.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.strategies[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStrategy, id)
	}
	if r.activeID != "" && r.activeID != id {
		r.log.Info().Str("from", r.activeID).Str("to", id).Msg("active strategy switched")
	}
	r.activeID = id
	return nil
}

// Active returns the currently active strategy, or nil when none is set.
// Callers snapshot this once per cycle.
func (r *Registry) Active() Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.activeID == "" {
		return nil
	}
	return r.strategies[r.activeID]
}

// ActiveID returns the active strategy id, empty when none is set.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// List returns the registered strategy ids in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Summaries returns id/name/version rows sorted by id, for CLI display.
func (r *Registry) Summaries() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.strategies))
	for id, s := range r.strategies {
		out = append(out, Summary{
			ID:      id,
			Name:    s.Name(),
			Version: s.Version(),
			Active:  id == r.activeID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Summary is one registry row for display.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Active  bool   `json:"active"`
}
