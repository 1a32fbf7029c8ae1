package player

import "sync"

// Factory builds a new session. It must be cheap: no I/O, no joining.
// The transport join happens lazily inside the session's first start.
type Factory func() *Player

// Registry is the process-wide mapping from guild ID to live session. It
// is the only place sessions are created or removed. One registry mutex
// guards the map; sessions themselves serialize independently, so guilds
// never block each other.
type Registry struct {
	mu      sync.Mutex
	players map[string]*Player
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

// GetOrCreate returns the live session for guildID, or builds exactly one
// with factory. Concurrent callers for the same guild always observe the
// same session; a stopped leftover is replaced.
func (r *Registry) GetOrCreate(guildID string, factory Factory) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[guildID]; ok && !p.Stopped() {
		return p
	}

	p := factory()
	p.onRemove = func() { r.removeIf(guildID, p) }
	r.players[guildID] = p
	return p
}

// Get returns the session for guildID, if any. It never creates one.
func (r *Registry) Get(guildID string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[guildID]
	return p, ok
}

// All returns the live sessions, in no particular order.
func (r *Registry) All() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

// Remove drops the session for guildID. Removing an absent guild is a
// no-op.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, guildID)
}

// removeIf drops the entry only while it still belongs to p, so a
// session tearing itself down cannot evict its replacement.
func (r *Registry) removeIf(guildID string, p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.players[guildID]; ok && cur == p {
		delete(r.players, guildID)
	}
}
