package services

import "sync"

// inflightGuard enforces at most one outstanding mutation per key
// (action + entity id). Unlike a keyed mutex it does not queue: a second
// caller fails fast so duplicate submissions produce exactly one mutation.
type inflightGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{keys: make(map[string]struct{})}
}

// acquire reserves the key. Returns false when the key is already held.
func (g *inflightGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.keys[key]; held {
		return false
	}

	g.keys[key] = struct{}{}

	return true
}

// release frees the key.
func (g *inflightGuard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.keys, key)
}
