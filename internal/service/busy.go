package service

import "sync"

// BusyMessage is shown when a browser session submits while an earlier
// submission is still running.
const BusyMessage = "Another action is still in progress."

// BusyGuard allows one in-flight mutation per browser session. Acquire never
// waits.
type BusyGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewBusyGuard creates an empty guard.
func NewBusyGuard() *BusyGuard {
	return &BusyGuard{busy: make(map[string]struct{})}
}

// Acquire marks key busy. ok is false when key is already busy; otherwise
// release must be called exactly once.
func (g *BusyGuard) Acquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.busy[key]; held {
		return func() {}, false
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, true
}

func (g *BusyGuard) held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.busy[key]
	return held
}
