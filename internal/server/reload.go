package server

import (
	"sync"
	"sync/atomic"
)

// Updater handles options update, identical in shape to
// gortcd/internal/server.Updater: Set stores the new Options and
// pushes them to every subscribed Server, so a SIGUSR2 or fsnotify
// trigger (internal/reload) can update a running listener without a
// restart.
type Updater struct {
	v         atomic.Value
	mux       sync.RWMutex
	listeners []*Server
}

// Get returns the current options.
func (u *Updater) Get() Options {
	return u.v.Load().(Options)
}

// Set stores new options and notifies all listeners.
func (u *Updater) Set(o Options) {
	u.v.Store(o)
	u.mux.RLock()
	for _, s := range u.listeners {
		s.setOptions(o)
	}
	u.mux.RUnlock()
}

// Subscribe adds server to listeners.
func (u *Updater) Subscribe(s *Server) {
	u.mux.Lock()
	u.listeners = append(u.listeners, s)
	u.mux.Unlock()
}

// NewUpdater initializes a new updater from options.
func NewUpdater(o Options) *Updater {
	u := &Updater{}
	u.v.Store(o)
	return u
}
