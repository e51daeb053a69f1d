package server

import (
	"sync"

	"github.com/gortc/resolved/internal/lookup"
)

// config holds the subset of Options that can change on a hot reload,
// guarded by a RWMutex exactly as gortcd/internal/server.config
// guards maxLifetime/workers/authForSTUN: readers (request handlers)
// take the read lock, Updater.Set (reload.go) takes the write lock once.
type config struct {
	lock         sync.RWMutex
	facade       *lookup.Facade
	debugCollect bool
	workers      int
}

func newConfig(o Options) *config {
	return &config{
		facade:       o.Facade,
		debugCollect: o.DebugCollect,
		workers:      o.Workers,
	}
}

func (c *config) Facade() *lookup.Facade {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.facade
}

func (c *config) DebugCollect() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.debugCollect
}

func (c *config) Workers() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.workers
}

func (c *config) update(o Options) {
	c.lock.Lock()
	c.facade = o.Facade
	c.debugCollect = o.DebugCollect
	c.workers = o.Workers
	c.lock.Unlock()
}
