package cache

import (
	"bytes"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/storage"
)

type entry struct {
	fingerprint []byte
	image       []byte
}

// OverviewCache keeps rendered order overviews. An entry is served only while
// the order it was rendered from is unchanged, so a completed order or a
// reused id renders afresh.
type OverviewCache struct {
	mu    sync.RWMutex
	cache map[int]entry
	limit int
	log   *zap.Logger
}

func NewOverviewCache(limit int, log *zap.Logger) *OverviewCache {
	return &OverviewCache{
		cache: make(map[int]entry),
		limit: limit,
		log:   log,
	}
}

func (c *OverviewCache) Get(order storage.Order) ([]byte, bool) {
	fp, err := json.Marshal(order)
	if err != nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	e, found := c.cache[order.ID]
	if !found || !bytes.Equal(e.fingerprint, fp) {
		return nil, false
	}
	return e.image, true
}

func (c *OverviewCache) Set(order storage.Order, image []byte) {
	fp, err := json.Marshal(order)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.cache[order.ID]; !found && c.limit > 0 && len(c.cache) >= c.limit {
		// evict an arbitrary entry
		for id := range c.cache {
			delete(c.cache, id)
			break
		}
	}
	c.cache[order.ID] = entry{fingerprint: fp, image: image}
	c.log.Debug("cached order overview", zap.Int("order_id", order.ID), zap.Int("bytes", len(image)))
}

func (c *OverviewCache) Delete(orderID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.cache[orderID]; found {
		delete(c.cache, orderID)
		c.log.Debug("dropped cached order overview", zap.Int("order_id", orderID))
	}
}

func (c *OverviewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
