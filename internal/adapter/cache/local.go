package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/ports"
)

// maxLocalEntries bounds the in-process store; receipts are small and short lived.
const maxLocalEntries = 10000

type item struct {
	payload  string
	deadline time.Time // zero means no expiry
}

func (i item) expired(now time.Time) bool {
	return !i.deadline.IsZero() && !now.Before(i.deadline)
}

// LocalCache keeps session receipts in memory when Redis is not configured.
type LocalCache struct {
	mu    sync.Mutex
	items map[string]item
	log   *zap.Logger
	now   func() time.Time

	done chan struct{}
	once sync.Once
}

// NewLocalCache starts a store that sweeps expired receipts every interval.
func NewLocalCache(sweepEvery time.Duration, log *zap.Logger) ports.Cache {
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	c := &LocalCache{
		items: make(map[string]item),
		log:   log,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go c.sweeper(sweepEvery)

	log.Info("Receipt cache running in-process", zap.Duration("sweep_every", sweepEvery))
	return c
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return "", ports.ErrCacheMiss
	}
	if it.expired(c.now()) {
		delete(c.items, key)
		return "", ports.ErrCacheMiss
	}
	return it.payload, nil
}

func (c *LocalCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := encode(value)
	if err != nil {
		return err
	}

	it := item{payload: payload}
	if ttl > 0 {
		it.deadline = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists && len(c.items) >= maxLocalEntries {
		c.evictLocked()
	}
	c.items[key] = it
	return nil
}

func (c *LocalCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error { return nil }

func (c *LocalCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func encode(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode cache value: %w", err)
	}
	return string(data), nil
}

// evictLocked drops expired entries, or the one closest to expiry when
// nothing has expired yet.
func (c *LocalCache) evictLocked() {
	if c.purgeLocked(c.now()) > 0 {
		return
	}
	var (
		victim string
		soon   time.Time
	)
	for key, it := range c.items {
		if victim == "" || (!it.deadline.IsZero() && (soon.IsZero() || it.deadline.Before(soon))) {
			victim, soon = key, it.deadline
		}
	}
	delete(c.items, victim)
}

func (c *LocalCache) purgeLocked(now time.Time) int {
	n := 0
	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
			n++
		}
	}
	return n
}

func (c *LocalCache) sweeper(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.mu.Lock()
			n := c.purgeLocked(c.now())
			c.mu.Unlock()
			if n > 0 {
				c.log.Debug("Expired receipts swept", zap.Int("count", n))
			}
		}
	}
}
