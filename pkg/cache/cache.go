package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, val string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Publisher fans a message out to the subscribers of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]item

	subMu sync.Mutex
	subs  map[string][]chan string
}

type item struct {
	val string
	exp time.Time
}

func NewInMemory() *InMemoryCache {
	return &InMemoryCache{data: make(map[string]item), subs: make(map[string][]chan string)}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !it.exp.IsZero() && time.Now().After(it.exp) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return "", false
	}
	return it.val, true
}

func (c *InMemoryCache) Set(_ context.Context, key string, val string, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = item{val: val, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// Subscribe returns a buffered channel receiving messages published on channel.
// Messages are dropped when the buffer is full.
func (c *InMemoryCache) Subscribe(channel string, buffer int) <-chan string {
	ch := make(chan string, buffer)
	c.subMu.Lock()
	c.subs[channel] = append(c.subs[channel], ch)
	c.subMu.Unlock()
	return ch
}

func (c *InMemoryCache) Publish(_ context.Context, channel, message string) error {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs[channel] {
		select {
		case ch <- message:
		default:
		}
	}
	return nil
}
