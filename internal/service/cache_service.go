package service

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Ключи кэша отчётов.
const (
	ReportCachePrefix  = "reports:"
	ReportListCacheKey = ReportCachePrefix + "list"
)

// CacheService — кэш в памяти с TTL и инвалидацией по префиксу.
// Каждая инвалидация увеличивает generation: значение, вычисленное до неё,
// в кэш уже не попадает.
type CacheService struct {
	mu         sync.RWMutex
	cache      map[string]*cacheEntry
	generation uint64
	now        func() time.Time
	stop       chan struct{}
	once       sync.Once
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService создаёт кэш и запускает периодическую очистку просроченных записей.
func NewCacheService(cleanupInterval time.Duration) *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go cs.cleanup(cleanupInterval)
	}
	return cs
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || cs.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: cs.now().Add(ttl),
	}
}

// setIfGeneration сохраняет значение, только если с момента gen не было инвалидаций.
func (cs *CacheService) setIfGeneration(key string, value interface{}, ttl time.Duration, gen uint64) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.generation != gen {
		return false
	}
	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: cs.now().Add(ttl),
	}
	return true
}

func (cs *CacheService) currentGeneration() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.generation
}

func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.cache, key)
	cs.generation++
}

// InvalidateByPrefix удаляет все ключи с префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.generation++
	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// GetOrSet возвращает значение из кэша или вычисляет и сохраняет его.
// Ошибка fn не кэшируется. Если пока работала fn кэш инвалидировали,
// значение возвращается, но не сохраняется.
func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func() (interface{}, error),
) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gen := cs.currentGeneration()
	value, err := fn()
	if err != nil {
		return nil, err
	}
	cs.setIfGeneration(key, value, ttl, gen)
	return value, nil
}

// Close останавливает фоновую очистку.
func (cs *CacheService) Close() {
	cs.once.Do(func() { close(cs.stop) })
}

func (cs *CacheService) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cs.stop:
			return
		case <-ticker.C:
			cs.mu.Lock()
			now := cs.now()
			for key, entry := range cs.cache {
				if now.After(entry.expiresAt) {
					delete(cs.cache, key)
				}
			}
			cs.mu.Unlock()
		}
	}
}
