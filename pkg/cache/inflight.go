package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// InflightSet marks keys that are already being worked on. A mark expires
// after its TTL even if it is never released.
type InflightSet interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// MemoryInflight is the single-process InflightSet.
type MemoryInflight struct {
	mu    sync.Mutex
	ttl   time.Duration
	marks map[string]time.Time
	now   func() time.Time
}

func NewMemoryInflight(ttl time.Duration) *MemoryInflight {
	return &MemoryInflight{
		ttl:   ttl,
		marks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Acquire возвращает false, если ключ уже помечен и метка не устарела
func (m *MemoryInflight) Acquire(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if at, ok := m.marks[key]; ok && now.Sub(at) < m.ttl {
		logrus.Debugf("inflight: %s already marked", key)
		return false, nil
	}
	m.marks[key] = now

	// чистим устаревшие метки, чтобы карта не росла
	for k, at := range m.marks {
		if now.Sub(at) >= m.ttl {
			delete(m.marks, k)
		}
	}
	return true, nil
}

func (m *MemoryInflight) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.marks, key)
	return nil
}
