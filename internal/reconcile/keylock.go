package reconcile

import (
	"sort"
	"sync"
)

// keyLocks 대사 키별 커밋 직렬화 락.
// 락은 2단계 커밋 시점에만 잡고 파싱 단계에서는 절대 잡지 않는다.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *keyLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// lockAll 키를 정렬 순서로 잠가 교착을 피한다. 반환된 함수로 해제.
func (l *keyLocks) lockAll(keys []string) func() {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	// 중복 키는 한 번만 잠근다
	var held []*sync.Mutex
	prev := ""
	for i, key := range sorted {
		if i > 0 && key == prev {
			continue
		}
		prev = key
		m := l.get(key)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
