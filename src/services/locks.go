package services

import (
	"sort"
	"sync"
)

// accountLocker serializes balance mutations per account. Locks for a
// multi-account write are always taken in ascending account-id order so
// two concurrent transfers cannot deadlock.
type accountLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newAccountLocker() *accountLocker {
	return &accountLocker{locks: make(map[int64]*sync.Mutex)}
}

func (l *accountLocker) get(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// lock acquires the mutexes for the given account ids and returns the
// matching unlock function. Duplicate ids are collapsed.
func (l *accountLocker) lock(ids ...int64) func() {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	held := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
