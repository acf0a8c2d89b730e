package service

import (
	"context"
	"sync"

	"github.com/spaolacci/murmur3"
)

// userLocks serializes work per user. Each user gets its own lock, so
// unrelated users never wait for each other. The lock table is split into
// shards by murmur3 hash so that looking up locks does not contend on one
// mutex.
type userLocks struct {
	shards []*lockShard
}

type lockShard struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	ch   chan struct{}
	refs int
}

func newUserLocks(n int) *userLocks {
	if n <= 0 {
		n = 1
	}
	l := &userLocks{shards: make([]*lockShard, n)}
	for i := range l.shards {
		l.shards[i] = &lockShard{locks: make(map[string]*userLock)}
	}
	return l
}

func (l *userLocks) shard(userId string) *lockShard {
	return l.shards[murmur3.Sum64([]byte(userId))%uint64(len(l.shards))]
}

// lock blocks until the user's lock is free or ctx ends. The returned
// func releases it.
func (l *userLocks) lock(ctx context.Context, userId string) (func(), error) {
	s := l.shard(userId)
	ul := s.acquire(userId)
	select {
	case ul.ch <- struct{}{}:
		return func() {
			<-ul.ch
			s.release(userId)
		}, nil
	case <-ctx.Done():
		s.release(userId)
		return nil, ctx.Err()
	}
}

func (s *lockShard) acquire(userId string) *userLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	ul, ok := s.locks[userId]
	if !ok {
		ul = &userLock{ch: make(chan struct{}, 1)}
		s.locks[userId] = ul
	}
	ul.refs++
	return ul
}

func (s *lockShard) release(userId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ul, ok := s.locks[userId]
	if !ok {
		return
	}
	ul.refs--
	if ul.refs <= 0 {
		delete(s.locks, userId)
	}
}

// held returns how many users currently have lock entries.
func (l *userLocks) held() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.locks)
		s.mu.Unlock()
	}
	return n
}
