package dummystore

import (
	"sync"

	"github.com/trezcool/tododesk/core"
)

// Store keeps records in memory.
type Store struct {
	sync.RWMutex
	table map[string][]byte
}

var _ core.KVStore = (*Store)(nil)

func Open() *Store {
	return &Store{table: make(map[string][]byte)}
}

func (s *Store) Get(key string) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()
	value, ok := s.table[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *Store) Put(key string, value []byte) error {
	s.Lock()
	defer s.Unlock()
	s.table[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(key string) error {
	s.Lock()
	defer s.Unlock()
	delete(s.table, key)
	return nil
}
