package core

import "errors"

var ErrKeyNotFound = errors.New("key not found")

// KVStore persists small records under string keys.
type KVStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}
