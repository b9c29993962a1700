package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Entity is anything the remote API identifies with a primary key.
type Entity interface {
	Key() int
}

// Append adds item at the end of list.
func Append[T Entity](list []T, item T) []T {
	return append(list, item)
}

// Prepend adds item at the head of list.
func Prepend[T Entity](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}

// Replace swaps the element sharing item's key. list is returned unchanged when no element matches.
func Replace[T Entity](list []T, item T) []T {
	out := make([]T, len(list))
	copy(out, list)
	for i := range out {
		if out[i].Key() == item.Key() {
			out[i] = item
		}
	}
	return out
}

// Remove drops the element with the given key.
func Remove[T Entity](list []T, key int) []T {
	out := make([]T, 0, len(list))
	for _, it := range list {
		if it.Key() != key {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the element with the given key.
func Find[T Entity](list []T, key int) (T, bool) {
	for _, it := range list {
		if it.Key() == key {
			return it, true
		}
	}
	var zero T
	return zero, false
}
