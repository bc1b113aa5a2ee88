// Package nvs provides durable key/value storage surviving restarts.
package nvs

import (
	"sort"
	"strings"
)

// Store is a durable key/value medium.
type Store interface {
	// Get returns ErrNotFound (wrapped in StorageError) for a missing key.
	Get(key string) (string, error)
	Set(key, value string) error
	// SetAll stores all values in one write: either every key is updated or
	// none is.
	SetAll(values map[string]string) error
	// Remove deletes a key. Removing a missing key is not an error.
	Remove(key string) error
	// Keys lists all keys in sorted order.
	Keys() ([]string, error)
	// Erase removes every key.
	Erase() error
}

// NamespaceSeparator joins a namespace and a key.
const NamespaceSeparator = "."

// Namespaced scopes a Store under a fixed key prefix.
type Namespaced struct {
	Store  Store
	Prefix string
}

// Namespace creates a Namespaced store.
func Namespace(store Store, name string) *Namespaced {
	return &Namespaced{Store: store, Prefix: name + NamespaceSeparator}
}

// Get implements Store.
func (n *Namespaced) Get(key string) (string, error) {
	return n.Store.Get(n.Prefix + key)
}

// Set implements Store.
func (n *Namespaced) Set(key, value string) error {
	return n.Store.Set(n.Prefix+key, value)
}

// SetAll implements Store.
func (n *Namespaced) SetAll(values map[string]string) error {
	prefixed := make(map[string]string, len(values))
	for key, value := range values {
		prefixed[n.Prefix+key] = value
	}
	return n.Store.SetAll(prefixed)
}

// Remove implements Store.
func (n *Namespaced) Remove(key string) error {
	return n.Store.Remove(n.Prefix + key)
}

// Keys implements Store.
func (n *Namespaced) Keys() ([]string, error) {
	all, err := n.Store.Keys()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, key := range all {
		if strings.HasPrefix(key, n.Prefix) {
			keys = append(keys, key[len(n.Prefix):])
		}
	}
	return keys, nil
}

// Erase implements Store, only keys under the namespace are removed.
func (n *Namespaced) Erase() error {
	keys, err := n.Keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err = n.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(data map[string]string) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
