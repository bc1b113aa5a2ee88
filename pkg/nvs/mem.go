package nvs

import "sync"

// MemStore is a volatile Store, for tests and runs without a medium.
type MemStore struct {
	data map[string]string
	lock sync.RWMutex
}

// NewMemStore creates a MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

// Get implements Store.
func (s *MemStore) Get(key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if value, ok := s.data[key]; ok {
		return value, nil
	}
	return "", &StorageError{Op: "get", Key: key, Err: ErrNotFound}
}

// Set implements Store.
func (s *MemStore) Set(key, value string) error {
	s.lock.Lock()
	s.data[key] = value
	s.lock.Unlock()
	return nil
}

// SetAll implements Store.
func (s *MemStore) SetAll(values map[string]string) error {
	s.lock.Lock()
	for key, value := range values {
		s.data[key] = value
	}
	s.lock.Unlock()
	return nil
}

// Remove implements Store.
func (s *MemStore) Remove(key string) error {
	s.lock.Lock()
	delete(s.data, key)
	s.lock.Unlock()
	return nil
}

// Keys implements Store.
func (s *MemStore) Keys() ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return sortedKeys(s.data), nil
}

// Erase implements Store.
func (s *MemStore) Erase() error {
	s.lock.Lock()
	s.data = make(map[string]string)
	s.lock.Unlock()
	return nil
}
