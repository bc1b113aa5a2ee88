// Package credentials persists the station credentials of the device.
package credentials

import (
	"sync"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/nvs"
)

// Namespace and keys of the persisted layout.
const (
	Namespace   = "wifi"
	KeySSID     = "ssid"
	KeyPassword = "password"
)

// Store is the durable credential store.
type Store struct {
	medium nvs.Store
	lock   sync.Mutex
}

// NewStore creates a Store in the credential namespace of medium.
func NewStore(medium nvs.Store) *Store {
	return &Store{medium: nvs.Namespace(medium, Namespace)}
}

// Get returns the stored credential. ok is false when either field is
// absent. err is a *nvs.StorageError for medium failures other than a
// missing key.
func (s *Store) Get() (creds api.WifiCredentials, ok bool, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if creds.SSID, err = s.medium.Get(KeySSID); err != nil {
		return api.WifiCredentials{}, false, ignoreNotFound(err)
	}
	if creds.Password, err = s.medium.Get(KeyPassword); err != nil {
		return api.WifiCredentials{}, false, ignoreNotFound(err)
	}
	return creds, true, nil
}

// Set stores the credential. Both fields are written together; on failure
// the previous credential stays in place.
func (s *Store) Set(creds api.WifiCredentials) error {
	return s.Update(creds, nil)
}

// Update stores the credential and calls applied, if not nil, while still
// holding the store lock. Concurrent writers observe applied in the same
// order as the medium writes.
func (s *Store) Update(creds api.WifiCredentials, applied func(api.WifiCredentials)) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	err := s.medium.SetAll(map[string]string{
		KeySSID:     creds.SSID,
		KeyPassword: creds.Password,
	})
	if err != nil {
		return err
	}
	if applied != nil {
		applied(creds)
	}
	return nil
}

// Erase removes the credential.
func (s *Store) Erase() error {
	return s.EraseThen(nil)
}

// EraseThen removes the credential and calls erased, if not nil, while
// still holding the store lock.
func (s *Store) EraseThen(erased func()) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.medium.Erase(); err != nil {
		return err
	}
	if erased != nil {
		erased()
	}
	return nil
}

func ignoreNotFound(err error) error {
	if nvs.IsNotFound(err) {
		return nil
	}
	return err
}
