package nvs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DefaultCapacity is the default size limit of a FileStore in bytes.
const DefaultCapacity = 16 * 1024

// FileStore keeps all keys in one yaml document on disk. Every write
// replaces the document atomically, so a power loss leaves either the old
// or the new content.
type FileStore struct {
	Path     string
	Capacity int

	data    map[string]string
	corrupt error
	lock    sync.Mutex
}

// OpenFileStore loads the store at path. The directory must exist; a
// missing file is an empty store. A store with undecodable content is
// still returned together with an ErrCorrupt error: reads fail until
// Erase formats it again.
func OpenFileStore(path string, capacity int) (*FileStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &FileStore{Path: path, Capacity: capacity, data: make(map[string]string)}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		return nil, &StorageError{Op: "open", Err: errors.Wrapf(ErrUninitialized, "directory of %s", path)}
	}
	content, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err == nil {
		err = yaml.Unmarshal(content, &s.data)
	}
	if err != nil {
		s.corrupt = errors.Wrap(ErrCorrupt, err.Error())
		s.data = make(map[string]string)
		return s, &StorageError{Op: "open", Err: s.corrupt}
	}
	if s.data == nil {
		s.data = make(map[string]string)
	}
	glog.V(2).Infof("nvs: loaded %d keys from %s", len(s.data), path)
	return s, nil
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.corrupt != nil {
		return "", &StorageError{Op: "get", Key: key, Err: s.corrupt}
	}
	if value, ok := s.data[key]; ok {
		return value, nil
	}
	return "", &StorageError{Op: "get", Key: key, Err: ErrNotFound}
}

// Set implements Store.
func (s *FileStore) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.corrupt != nil {
		return &StorageError{Op: "set", Key: key, Err: s.corrupt}
	}
	if prev, ok := s.data[key]; ok && prev == value {
		return nil
	}
	data := s.copyData()
	data[key] = value
	if err := s.write(data); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	s.data = data
	return nil
}

// SetAll implements Store. All values are replaced by a single atomic
// rename.
func (s *FileStore) SetAll(values map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.corrupt != nil {
		return &StorageError{Op: "set", Err: s.corrupt}
	}
	data := s.copyData()
	for key, value := range values {
		data[key] = value
	}
	if err := s.write(data); err != nil {
		return &StorageError{Op: "set", Err: err}
	}
	s.data = data
	return nil
}

// Remove implements Store.
func (s *FileStore) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.corrupt != nil {
		return &StorageError{Op: "remove", Key: key, Err: s.corrupt}
	}
	if _, ok := s.data[key]; !ok {
		return nil
	}
	data := s.copyData()
	delete(data, key)
	if err := s.write(data); err != nil {
		return &StorageError{Op: "remove", Key: key, Err: err}
	}
	s.data = data
	return nil
}

// Keys implements Store.
func (s *FileStore) Keys() ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.corrupt != nil {
		return nil, &StorageError{Op: "keys", Err: s.corrupt}
	}
	return sortedKeys(s.data), nil
}

// Erase implements Store. It also recovers a corrupt store.
func (s *FileStore) Erase() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	data := make(map[string]string)
	if err := s.write(data); err != nil {
		return &StorageError{Op: "erase", Err: err}
	}
	s.data, s.corrupt = data, nil
	return nil
}

func (s *FileStore) copyData() map[string]string {
	data := make(map[string]string, len(s.data)+1)
	for k, v := range s.data {
		data[k] = v
	}
	return data
}

func (s *FileStore) write(data map[string]string) error {
	content, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	if len(content) > s.Capacity {
		return errors.Wrapf(ErrNoSpace, "%d bytes exceeds capacity %d", len(content), s.Capacity)
	}
	f, err := ioutil.TempFile(filepath.Dir(s.Path), filepath.Base(s.Path)+".tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := f.Name()
	_, err = f.Write(content)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, s.Path)
	}
	if err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "write %s", s.Path)
	}
	return nil
}
