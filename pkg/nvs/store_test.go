package nvs

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "nvs")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func openStores(t *testing.T) map[string]Store {
	fs, err := OpenFileStore(filepath.Join(tempDir(t), "nvs.yml"), 0)
	require.NoError(t, err)
	return map[string]Store{
		"mem":  NewMemStore(),
		"file": fs,
	}
}

func TestStoreBasics(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("a")
			require.Error(t, err)
			assert.True(t, IsNotFound(err))

			require.NoError(t, store.Set("a", "1"))
			require.NoError(t, store.Set("b", "2"))
			val, err := store.Get("a")
			require.NoError(t, err)
			assert.Equal(t, "1", val)

			keys, err := store.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)

			require.NoError(t, store.Remove("a"))
			require.NoError(t, store.Remove("a"))
			_, err = store.Get("a")
			assert.True(t, IsNotFound(err))

			require.NoError(t, store.Erase())
			keys, err = store.Keys()
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestNamespace(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Set("other.ssid", "keep"))
	ns := Namespace(store, "wifi")
	require.NoError(t, ns.Set("ssid", "net1"))
	require.NoError(t, ns.Set("password", "pw123456"))

	val, err := store.Get("wifi.ssid")
	require.NoError(t, err)
	assert.Equal(t, "net1", val)

	keys, err := ns.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"password", "ssid"}, keys)

	require.NoError(t, ns.Erase())
	keys, err = store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"other.ssid"}, keys)
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(tempDir(t), "nvs.yml")
	s, err := OpenFileStore(path, 0)
	require.NoError(t, err)
	require.NoError(t, s.Set("wifi.ssid", "net1"))

	reopened, err := OpenFileStore(path, 0)
	require.NoError(t, err)
	val, err := reopened.Get("wifi.ssid")
	require.NoError(t, err)
	assert.Equal(t, "net1", val)

	files, err := ioutil.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1, "temp files must not be left behind")
}

func TestFileStoreUninitialized(t *testing.T) {
	_, err := OpenFileStore(filepath.Join(tempDir(t), "missing", "nvs.yml"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUninitialized))
	var storageErr *StorageError
	assert.True(t, errors.As(err, &storageErr))
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(tempDir(t), "nvs.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte("- not\n- a map\n"), 0644))

	s, err := OpenFileStore(path, 0)
	require.Error(t, err)
	require.NotNil(t, s)
	assert.True(t, errors.Is(err, ErrCorrupt))

	_, err = s.Get("a")
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.True(t, errors.Is(s.Set("a", "1"), ErrCorrupt))

	require.NoError(t, s.Erase())
	require.NoError(t, s.Set("a", "1"))
	val, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", val)
}

func TestFileStoreNoSpace(t *testing.T) {
	path := filepath.Join(tempDir(t), "nvs.yml")
	s, err := OpenFileStore(path, 32)
	require.NoError(t, err)
	require.NoError(t, s.Set("a", "1"))

	err = s.Set("b", strings.Repeat("x", 64))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSpace))

	_, err = s.Get("b")
	assert.True(t, IsNotFound(err), "failed write must not be visible")
	val, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", val)
}

func TestSetAll(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set("a", "0"))
			ns := Namespace(store, "wifi")
			require.NoError(t, ns.SetAll(map[string]string{"ssid": "net1", "password": "pw123456"}))
			keys, err := store.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "wifi.password", "wifi.ssid"}, keys)
			val, err := ns.Get("ssid")
			require.NoError(t, err)
			assert.Equal(t, "net1", val)
		})
	}
}

func TestFileStoreSetAllNoSpace(t *testing.T) {
	path := filepath.Join(tempDir(t), "nvs.yml")
	s, err := OpenFileStore(path, 48)
	require.NoError(t, err)
	require.NoError(t, s.SetAll(map[string]string{"a": "1", "b": "2"}))

	err = s.SetAll(map[string]string{"a": "3", "b": strings.Repeat("x", 64)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSpace))

	reopened, err := OpenFileStore(path, 48)
	require.NoError(t, err)
	for key, want := range map[string]string{"a": "1", "b": "2"} {
		val, err := reopened.Get(key)
		require.NoError(t, err)
		assert.Equal(t, want, val)
	}
}
