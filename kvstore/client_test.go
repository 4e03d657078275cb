// ABOUTME: Tests for the kv client and typed entries
// ABOUTME: Runs against a temporary badger database
package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRoundTrip(t *testing.T) {
	c := NewTestClient(t)

	_, err := c.Get([]byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set([]byte("a"), []byte("1")))
	v, err := c.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a")}, keys)

	require.NoError(t, c.Delete([]byte("a")))
	require.NoError(t, c.Delete([]byte("a")))
	_, err = c.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, c.Sync())
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, c.Set([]byte("k"), []byte("v")))
	require.NoError(t, c.Close())

	c, err = Open(Config{Dir: dir})
	require.NoError(t, err)
	defer c.Close()

	v, err := c.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

type profile struct {
	Name string `json:"name"`
}

func TestEntry(t *testing.T) {
	c := NewTestClient(t)
	e := NewEntry[profile](c, "test/profile")

	got, err := e.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, e.Save(&profile{Name: "Ann"}))
	got, err = e.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ann", got.Name)

	require.NoError(t, e.Save(nil))
	got, err = e.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEntryDiscardsCorruptValue(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, c.Set([]byte(KeySessionUser), []byte("{not json")))

	e := NewEntry[profile](c, KeySessionUser)
	got, err := e.Load()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Nil(t, got)

	got, err = e.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}
