package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	newStore func() Store
}

func (s *StoreSuite) TestMissingKey() {
	store := s.newStore()
	v, ok, err := store.Get(context.Background(), KeyCart)
	s.Require().NoError(err)
	s.False(ok)
	s.Nil(v)
}

func (s *StoreSuite) TestSetGetOverwrite() {
	ctx := context.Background()
	store := s.newStore()
	s.Require().NoError(store.Set(ctx, KeyAuthToken, []byte("one")))
	s.Require().NoError(store.Set(ctx, KeyAuthToken, []byte("two")))

	v, ok, err := store.Get(ctx, KeyAuthToken)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("two", string(v))
}

func (s *StoreSuite) TestRemoveIsIdempotent() {
	ctx := context.Background()
	store := s.newStore()
	s.Require().NoError(store.Set(ctx, KeyCart, []byte("[]")))
	s.Require().NoError(store.Remove(ctx, KeyCart))
	s.Require().NoError(store.Remove(ctx, KeyCart))

	_, ok, err := store.Get(ctx, KeyCart)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StoreSuite) TestReturnedBytesAreDetached() {
	ctx := context.Background()
	store := s.newStore()
	s.Require().NoError(store.Set(ctx, KeyCart, []byte("abc")))
	v, _, _ := store.Get(ctx, KeyCart)
	v[0] = 'x'
	again, _, _ := store.Get(ctx, KeyCart)
	s.Equal("abc", string(again))
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() Store { return NewMemoryStore() }})
}

func TestFileStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() Store {
		fs, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		return fs
	}})
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Set(ctx, KeyAuthToken, []byte("tok")))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", string(v))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KeyAuthToken+".json", filepath.Base(entries[0].Name()))
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, fs.Set(context.Background(), "../escape", []byte("x")))
}
