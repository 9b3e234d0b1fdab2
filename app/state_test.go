package app

import (
	"testing"

	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/store/iavl"
	"github.com/iov-one/delphi/weavetest/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockStateCommit(t *testing.T) {
	tree := iavl.NewCommitStore("", "state")
	defer tree.Close()
	s, err := openState(tree)
	require.NoError(t, err)

	assert.Nil(t, s.deliver.Set([]byte("claim"), []byte("open")))
	assert.Nil(t, s.check.Set([]byte("mempool"), []byte("seen")))

	got, err := s.committed().Get([]byte("claim"))
	assert.Nil(t, err)
	assert.Nil(t, got)

	id, err := s.commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)

	got, err = s.committed().Get([]byte("claim"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("open"), got)

	// check writes never reach the tree
	got, err = s.check.Get([]byte("mempool"))
	assert.Nil(t, err)
	assert.Nil(t, got)

	last, err := s.version()
	require.NoError(t, err)
	assert.Equal(t, id.Version, last.Version)
}

func TestChainIDWrittenOnce(t *testing.T) {
	tree := iavl.NewCommitStore("", "state")
	defer tree.Close()
	s, err := openState(tree)
	require.NoError(t, err)

	id, err := readChainID(s.deliver)
	require.NoError(t, err)
	assert.Equal(t, "", id)

	assert.IsErr(t, errors.ErrInput, writeChainID(s.deliver, "x"))
	require.NoError(t, writeChainID(s.deliver, "delphi-test"))
	assert.IsErr(t, errors.ErrUnauthorized, writeChainID(s.deliver, "delphi-other"))

	id, err = readChainID(s.deliver)
	require.NoError(t, err)
	assert.Equal(t, "delphi-test", id)
}
