package storage_test

import (
	"errors"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"xdao.co/base32768/cidutil"
	"xdao.co/base32768/storage"
	"xdao.co/base32768/storage/testkit"
)

func TestMirrorConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(*testing.T) storage.Store {
		return storage.Mirror{Archives: []storage.Named{
			{Name: "a", Store: testkit.NewMemory()},
			{Name: "b", Store: testkit.NewMemory()},
		}}
	})
}

func TestMirrorWritesAllReadsInOrder(t *testing.T) {
	a, b := testkit.NewMemory(), testkit.NewMemory()
	m := storage.Mirror{Archives: []storage.Named{{Name: "a", Store: a}, {Name: "b", Store: b}}}

	id, err := m.Put([]byte("payload"))
	require.NoError(t, err)
	require.True(t, a.Has(id))
	require.True(t, b.Has(id))

	only, err := b.Put([]byte("only in b"))
	require.NoError(t, err)
	got, err := m.Get(only)
	require.NoError(t, err)
	require.Equal(t, "only in b", string(got))
	require.True(t, m.Has(only))
}

func TestMirrorEmpty(t *testing.T) {
	_, err := storage.Mirror{}.Put([]byte("x"))
	require.Error(t, err)

	id, err := cidutil.Fingerprint([]byte("x"))
	require.NoError(t, err)
	_, err = storage.Mirror{}.Get(id)
	require.True(t, storage.IsNotFound(err))
}

type liar struct{ storage.Store }

func (liar) Put([]byte) (cid.Cid, error) { return cidutil.Fingerprint([]byte("other")) }

type broken struct{ storage.Store }

var errDisk = errors.New("disk on fire")

func (broken) Get(cid.Cid) ([]byte, error) { return nil, errDisk }

func TestMirrorErrors(t *testing.T) {
	m := storage.Mirror{Archives: []storage.Named{{Name: "liar", Store: liar{testkit.NewMemory()}}}}
	_, err := m.Put([]byte("x"))
	require.ErrorIs(t, err, storage.ErrCIDMismatch)

	good := testkit.NewMemory()
	id, err := good.Put([]byte("x"))
	require.NoError(t, err)
	m = storage.Mirror{Archives: []storage.Named{
		{Name: "broken", Store: broken{testkit.NewMemory()}},
		{Name: "good", Store: good},
	}}
	_, err = m.Get(id)
	require.ErrorIs(t, err, errDisk)
}
