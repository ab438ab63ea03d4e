// Package testkit holds a conformance suite for storage.Store
// implementations and an in-memory Store for tests.
package testkit

import (
	"bytes"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"xdao.co/base32768/cidutil"
	"xdao.co/base32768/storage"
)

// NewStore returns a fresh, empty store for one test.
type NewStore func(t *testing.T) storage.Store

// RunStoreConformance checks the storage.Store contract.
func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := bytes.Repeat([]byte{0x5a, 0xa5, 0x00}, 40_000)

		id, err := s.Put(want)
		require.NoError(t, err)
		wantID, err := cidutil.Fingerprint(want)
		require.NoError(t, err)
		require.Equal(t, wantID, id)

		got, err := s.Get(id)
		require.NoError(t, err)
		require.Equal(t, want, got)

		got, err = storage.Load(s, id, len(want))
		require.NoError(t, err)
		require.Equal(t, want, got)

		_, err = storage.Load(s, id, len(want)+1)
		var sizeErr *storage.SizeError
		require.ErrorAs(t, err, &sizeErr)
		require.Equal(t, len(want), sizeErr.Got)
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		b := []byte("same payload")
		id1, err := s.Put(b)
		require.NoError(t, err)
		id2, err := s.Put(b)
		require.NoError(t, err)
		require.Equal(t, id1, id2)
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		b := []byte("missing")
		id, err := cidutil.Fingerprint(b)
		require.NoError(t, err)

		require.False(t, s.Has(id))
		_, err = s.Get(id)
		require.True(t, storage.IsNotFound(err), "got %v", err)

		_, err = s.Put(b)
		require.NoError(t, err)
		require.True(t, s.Has(id))
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		s := newStore(t)
		require.False(t, s.Has(cid.Undef))
		_, err := s.Get(cid.Undef)
		require.Error(t, err)
	})
}

// Memory is an in-memory storage.Store.
type Memory struct {
	mu      sync.Mutex
	objects map[cid.Cid][]byte
	puts    int
}

var _ storage.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{objects: make(map[cid.Cid][]byte)}
}

func (m *Memory) Put(data []byte) (cid.Cid, error) {
	id, err := cidutil.Fingerprint(data)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if existing, ok := m.objects[id]; ok {
		if !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	m.objects[id] = bytes.Clone(data)
	return id, nil
}

func (m *Memory) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(b), nil
}

func (m *Memory) Has(id cid.Cid) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id]
	return ok
}

// Puts returns how many times Put was called.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
