// Package storage defines the content-addressed archive used to keep and
// replay benchmark payloads.
package storage

import "github.com/ipfs/go-cid"

// Store keeps payloads keyed by their raw sha2-256 CIDv1.
//
// Put is idempotent and stored payloads never change. Get returns
// ErrNotFound for an absent CID and ErrCIDMismatch if stored bytes no longer
// hash to their key.
type Store interface {
	Put(data []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Load fetches id from s and checks that it holds exactly size bytes.
func Load(s Store, id cid.Cid, size int) ([]byte, error) {
	data, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, &SizeError{ID: id, Want: size, Got: len(data)}
	}
	return data, nil
}
