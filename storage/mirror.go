package storage

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/base32768/cidutil"
)

var errNoArchives = errors.New("archive: mirror has no archives")

// Named pairs a Store with a name used in errors and logs.
type Named struct {
	Name  string
	Store Store
}

// Mirror writes every payload to all of its archives and reads from the
// first one that has it. Order is fixed by the slice.
type Mirror struct {
	Archives []Named
}

var _ Store = Mirror{}

// Put stores data in every archive. Each archive must return the CID
// computed from data, otherwise ErrCIDMismatch is returned.
func (m Mirror) Put(data []byte) (cid.Cid, error) {
	if len(m.Archives) == 0 {
		return cid.Undef, errNoArchives
	}
	want, err := cidutil.Fingerprint(data)
	if err != nil {
		return cid.Undef, err
	}
	for _, a := range m.Archives {
		if a.Store == nil {
			return cid.Undef, fmt.Errorf("archive: nil store %q", a.Name)
		}
		got, err := a.Store.Put(data)
		if err != nil {
			return cid.Undef, fmt.Errorf("archive %s: %w", a.Name, err)
		}
		if got != want {
			return cid.Undef, fmt.Errorf("archive %s: %w", a.Name, ErrCIDMismatch)
		}
	}
	return want, nil
}

// Get returns the payload from the first archive holding it. Errors other
// than ErrNotFound stop the search.
func (m Mirror) Get(id cid.Cid) ([]byte, error) {
	for _, a := range m.Archives {
		if a.Store == nil {
			continue
		}
		data, err := a.Store.Get(id)
		if err == nil {
			return data, nil
		}
		if !IsNotFound(err) {
			return nil, fmt.Errorf("archive %s: %w", a.Name, err)
		}
	}
	return nil, ErrNotFound
}

func (m Mirror) Has(id cid.Cid) bool {
	for _, a := range m.Archives {
		if a.Store != nil && a.Store.Has(id) {
			return true
		}
	}
	return false
}
