// Package localfs stores payloads as files in a directory, sharded by the
// first two characters of their CID.
package localfs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
	"go.uber.org/multierr"

	"xdao.co/base32768/cidutil"
	"xdao.co/base32768/storage"
)

var _ storage.Store = (*Archive)(nil)

// Archive is a directory-backed storage.Store. It never touches the network.
type Archive struct {
	root string
}

// New opens the archive at root, creating the directory if needed.
func New(root string) (*Archive, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Archive{root: root}, nil
}

func (a *Archive) Put(data []byte) (cid.Cid, error) {
	id, err := cidutil.Fingerprint(data)
	if err != nil {
		return cid.Undef, err
	}

	path := a.pathFor(id)
	if _, err := os.Stat(path); err == nil {
		existing, err := a.Get(id)
		if err != nil || !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}
	if err := writeFile(path, data); err != nil {
		return cid.Undef, fmt.Errorf("localfs: store %s: %w", id, err)
	}
	return id, nil
}

// writeFile writes data to a temporary file next to path and renames it into
// place, so a crash never leaves a partial payload under its CID.
func writeFile(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	err = multierr.Append(err, f.Close())
	if err == nil {
		err = os.Chmod(tmp, 0o444)
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (a *Archive) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	b, err := os.ReadFile(a.pathFor(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	got, err := cidutil.Fingerprint(b)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (a *Archive) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(a.pathFor(id))
	return err == nil
}

func (a *Archive) pathFor(id cid.Cid) string {
	s := id.String()
	if len(s) < 2 {
		return filepath.Join(a.root, s)
	}
	return filepath.Join(a.root, s[:2], s)
}
