package storage

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

var (
	ErrNotFound    = errors.New("archive: payload not found")
	ErrInvalidCID  = errors.New("archive: invalid cid")
	ErrCIDMismatch = errors.New("archive: stored bytes do not match cid")
	ErrImmutable   = errors.New("archive: stored payload differs from new bytes")
)

// SizeError reports an archived payload of the wrong length.
type SizeError struct {
	ID   cid.Cid
	Want int
	Got  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("archive: payload %s has %d bytes, want %d", e.ID, e.Got, e.Want)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
