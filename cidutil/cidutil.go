// Package cidutil fingerprints payloads and codec output as CIDv1 values
// (raw multicodec, sha2-256 multihash).
package cidutil

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ErrUnsupported is returned by Parse for a CID that is not raw sha2-256.
var ErrUnsupported = errors.New("cidutil: not a raw sha2-256 cid")

// Fingerprint returns the CIDv1 (raw + sha2-256) of data.
func Fingerprint(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String returns the CIDv1 string of data, or "" if it cannot be computed.
func String(data []byte) string {
	id, err := Fingerprint(data)
	if err != nil {
		// multihash.Sum only fails for unknown codes or bad lengths.
		return ""
	}
	return id.String()
}

// Parse decodes s and checks that it names raw sha2-256 content.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("parse cid %q: %w", s, err)
	}
	prefix := id.Prefix()
	if prefix.Codec != cid.Raw || prefix.MhType != multihash.SHA2_256 {
		return cid.Undef, fmt.Errorf("%w: %s", ErrUnsupported, s)
	}
	return id, nil
}

// Hasher fingerprints a stream. The zero value is not usable; use NewHasher.
type Hasher struct {
	h hash.Hash
	n int64
}

func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (h *Hasher) Write(p []byte) (int, error) {
	h.n += int64(len(p))
	return h.h.Write(p)
}

// Len returns the number of bytes written.
func (h *Hasher) Len() int64 { return h.n }

// Sum returns the CID of everything written so far.
func (h *Hasher) Sum() (cid.Cid, error) {
	mh, err := multihash.Encode(h.h.Sum(nil), multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}
