package cidutil

import (
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func TestFingerprintMatchesHasher(t *testing.T) {
	data := []byte(strings.Repeat("base32768 ", 1000))
	want, err := Fingerprint(data)
	require.NoError(t, err)
	require.Equal(t, want.String(), String(data))

	h := NewHasher()
	for i := 0; i < len(data); i += 333 {
		_, err := h.Write(data[i:min(i+333, len(data))])
		require.NoError(t, err)
	}
	got, err := h.Sum()
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, int64(len(data)), h.Len())
}

func TestEmptyFingerprint(t *testing.T) {
	// Well-known CID of the empty raw block.
	require.Equal(t, "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku", String(nil))
}

func TestParse(t *testing.T) {
	s := String([]byte("hello"))
	id, err := Parse(s)
	require.NoError(t, err)
	require.Equal(t, s, id.String())

	_, err = Parse("not-a-cid")
	require.Error(t, err)

	sum, err := multihash.Sum([]byte("hello"), multihash.SHA2_256, -1)
	require.NoError(t, err)
	dagPB := cid.NewCidV1(cid.DagProtobuf, sum)
	_, err = Parse(dagPB.String())
	require.ErrorIs(t, err, ErrUnsupported)
}
