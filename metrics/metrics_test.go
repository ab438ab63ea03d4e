package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.ObserveLoad(250 * time.Millisecond)
	m.ObservePayload(1_000_000)
	m.ObserveCodec("optimized_encode", 3*time.Millisecond, 100)

	require.InDelta(t, 0.25, testutil.ToFloat64(m.loadDuration), 1e-9)
	require.InDelta(t, 1e6, testutil.ToFloat64(m.payloadBytes), 0)
	require.InDelta(t, 0.003, testutil.ToFloat64(m.iterDuration.WithLabelValues("optimized_encode")), 1e-9)
	require.InDelta(t, 100, testutil.ToFloat64(m.iterations.WithLabelValues("optimized_encode")), 0)
	n, err := testutil.GatherAndCount(m.Registry(), "base32768_iterations", "base32768_payload_bytes")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestWriteFile(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.ObserveCodec("jasper_encode", time.Millisecond, 100)

	path := filepath.Join(t.TempDir(), "bench.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `base32768_iteration_duration_seconds{codec="jasper_encode"} 0.001`)
}
