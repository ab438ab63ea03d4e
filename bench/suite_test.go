package bench

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"xdao.co/base32768/lookup"
	"xdao.co/base32768/metrics"
	"xdao.co/base32768/textconv"
)

// countingConverter counts conversions made through it.
type countingConverter struct {
	textconv.Chunked
	toString, toUnits int
}

func (c *countingConverter) UnitsToString(units []uint16) string {
	c.toString++
	return c.Chunked.UnitsToString(units)
}

func (c *countingConverter) StringToUnits(s string, dst []uint16) int {
	c.toUnits++
	return c.Chunked.StringToUnits(s, dst)
}

func randomPayload(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func TestTestCodecsOutput(t *testing.T) {
	var out bytes.Buffer
	s := NewSuite(textconv.New(),
		WithOutput(&out),
		WithClock(newStepClock(time.Millisecond)),
		WithIterations(2),
	)
	require.NoError(t, s.TestCodecs(randomPayload(t, 4000)))

	want := strings.Join([]string{
		"Runtimes:",
		"Jasper encode:    0.500ms/iter",
		"Jasper decode:    0.500ms/iter",
		"Optimized encode: 0.500ms/iter",
		"Optimized decode: 0.500ms/iter",
		"Pipebuf encode: 0.500ms/iter",
		"Pipebuf encode using JsString::from: 0.500ms/iter",
		"Pipebuf encode using UTF8 and JsString::from: 0.500ms/iter",
		"Pipebuf decode: 0.500ms/iter",
		"",
	}, "\n")
	require.Equal(t, want, out.String())
}

func TestRunPayloadSizes(t *testing.T) {
	for _, n := range []int{0, 1, 14, 15, 16, 29, 30, 31, 2047, 2048, 2049, 5000} {
		s := NewSuite(textconv.New(), WithIterations(1))
		report, err := s.Run(randomPayload(t, n))
		require.NoError(t, err, "n=%d", n)
		require.Len(t, report, len(benchmarks))
		for _, r := range report {
			require.Equal(t, 1, r.Iterations)
			require.GreaterOrEqual(t, r.Elapsed, time.Duration(0))
		}
	}
}

func TestRunUsesInjectedConverter(t *testing.T) {
	conv := &countingConverter{Chunked: textconv.New()}
	s := NewSuite(conv, WithIterations(3))
	_, err := s.Run(randomPayload(t, 3000))
	require.NoError(t, err)
	require.Positive(t, conv.toString)
	require.Positive(t, conv.toUnits)
}

func TestRunLeavesPayloadAlone(t *testing.T) {
	payload := randomPayload(t, 1000)
	before := bytes.Clone(payload)
	_, err := NewSuite(textconv.New(), WithIterations(1)).Run(payload)
	require.NoError(t, err)
	require.Equal(t, before, payload)
}

func TestRunRecordsMetricsAndLogs(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)
	core, logs := observer.New(zap.DebugLevel)

	s := NewSuite(textconv.New(),
		WithIterations(1),
		WithMetrics(m),
		WithLogger(zap.New(core)),
	)
	_, err = s.Run(randomPayload(t, 100))
	require.NoError(t, err)

	require.Equal(t, len(benchmarks), logs.FilterMessage("benchmark finished").Len())
	n, err := testutil.GatherAndCount(m.Registry(), "base32768_iteration_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, len(benchmarks), n)
}

func TestLoadSuiteLogsTableBuild(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	codecs, err := LoadSuite(WithLogger(zap.New(core)))(textconv.New())
	require.NoError(t, err)
	require.IsType(t, &Suite{}, codecs)

	entries := logs.FilterMessage("lookup tables ready").All()
	require.Len(t, entries, 1)
	require.Equal(t, lookup.Load(), entries[0].ContextMap()["build"])
}

func TestResultMath(t *testing.T) {
	r := Result{Elapsed: 150 * time.Millisecond, Iterations: 100}
	require.InDelta(t, 1.5, r.MillisPerIter(), 1e-9)
	require.Equal(t, 1500*time.Microsecond, r.PerIter())
	require.Zero(t, Result{}.MillisPerIter())
	require.Zero(t, Result{}.PerIter())
}

func TestSlices(t *testing.T) {
	data := randomPayload(t, 10_000)
	slices := Slices(data, SliceSeed)

	var joined []byte
	for _, s := range slices {
		require.GreaterOrEqual(t, len(s), 1)
		require.LessOrEqual(t, len(s), 19)
		joined = append(joined, s...)
	}
	require.Equal(t, data, joined)

	again := Slices(data, SliceSeed)
	require.Equal(t, len(slices), len(again))
	for i := range slices {
		require.Equal(t, len(slices[i]), len(again[i]))
	}
	require.Empty(t, Slices(nil, SliceSeed))
}

func TestSeededPayload(t *testing.T) {
	a := SeededPayload(1001, SliceSeed)
	require.Len(t, a, 1001)
	require.Equal(t, a, SeededPayload(1001, SliceSeed))
	require.Equal(t, a[:500], SeededPayload(500, SliceSeed))
	require.NotEqual(t, a, SeededPayload(1001, SliceSeed+1))
	require.Empty(t, SeededPayload(0, SliceSeed))
}
