package bench

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"
	"unicode/utf16"

	"go.uber.org/zap"

	"xdao.co/base32768/alternative"
	"xdao.co/base32768/base32768"
	"xdao.co/base32768/metrics"
	"xdao.co/base32768/pipebuf"
	"xdao.co/base32768/pipeline"
	"xdao.co/base32768/textconv"
)

// DefaultIterations is how many times each benchmark repeats its work.
const DefaultIterations = 100

const (
	decoderSize = base32768.DefaultDecoderSize
	// pipebufEncodeBytes is the byte buffer of the plain pipe buffer encoder.
	pipebufEncodeBytes = 960
	// pipebufCapacity sizes both buffers of the converting encoders.
	pipebufCapacity = 2048
	// stringSinkSize is the pending buffer used to build encoded test input.
	stringSinkSize = 1024
)

var errRoundTrip = errors.New("decoded bytes differ from payload")

// Result is the timing of one benchmark.
type Result struct {
	// Label prefixes the printed line, padding included.
	Label      string
	Codec      string
	Elapsed    time.Duration
	Iterations int
}

// MillisPerIter returns the mean iteration time in milliseconds.
func (r Result) MillisPerIter() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.Elapsed) / float64(time.Millisecond) / float64(r.Iterations)
}

// PerIter returns the mean iteration time.
func (r Result) PerIter() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(r.Iterations)
}

// Report holds the results of a suite run in execution order.
type Report []Result

// Print writes the runtimes block.
func (r Report) Print(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Runtimes:\n")
	for _, res := range r {
		fmt.Fprintf(&b, "%s%.3fms/iter\n", res.Label, res.MillisPerIter())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Suite times every base32768 implementation over one payload. All string
// building goes through the Converter it is given.
type Suite struct {
	conv       textconv.Converter
	out        io.Writer
	log        *zap.Logger
	metrics    *metrics.Metrics
	clock      Clock
	iterations int
}

type Option func(*Suite)

// WithOutput sets where TestCodecs prints. The default is os.Stdout.
func WithOutput(w io.Writer) Option { return func(s *Suite) { s.out = w } }

func WithLogger(l *zap.Logger) Option { return func(s *Suite) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Suite) { s.metrics = m } }

func WithClock(c Clock) Option { return func(s *Suite) { s.clock = c } }

// WithIterations overrides DefaultIterations. Values below 1 are ignored.
func WithIterations(n int) Option {
	return func(s *Suite) {
		if n > 0 {
			s.iterations = n
		}
	}
}

func NewSuite(conv textconv.Converter, opts ...Option) *Suite {
	s := &Suite{
		conv:       conv,
		out:        os.Stdout,
		log:        zap.NewNop(),
		clock:      SystemClock{},
		iterations: DefaultIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type benchmark struct {
	label string
	codec string
	run   func(s *Suite, payload []byte) (time.Duration, error)
}

var benchmarks = []benchmark{
	{"Jasper encode:    ", "jasper_encode", (*Suite).jasperEncode},
	{"Jasper decode:    ", "jasper_decode", (*Suite).jasperDecode},
	{"Optimized encode: ", "optimized_encode", (*Suite).optimizedEncode},
	{"Optimized decode: ", "optimized_decode", (*Suite).optimizedDecode},
	{"Pipebuf encode: ", "pipebuf_encode", (*Suite).pipebufEncode},
	{"Pipebuf encode using JsString::from: ", "pipebuf_encode_string", (*Suite).pipebufEncodeString},
	{"Pipebuf encode using UTF8 and JsString::from: ", "pipebuf_encode_utf8", (*Suite).pipebufEncodeUTF8},
	{"Pipebuf decode: ", "pipebuf_decode", (*Suite).pipebufDecode},
}

// TestCodecs runs every benchmark over payload and prints the runtimes.
func (s *Suite) TestCodecs(payload []byte) error {
	report, err := s.Run(payload)
	if err != nil {
		return err
	}
	return report.Print(s.out)
}

// Run runs every benchmark over a private copy of payload.
func (s *Suite) Run(payload []byte) (Report, error) {
	local := bytes.Clone(payload)
	report := make(Report, 0, len(benchmarks))
	for _, b := range benchmarks {
		elapsed, err := b.run(s, local)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.codec, err)
		}
		res := Result{Label: b.label, Codec: b.codec, Elapsed: elapsed, Iterations: s.iterations}
		s.log.Debug("benchmark finished",
			zap.String("codec", b.codec),
			zap.Duration("perIter", res.PerIter()),
			zap.Int("iterations", s.iterations),
		)
		if s.metrics != nil {
			s.metrics.ObserveCodec(b.codec, res.PerIter(), s.iterations)
		}
		report = append(report, res)
	}
	return report, nil
}

// repeat times s.iterations calls of fn.
func (s *Suite) repeat(fn func() error) (time.Duration, error) {
	start := s.clock.Time()
	for i := 0; i < s.iterations; i++ {
		if err := fn(); err != nil {
			return 0, err
		}
	}
	return since(s.clock, start), nil
}

func checkRoundTrip(got, want []byte) error {
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: got %d bytes, want %d", errRoundTrip, len(got), len(want))
	}
	return nil
}

// toUnits copies s into dst and checks nothing was cut off.
func (s *Suite) toUnits(str string, dst []uint16) error {
	if n := s.conv.StringToUnits(str, dst); n != len(dst) {
		return fmt.Errorf("converted %d of %d code units", n, len(dst))
	}
	return nil
}

func (s *Suite) jasperEncode(payload []byte) (time.Duration, error) {
	return s.repeat(func() error {
		units := alternative.Encode(payload)
		runtime.KeepAlive(s.conv.UnitsToString(units))
		return nil
	})
}

func (s *Suite) jasperDecode(payload []byte) (time.Duration, error) {
	encoded := s.conv.UnitsToString(alternative.Encode(payload))
	units := make([]uint16, textconv.UTF16Len(encoded))

	if err := s.toUnits(encoded, units); err != nil {
		return 0, err
	}
	if err := checkRoundTrip(alternative.Decode(units), payload); err != nil {
		return 0, err
	}

	return s.repeat(func() error {
		if err := s.toUnits(encoded, units); err != nil {
			return err
		}
		runtime.KeepAlive(alternative.Decode(units))
		return nil
	})
}

func (s *Suite) optimizedEncode(payload []byte) (time.Duration, error) {
	slices := Slices(payload, SliceSeed)
	output := base32768.NewUnitBuffer(base32768.EncodedLen(len(payload)))
	enc := base32768.NewEncoder(output)
	return s.repeat(func() error {
		enc.Reset(output)
		for _, slice := range slices {
			if _, err := enc.Write(slice); err != nil {
				return err
			}
		}
		if err := enc.Close(); err != nil {
			return err
		}
		runtime.KeepAlive(s.conv.UnitsToString(output.Units()))
		output.Reset()
		return nil
	})
}

func (s *Suite) optimizedDecode(payload []byte) (time.Duration, error) {
	sink := base32768.NewStringSink(s.conv, stringSinkSize)
	enc := base32768.NewEncoder(sink)
	if _, err := enc.Write(payload); err != nil {
		return 0, err
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	encoded := sink.String()

	units := make([]uint16, textconv.UTF16Len(encoded))
	dec, err := base32768.NewDecoderSize(nil, decoderSize)
	if err != nil {
		return 0, err
	}
	var decoded bytes.Buffer
	decoded.Grow(len(payload))

	once := func() error {
		decoded.Reset()
		if err := s.toUnits(encoded, units); err != nil {
			return err
		}
		dec.Reset(base32768.NewUnitSlice(units))
		_, err := dec.WriteTo(&decoded)
		return err
	}
	if err := once(); err != nil {
		return 0, err
	}
	if err := checkRoundTrip(decoded.Bytes(), payload); err != nil {
		return 0, err
	}
	return s.repeat(once)
}

func (s *Suite) pipebufEncode(payload []byte) (time.Duration, error) {
	slices := Slices(payload, SliceSeed)
	bytesBuf := pipebuf.NewFixed[byte](pipebufEncodeBytes)
	unitsBuf := pipebuf.New[uint16]()

	var output string
	sink := func(rd pipebuf.Rd[uint16]) bool {
		if !rd.ConsumePush() && !rd.HasPendingEOF() {
			return false
		}
		output = s.conv.UnitsToString(rd.Data())
		rd.Consume(rd.Len())
		rd.ConsumeEOF()
		return true
	}

	return s.repeat(func() error {
		w := pipeline.NewEncoder(sink, bytesBuf, unitsBuf)
		for _, slice := range slices {
			if _, err := w.Write(slice); err != nil {
				return err
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
		runtime.KeepAlive(output)
		output = ""
		bytesBuf.Reset()
		unitsBuf.Reset()
		return nil
	})
}

func (s *Suite) pipebufEncodeString(payload []byte) (time.Duration, error) {
	bytesBuf := pipebuf.NewFixed[byte](pipebufCapacity)
	unitsBuf := pipebuf.NewFixed[uint16](pipebufCapacity)

	var output strings.Builder
	sink := func(rd pipebuf.Rd[uint16]) bool {
		if !rd.ConsumePush() && !rd.HasPendingEOF() && rd.Len() < pipebufCapacity/2 {
			return false
		}
		output.WriteString(string(utf16.Decode(rd.Data())))
		rd.Consume(rd.Len())
		rd.ConsumeEOF()
		return true
	}

	return s.repeat(func() error {
		w := pipeline.NewEncoder(sink, bytesBuf, unitsBuf)
		if _, err := w.Write(payload); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		runtime.KeepAlive(output.String())
		output.Reset()
		bytesBuf.Reset()
		unitsBuf.Reset()
		return nil
	})
}

func (s *Suite) pipebufEncodeUTF8(payload []byte) (time.Duration, error) {
	bytesBuf := pipebuf.NewFixed[byte](pipebufCapacity)
	textBuf := pipebuf.NewFixed[byte](pipebufCapacity)

	var output strings.Builder
	sink := func(rd pipebuf.Rd[byte]) bool {
		if !rd.ConsumePush() && !rd.HasPendingEOF() && rd.Len() < 3*pipebufCapacity/4 {
			return false
		}
		output.Write(rd.Data())
		rd.Consume(rd.Len())
		rd.ConsumeEOF()
		return true
	}

	return s.repeat(func() error {
		w := pipeline.NewUTF8Encoder(sink, bytesBuf, textBuf)
		if _, err := w.Write(payload); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		runtime.KeepAlive(output.String())
		output.Reset()
		bytesBuf.Reset()
		textBuf.Reset()
		return nil
	})
}

func (s *Suite) pipebufDecode(payload []byte) (time.Duration, error) {
	unitsBuf := pipebuf.New[uint16]()
	u15sBuf := pipebuf.New[uint16]()
	bytesBuf := pipebuf.New[byte]()

	var encoded strings.Builder
	sink := func(rd pipebuf.Rd[uint16]) bool {
		if !rd.ConsumePush() && !rd.HasPendingEOF() {
			return false
		}
		encoded.WriteString(s.conv.UnitsToString(rd.Data()))
		rd.Consume(rd.Len())
		rd.ConsumeEOF()
		return true
	}
	w := pipeline.NewEncoder(sink, pipebuf.New[byte](), unitsBuf)
	if _, err := w.Write(payload); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	unitsBuf.Reset()
	text := encoded.String()
	total := textconv.UTF16Len(text)

	var output bytes.Buffer
	output.Grow(len(payload))
	once := func() error {
		rest, remaining := text, total
		source := func(wr pipebuf.Wr[uint16]) bool {
			switch {
			case wr.IsEOF():
				return false
			case remaining == 0:
				wr.Close()
				return true
			}
			n := remaining
			if free, limited := wr.FreeSpace(); limited && free < n {
				n = free
			}
			written := s.conv.StringToUnits(rest, wr.Space(n))
			wr.Commit(written)
			rest = textconv.SkipUnits(rest, written)
			remaining -= written
			if remaining == 0 {
				wr.Close()
			}
			return written > 0
		}

		output.Reset()
		unitsBuf.Reset()
		u15sBuf.Reset()
		bytesBuf.Reset()
		r := pipeline.NewDecoder(source, unitsBuf, u15sBuf, bytesBuf)
		_, err := output.ReadFrom(r)
		return err
	}
	if err := once(); err != nil {
		return 0, err
	}
	if err := checkRoundTrip(output.Bytes(), payload); err != nil {
		return 0, err
	}
	return s.repeat(once)
}
