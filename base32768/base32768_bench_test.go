package base32768_test

import (
	"bytes"
	"runtime"
	"testing"
	"unicode/utf16"

	"xdao.co/base32768/base32768"
	"xdao.co/base32768/bench"
)

const benchSize = 3_000_000

func BenchmarkEncodeToString(b *testing.B) {
	data := bench.SeededPayload(benchSize, bench.SliceSeed)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runtime.KeepAlive(base32768.EncodeToString(data))
	}
}

func BenchmarkDecodeUnits(b *testing.B) {
	data := bench.SeededPayload(benchSize, bench.SliceSeed)
	units := base32768.EncodeToUnits(data)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := base32768.DecodeUnits(units); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEncoderWrite feeds the streaming encoder writes of 1 to 19 bytes.
func BenchmarkEncoderWrite(b *testing.B) {
	data := bench.SeededPayload(benchSize, bench.SliceSeed)
	slices := bench.Slices(data, bench.SliceSeed)
	output := base32768.NewUnitBuffer(base32768.EncodedLen(len(data)))
	enc := base32768.NewEncoder(output)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		output.Reset()
		enc.Reset(output)
		for _, s := range slices {
			if _, err := enc.Write(s); err != nil {
				b.Fatal(err)
			}
		}
		if err := enc.Close(); err != nil {
			b.Fatal(err)
		}
		runtime.KeepAlive(string(utf16.Decode(output.Units())))
	}
}

func BenchmarkDecoderRead(b *testing.B) {
	data := bench.SeededPayload(benchSize, bench.SliceSeed)
	units := base32768.EncodeToUnits(data)
	dec, err := base32768.NewDecoderSize(nil, 960)
	if err != nil {
		b.Fatal(err)
	}
	var out bytes.Buffer
	out.Grow(len(data))
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out.Reset()
		dec.Reset(base32768.NewUnitSlice(units))
		if _, err := out.ReadFrom(dec); err != nil {
			b.Fatal(err)
		}
	}
}
