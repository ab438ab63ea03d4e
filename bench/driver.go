// Package bench times the base32768 implementations over a random payload.
//
// A Driver acquires a codec suite through a Loader, reports how long that
// took, generates the payload and hands it to the suite exactly once. The
// string conversion helpers reach the suite as an explicit
// textconv.Converter; nothing is installed globally.
package bench

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"xdao.co/base32768/lookup"
	"xdao.co/base32768/metrics"
	"xdao.co/base32768/storage"
	"xdao.co/base32768/textconv"
)

// PayloadSize is the number of random bytes handed to the codecs.
const PayloadSize = 1_000_000

var errNoArchive = errors.New("replay requires an archive")

// Codecs is the workload under measurement.
type Codecs interface {
	TestCodecs(payload []byte) error
}

// Loader acquires the workload, given the conversion helpers it must use.
type Loader func(conv textconv.Converter) (Codecs, error)

// LoadSuite returns a Loader that builds the lookup tables and a Suite.
func LoadSuite(opts ...Option) Loader {
	return func(conv textconv.Converter) (Codecs, error) {
		built := lookup.Load()
		s := NewSuite(conv, opts...)
		s.log.Debug("lookup tables ready", zap.Duration("build", built))
		return s, nil
	}
}

// Driver runs one benchmark. Only Load is required.
type Driver struct {
	Load Loader
	// Conv defaults to textconv.New().
	Conv textconv.Converter
	// Clock defaults to SystemClock.
	Clock Clock
	// Out receives the load time line. Defaults to os.Stdout.
	Out io.Writer
	// Rand fills the payload. Defaults to crypto/rand.Reader.
	Rand io.Reader
	Log  *zap.Logger
	// Archive, if set, keeps the payload for later replay.
	Archive storage.Store
	// Replay, if defined, names an archived payload to use instead of random
	// bytes.
	Replay  cid.Cid
	Metrics *metrics.Metrics
}

// Run loads the codecs, reports the load time and runs them once over a
// fresh payload. Any failure ends the run; nothing is retried.
func (d *Driver) Run(ctx context.Context) error {
	if d.Load == nil {
		return errors.New("bench: no loader")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	log := d.logger()
	clock := d.clock()

	start := clock.Time()
	codecs, err := d.Load(d.conv())
	if err != nil {
		return fmt.Errorf("load codecs: %w", err)
	}
	elapsed := since(clock, start)
	if _, err := fmt.Fprintf(d.out(), "Took %d ms to load and init bench wasm\n", elapsed.Milliseconds()); err != nil {
		return err
	}
	if d.Metrics != nil {
		d.Metrics.ObserveLoad(elapsed)
	}

	payload, err := d.payload(log)
	if err != nil {
		return err
	}
	if d.Metrics != nil {
		d.Metrics.ObservePayload(len(payload))
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := codecs.TestCodecs(payload); err != nil {
		return fmt.Errorf("test codecs: %w", err)
	}
	return nil
}

func (d *Driver) payload(log *zap.Logger) ([]byte, error) {
	if d.Replay.Defined() {
		if d.Archive == nil {
			return nil, errNoArchive
		}
		payload, err := storage.Load(d.Archive, d.Replay, PayloadSize)
		if err != nil {
			return nil, fmt.Errorf("replay payload: %w", err)
		}
		log.Info("replaying payload",
			zap.Stringer("cid", d.Replay),
			zap.String("size", humanize.Bytes(uint64(len(payload)))),
		)
		return payload, nil
	}

	payload := make([]byte, PayloadSize)
	if _, err := io.ReadFull(d.rand(), payload); err != nil {
		return nil, fmt.Errorf("fill payload: %w", err)
	}
	if d.Archive != nil {
		id, err := d.Archive.Put(payload)
		if err != nil {
			return nil, fmt.Errorf("archive payload: %w", err)
		}
		log.Info("archived payload",
			zap.Stringer("cid", id),
			zap.String("size", humanize.Bytes(uint64(len(payload)))),
		)
	}
	return payload, nil
}

func (d *Driver) conv() textconv.Converter {
	if d.Conv == nil {
		return textconv.New()
	}
	return d.Conv
}

func (d *Driver) clock() Clock {
	if d.Clock == nil {
		return SystemClock{}
	}
	return d.Clock
}

func (d *Driver) out() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

func (d *Driver) rand() io.Reader {
	if d.Rand == nil {
		return rand.Reader
	}
	return d.Rand
}

func (d *Driver) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
