package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xdao.co/base32768/bench"
	"xdao.co/base32768/cidutil"
	"xdao.co/base32768/config"
	"xdao.co/base32768/logging"
	"xdao.co/base32768/metrics"
	"xdao.co/base32768/storage"
	"xdao.co/base32768/storage/localfs"
	"xdao.co/base32768/textconv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// usageError marks errors caused by bad flags or arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	cmd := newCommand(out, errOut)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	err := cmd.ExecuteContext(ctx)
	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		fmt.Fprintf(errOut, "%v\n\n%s", err, cmd.UsageString())
		return 2
	default:
		return 1
	}
}

func newCommand(out io.Writer, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "base32768-bench",
		Short: "Time the base32768 codecs over one million random bytes",
		Long: "Loads the codec suite, reports the load time, then runs every\n" +
			"encoder and decoder over a 1,000,000 byte random payload.\n" +
			"Settings may also come from " + config.EnvPrefix + "_* environment variables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError{fmt.Errorf("unexpected arguments: %v", args)}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.NewViper(cmd.Flags())
			if err != nil {
				return usageError{err}
			}
			cfg, err := config.FromViper(v)
			if err != nil {
				return usageError{err}
			}
			log, err := logging.New(cfg.LogLevel, errOut)
			if err != nil {
				return usageError{err}
			}
			defer func() { _ = log.Sync() }()

			if err := runBench(cmd.Context(), cfg, out, log); err != nil {
				log.Error("benchmark failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().AddFlagSet(config.BuildFlagSet())
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	return cmd
}

func runBench(ctx context.Context, cfg config.Bench, out io.Writer, log *zap.Logger) error {
	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		var err error
		if m, err = metrics.New(); err != nil {
			return err
		}
	}

	d := &bench.Driver{
		Load: bench.LoadSuite(
			bench.WithOutput(out),
			bench.WithLogger(log),
			bench.WithMetrics(m),
			bench.WithIterations(cfg.Iterations),
		),
		Conv:    textconv.Chunked{ChunkSize: cfg.ChunkSize},
		Out:     out,
		Log:     log,
		Metrics: m,
	}
	if cfg.ArchiveDir != "" {
		archive, err := openArchive(cfg.ArchiveDir, cfg.MirrorDirs)
		if err != nil {
			return err
		}
		d.Archive = archive
	}
	if cfg.Replay != "" {
		id, err := cidutil.Parse(cfg.Replay)
		if err != nil {
			return err
		}
		d.Replay = id
	}

	if err := d.Run(ctx); err != nil {
		return err
	}
	if m != nil {
		if err := m.WriteFile(cfg.MetricsFile); err != nil {
			return err
		}
		log.Debug("wrote metrics", zap.String("path", cfg.MetricsFile))
	}
	return nil
}

// openArchive opens the primary archive directory and, if any mirrors are
// named, a storage.Mirror over all of them in order.
func openArchive(dir string, mirrors []string) (storage.Store, error) {
	primary, err := localfs.New(dir)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if len(mirrors) == 0 {
		return primary, nil
	}
	m := storage.Mirror{Archives: []storage.Named{{Name: dir, Store: primary}}}
	for _, mdir := range mirrors {
		a, err := localfs.New(mdir)
		if err != nil {
			return nil, fmt.Errorf("open archive mirror: %w", err)
		}
		m.Archives = append(m.Archives, storage.Named{Name: mdir, Store: a})
	}
	return m, nil
}
