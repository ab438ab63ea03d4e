package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"xdao.co/base32768/base32768"
	"xdao.co/base32768/cidutil"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// usageError marks errors caused by bad flags or arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

var errMismatch = errors.New("round trip mismatch")

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	root := newRootCmd(in, out)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	cmd, err := root.ExecuteC()
	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		fmt.Fprintf(errOut, "%v\n\n%s", err, cmd.UsageString())
		return 2
	default:
		fmt.Fprintf(errOut, "b32k: %v\n", err)
		return 1
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "b32k",
		Short:         "base32768 binary-to-text encoder",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          noArgs,
		RunE: func(*cobra.Command, []string) error {
			return usagef("missing command")
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	root.AddCommand(
		newEncodeCmd(in, out),
		newDecodeCmd(in, out),
		newVerifyCmd(out),
		newCIDCmd(out),
	)
	return root
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("unexpected arguments: %v", args)
	}
	return nil
}

func oneArg(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usagef("expected one file argument, got %d", len(args))
	}
	return nil
}

type ioFlags struct {
	in, out, charset string
}

func (f *ioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.in, "in", "i", "-", "Input file, - for stdin")
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", "Output file, - for stdout")
	cmd.Flags().StringVar(&f.charset, "charset", "utf8", "Text encoding: utf8, utf16le or utf16be")
}

// textEncoding returns the x/text encoding for a charset name; nil means
// UTF-8, which needs no transform.
func textEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "utf8", "utf-8":
		return nil, nil
	case "utf16le", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf16be", "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	default:
		return nil, usagef("unknown charset %q", name)
	}
}

func openIn(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

func openOut(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newEncodeCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode binary input as base32768 text",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) (err error) {
			enc, err := textEncoding(f.charset)
			if err != nil {
				return err
			}
			in, err := openIn(f.in, stdin)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, in.Close()) }()
			out, err := openOut(f.out, stdout)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, out.Close()) }()

			_, err = encodeTo(out, in, enc)
			return err
		},
	}
	f.register(cmd)
	return cmd
}

// encodeTo writes the base32768 text of src to dst in the given encoding
// and returns the number of input bytes.
func encodeTo(dst io.Writer, src io.Reader, enc encoding.Encoding) (n int64, err error) {
	text := dst
	if enc != nil {
		tw := transform.NewWriter(dst, enc.NewEncoder())
		defer func() { err = multierr.Append(err, tw.Close()) }()
		text = tw
	}
	bw := bufio.NewWriter(text)
	e := base32768.NewEncoder(base32768.NewRuneWriter(bw))
	n, err = io.Copy(e, src)
	err = multierr.Combine(err, e.Close(), bw.Flush())
	return n, err
}

func newDecodeCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode base32768 text back to binary",
		Long:  "Decode base32768 text back to binary. White space in the input is ignored.",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) (err error) {
			enc, err := textEncoding(f.charset)
			if err != nil {
				return err
			}
			in, err := openIn(f.in, stdin)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, in.Close()) }()
			out, err := openOut(f.out, stdout)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, out.Close()) }()

			_, err = decodeTo(out, in, enc)
			return err
		},
	}
	f.register(cmd)
	return cmd
}

// decodeTo decodes base32768 text from src into dst.
func decodeTo(dst io.Writer, src io.Reader, enc encoding.Encoding) (int64, error) {
	if enc != nil {
		src = transform.NewReader(src, enc.NewDecoder())
	}
	units := base32768.NewRuneSource(bufio.NewReader(src))
	units.SkipSpace = true
	return base32768.NewDecoder(units).WriteTo(dst)
}

func newVerifyCmd(stdout io.Writer) *cobra.Command {
	var charset string
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Encode and decode a file concurrently and check the result",
		Args:  oneArg,
		RunE: func(_ *cobra.Command, args []string) error {
			enc, err := textEncoding(charset)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			want, err := cidutil.Fingerprint(data)
			if err != nil {
				return err
			}
			got, size, err := roundTrip(data, enc)
			if err != nil {
				return err
			}
			if got != want.String() {
				return fmt.Errorf("%w: %s decoded to %s", errMismatch, want, got)
			}
			fmt.Fprintf(stdout, "ok %s %s\n", want, humanize.Bytes(uint64(size)))
			return nil
		},
	}
	cmd.Flags().StringVar(&charset, "charset", "utf8", "Text encoding used in between: utf8, utf16le or utf16be")
	return cmd
}

// roundTrip streams data through an encoder and a decoder joined by a pipe
// and returns the fingerprint and size of what comes out.
func roundTrip(data []byte, enc encoding.Encoding) (string, int64, error) {
	pr, pw := io.Pipe()
	var g errgroup.Group

	g.Go(func() error {
		_, err := encodeTo(pw, bytes.NewReader(data), enc)
		pw.CloseWithError(err)
		return err
	})

	h := cidutil.NewHasher()
	g.Go(func() error {
		_, err := decodeTo(h, pr, enc)
		pr.CloseWithError(err)
		return err
	})

	if err := g.Wait(); err != nil {
		return "", 0, err
	}
	sum, err := h.Sum()
	if err != nil {
		return "", 0, err
	}
	return sum.String(), h.Len(), nil
}

func newCIDCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "cid <file>",
		Short: "Print the CIDv1 (raw, sha2-256) of a file",
		Args:  oneArg,
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			h := cidutil.NewHasher()
			if _, err := io.Copy(h, f); err != nil {
				return err
			}
			id, err := h.Sum()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, id)
			return nil
		},
	}
}
