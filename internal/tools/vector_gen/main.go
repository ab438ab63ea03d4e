// Command vector_gen writes the conformance vectors under testdata/vectors.
//
// Every NAME.bin in the directory gets a NAME.txt holding its base32768
// text. The patterned inputs are (re)written first; other .bin files, such as
// random-1000.bin, are kept as they are. With -check nothing is written and
// any difference is reported.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xdao.co/base32768/base32768"
)

func patterned() map[string][]byte {
	vec := map[string][]byte{
		"empty":     {},
		"hello":     []byte("Hello"),
		"zeros-15":  make([]byte, 15),
		"ones-14":   bytes.Repeat([]byte{0xff}, 14),
		"ones-16":   bytes.Repeat([]byte{0xff}, 16),
		"all-bytes": make([]byte, 256),
	}
	for i := range vec["all-bytes"] {
		vec["all-bytes"][i] = byte(i)
	}
	for n := 1; n <= 30; n++ {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(i*37 + 11)
		}
		vec[fmt.Sprintf("seq-%02d", n)] = b
	}
	return vec
}

func main() {
	dir := flag.String("dir", "testdata/vectors", "vector directory")
	check := flag.Bool("check", false, "compare instead of writing")
	flag.Parse()

	stale, err := generate(*dir, *check)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, name := range stale {
		fmt.Println("stale:", name)
	}
	if *check && len(stale) > 0 {
		os.Exit(1)
	}
}

// generate returns the files that differ from what they should hold.
func generate(dir string, check bool) ([]string, error) {
	var stale []string
	sync := func(path string, want []byte) error {
		got, err := os.ReadFile(path)
		if err == nil && bytes.Equal(got, want) {
			return nil
		}
		stale = append(stale, filepath.Base(path))
		if check {
			return nil
		}
		return os.WriteFile(path, want, 0o644)
	}

	for name, b := range patterned() {
		if err := sync(filepath.Join(dir, name+".bin"), b); err != nil {
			return nil, err
		}
	}

	bins, err := filepath.Glob(filepath.Join(dir, "*.bin"))
	if err != nil {
		return nil, err
	}
	for _, bin := range bins {
		b, err := os.ReadFile(bin)
		if err != nil {
			return nil, err
		}
		txt := strings.TrimSuffix(bin, ".bin") + ".txt"
		if err := sync(txt, []byte(base32768.EncodeToString(b))); err != nil {
			return nil, err
		}
	}
	sort.Strings(stale)
	return stale, nil
}
