// Urlfilter builds and queries Bloom-filter prefilters for URL filtering. A
// prefilter answers "no" (definitely not listed) or "maybe" for a URL, so
// that the full rule set only has to be consulted for the maybes.
//
// For building, one item per line is read from standard input. Filters are
// stored as plist container files; files produced by other implementations
// of the same format are readable and vice versa.
//
// Diagnostic messages will be written to stderr.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkg/profile"

	"urlfilter/bloom"
	"urlfilter/filterfile"
)

// readItems collects one item per line from in. Blank lines and #-comments
// are skipped, surrounding whitespace is not significant.
func readItems(in io.Reader) ([]string, error) {
	var items []string

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		items = append(items, line)
	}

	return items, errors.Wrap(scanner.Err(), "reading items")
}

// build constructs a filter over the items read from in and stores it at
// path. When bits and hashes are both positive they override the sizing
// policy, for reproducing filters that other tools dimensioned.
func build(in io.Reader, path string, tolerance float64, seed uint32, bits, hashes int, verbose bool) error {
	items, err := readItems(in)
	if err != nil {
		return err
	}

	var f *bloom.Filter

	if bits > 0 || hashes > 0 {
		f, err = bloom.New(bloom.Params{
			NumBits:   bits,
			NumHashes: hashes,
			NumItems:  len(items),
			Tolerance: tolerance,
			Seed:      seed,
		})
		if err != nil {
			return errors.Wrap(err, "constructing filter")
		}

		for _, item := range items {
			f.Add(item)
		}
	} else {
		f, err = bloom.Build(items, tolerance, seed)
		if err != nil {
			return errors.Wrap(err, "building filter")
		}
	}

	if verbose {
		log.Println("built filter over", len(items), "items:", f.NumBits(), "bits,", f.NumHashes(), "hashes")
	}

	return filterfile.Write(path, f)
}

// check queries f for every item read from in and writes one verdict per
// line to out: "no" is definite, "maybe" is not.
func check(in io.Reader, out io.Writer, f *bloom.Filter) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		item := strings.TrimSpace(scanner.Text())
		if item == "" {
			continue
		}

		verdict := "no"
		if f.Contains(item) {
			verdict = "maybe"
		}

		_, err := fmt.Fprintln(out, verdict, item)
		if err != nil {
			return errors.Wrap(err, "writing verdict")
		}
	}

	return errors.Wrap(scanner.Err(), "reading items")
}

func main() {
	mode := flag.String("mode", "check", "What to do with the filter. One of [build, read, check, serve].")
	filterPath := flag.String("filter", "filter.plist", "path to the filter container file")
	tolerance := flag.Float64("fp", 0.0001, "false positive tolerance for -mode build, strictly between 0 and 1")
	seed := flag.Uint64("seed", uint64(bloom.DefaultSeed), "murmur seed for -mode build")
	numBits := flag.Int("bits", 0, "explicit bit count for -mode build, overrides sizing")
	numHashes := flag.Int("hashes", 0, "explicit hash count for -mode build, overrides sizing")
	verbose := flag.Bool("verbose", false, "be more verbose")
	addr := flag.String("addr", "127.0.0.1:8880", "listening address for -mode serve")
	profilingAddr := flag.String("profilingAddr", "", "listening address for profiling server; with -verbose but no address, a CPU profile is written to /tmp")

	flag.Parse()

	if *profilingAddr != "" {
		go func() {
			log.Println("starting profiling server on", *profilingAddr)
			err := http.ListenAndServe(*profilingAddr, nil)
			if err != nil {
				log.Printf("can't start profiling server on %s: %s", *profilingAddr, err)
			}
		}()
	} else if *verbose {
		defer profile.Start(profile.ProfilePath("/tmp")).Stop()
	}

	switch *mode {
	case "build", "read", "check", "serve":
	default:
		fmt.Fprintf(flag.CommandLine.Output(), "Unknown mode %q\n\n", *mode)
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *seed > math.MaxUint32 {
		fmt.Fprintf(flag.CommandLine.Output(), "Seed %d does not fit in 32 bits\n\n", *seed)
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *mode == "build" {
		err := build(os.Stdin, *filterPath, *tolerance, uint32(*seed), *numBits, *numHashes, *verbose)
		if err != nil {
			log.Fatalf("can't build filter: %s", err)
		}

		return
	}

	f, err := filterfile.Read(*filterPath)
	if err != nil {
		log.Fatalf("can't read filter: %s", err)
	}

	if *verbose {
		log.Println("filter loaded from", *filterPath)
	}

	switch *mode {
	case "read":
		err := bloom.Summary(os.Stdout, f)
		if err != nil {
			log.Fatalf("can't dump filter: %s", err)
		}
	case "check":
		err := check(os.Stdin, os.Stdout, f)
		if err != nil {
			log.Fatalf("can't check items: %s", err)
		}
	case "serve":
		s := filterServer{f: f}

		http.HandleFunc("/check", s.checkHandler)
		http.HandleFunc("/stats", s.statsHandler)

		log.Println("serving queries on", *addr)
		log.Fatal(http.ListenAndServe(*addr, nil))
	}
}
