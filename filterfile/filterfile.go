// Package filterfile reads and writes the property-list container format
// that prefilter files are exchanged in. The container carries the raw bit
// buffer (base64-encoded by the plist <data> element) together with the
// scalar dimensions needed to reconstruct the filter.
//
// It only works on Unix.
package filterfile

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"howett.net/plist"

	"urlfilter/bloom"
)

// document mirrors the container key set. The key names and the base64
// encoding of bitVectorData are fixed by the existing population of filter
// files and must not change.
type document struct {
	BitVectorData          []byte  `plist:"bitVectorData"`
	FalsePositiveTolerance float64 `plist:"falsePositiveTolerance"`
	MurmurSeed             uint32  `plist:"murmurSeed"`
	NumberOfBits           int     `plist:"numberOfBits"`
	NumberOfBytes          int     `plist:"numberOfBytes"`
	NumberOfHashes         int     `plist:"numberOfHashes"`
	NumberOfItems          int     `plist:"numberOfItems"`
}

// Read loads the container at path and reconstructs its filter. A bit buffer
// whose length disagrees with numberOfBits or numberOfBytes is reported on
// stderr but still accepted; lookups beyond the buffer read as unset.
func Read(path string) (*bloom.Filter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading filter file")
	}

	var doc document

	_, err = plist.Unmarshal(raw, &doc)
	if err != nil {
		return nil, errors.Wrap(err, "decoding filter file")
	}

	if want := (doc.NumberOfBits + 7) / 8; len(doc.BitVectorData) != want || doc.NumberOfBytes != len(doc.BitVectorData) {
		log.Printf("%s: bit vector is %d bytes, numberOfBytes says %d, numberOfBits %d implies %d",
			path, len(doc.BitVectorData), doc.NumberOfBytes, doc.NumberOfBits, want)
	}

	f, err := bloom.FromData(doc.BitVectorData, bloom.Params{
		NumBits:   doc.NumberOfBits,
		NumHashes: doc.NumberOfHashes,
		NumItems:  doc.NumberOfItems,
		Tolerance: doc.FalsePositiveTolerance,
		Seed:      doc.MurmurSeed,
	})

	return f, errors.Wrap(err, "reconstructing filter")
}

// Write stores f as a container at path. The document is written to a
// temporary file in the destination directory and renamed into place, under
// an exclusive lock on path+".lock" so concurrent builders cannot interleave.
func Write(path string, f *bloom.Filter) error {
	raw, err := plist.MarshalIndent(document{
		BitVectorData:          f.Data(),
		FalsePositiveTolerance: f.Tolerance(),
		MurmurSeed:             f.Seed(),
		NumberOfBits:           f.NumBits(),
		NumberOfBytes:          len(f.Data()),
		NumberOfHashes:         f.NumHashes(),
		NumberOfItems:          f.NumItems(),
	}, plist.XMLFormat, "\t")
	if err != nil {
		return errors.Wrap(err, "encoding filter file")
	}

	unlock, err := lock(path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), "*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer tmp.Close()

	_, err = tmp.Write(raw)
	if err != nil {
		return errors.Wrap(err, "writing temp file")
	}

	err = os.Rename(tmp.Name(), path)

	return errors.Wrap(err, "renaming temp file")
}

// lock takes an exclusive advisory lock on path, creating it if needed, and
// returns a release function.
func lock(path string) (func(), error) {
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "opening lock file")
	}

	err = unix.Flock(int(fh.Fd()), unix.LOCK_EX)
	if err != nil {
		fh.Close()
		return nil, errors.Wrap(err, "locking")
	}

	return func() {
		unix.Flock(int(fh.Fd()), unix.LOCK_UN)
		fh.Close()
	}, nil
}
