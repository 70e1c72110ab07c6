package bloom

import (
	"fmt"
	"io"
	"math"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// SetBits counts the bits currently set in the buffer.
func (f *Filter) SetBits() int {
	n := 0
	for _, b := range f.bits {
		n += bits.OnesCount8(b)
	}

	return n
}

// FillRatio is the fraction of bits set, in [0, 1].
func (f *Filter) FillRatio() float64 {
	return float64(f.SetBits()) / float64(f.p.NumBits)
}

// EstimatedFalsePositiveRate derives a false positive estimate from the
// observed fill ratio, fillRatio^numHashes. It is an empirical figure and
// drifts away from the configured tolerance as the filter fills up.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return math.Pow(f.FillRatio(), float64(f.p.NumHashes))
}

// Summary writes a human readable description of f, including a map of the
// bit buffer, one character per bit. It only consults the filter's public
// accessors.
func Summary(w io.Writer, f *Filter) error {
	_, err := fmt.Fprintf(w, `bits:         %d (%d bytes)
hashes:       %d
items:        %d
murmur seed:  %d
tolerance:    %g
set bits:     %d (fill ratio %.4f)
estimated fp: %g
`,
		f.NumBits(), len(f.Data()),
		f.NumHashes(),
		f.NumItems(),
		f.Seed(),
		f.Tolerance(),
		f.SetBits(), f.FillRatio(),
		f.EstimatedFalsePositiveRate())
	if err != nil {
		return errors.Wrap(err, "writing summary")
	}

	err = writeBitMap(w, f)

	return errors.Wrap(err, "writing bit map")
}

const bitsPerRow = 64

// writeBitMap renders the bit buffer as rows of # (set) and . (unset),
// lowest-numbered bit first.
func writeBitMap(w io.Writer, f *Filter) error {
	var row strings.Builder

	// A reconstructed buffer may be shorter than NumBits implies; render
	// only the bits that are actually backed by bytes.
	n := f.NumBits()
	if backed := len(f.Data()) * 8; backed < n {
		n = backed
	}

	for i := 0; i < n; i++ {
		if f.Data()[i/8]&(1<<(i%8)) != 0 {
			row.WriteByte('#')
		} else {
			row.WriteByte('.')
		}

		if (i+1)%bitsPerRow == 0 || i == n-1 {
			_, err := fmt.Fprintln(w, row.String())
			if err != nil {
				return err
			}

			row.Reset()
		}
	}

	return nil
}
