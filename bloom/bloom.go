// Package bloom implements the Bloom-filter prefilter used to screen URLs
// before the full rule set is consulted. A filter never produces false
// negatives: if Contains returns false, the item was definitely not added.
// False positives occur with a probability close to the configured tolerance.
//
// The bit layout and hashing scheme are fixed by the container format the
// filters are exchanged in; filters built here are queryable by the other
// implementations of that format and vice versa.
package bloom

import (
	"github.com/pkg/errors"
)

// DefaultSeed seeds the murmur hash unless the caller picks its own seed.
// Reconstructed filters carry their seed in the container file, so this value
// only matters for freshly built filters.
const DefaultSeed uint32 = 0x9747b28c

// ErrInvalidParameter is wrapped into every constructor error. Match it with
// errors.Is.
var ErrInvalidParameter = errors.New("invalid parameter")

// Params holds the dimensions of a filter. They are fixed at construction
// time; only the bit buffer itself is mutable afterwards.
type Params struct {
	NumBits   int
	NumHashes int
	NumItems  int     // item cardinality, kept for reporting only
	Tolerance float64 // design-time false positive target, reporting only
	Seed      uint32  // seed for the murmur hash
}

func (p Params) validate() error {
	if p.NumBits <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "numBits %d must be positive", p.NumBits)
	}
	if p.NumHashes <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "numHashes %d must be positive", p.NumHashes)
	}
	if p.NumItems < 0 {
		return errors.Wrapf(ErrInvalidParameter, "numItems %d must not be negative", p.NumItems)
	}
	if p.Tolerance <= 0 || p.Tolerance >= 1 {
		return errors.Wrapf(ErrInvalidParameter, "tolerance %v outside (0, 1)", p.Tolerance)
	}
	return nil
}

// Filter is a fixed-size Bloom filter. It is not safe for concurrent
// modification; callers that share a filter across goroutines must serialize
// Add against everything else.
type Filter struct {
	p    Params
	bits []byte
}

// New returns an empty filter with the given dimensions.
func New(p Params) (*Filter, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	return &Filter{
		p:    p,
		bits: make([]byte, (p.NumBits+7)/8),
	}, nil
}

// Build sizes a filter for the given items and tolerance and adds every item.
func Build(items []string, tolerance float64, seed uint32) (*Filter, error) {
	if len(items) == 0 {
		return nil, errors.Wrap(ErrInvalidParameter, "empty item list")
	}
	if tolerance <= 0 || tolerance >= 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "tolerance %v outside (0, 1)", tolerance)
	}

	m := OptimalNumBits(len(items), tolerance)

	f, err := New(Params{
		NumBits:   m,
		NumHashes: OptimalNumHashes(m, len(items)),
		NumItems:  len(items),
		Tolerance: tolerance,
		Seed:      seed,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		f.Add(item)
	}

	return f, nil
}

// FromData reconstructs a filter from a previously serialized bit buffer. The
// buffer is taken verbatim and copied; its length is deliberately not checked
// against NumBits, so that truncated or oddly padded files from other
// producers stay readable. Lookups past the end of a short buffer read as
// unset bits.
func FromData(data []byte, p Params) (*Filter, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidParameter, "empty bit buffer")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	bits := make([]byte, len(data))
	copy(bits, data)

	return &Filter{p: p, bits: bits}, nil
}

// Add marks item as a member. Adding an item twice is a no-op.
func (f *Filter) Add(item string) {
	h1, h2 := hashPair([]byte(item), f.p.Seed)

	for i := uint32(0); i < uint32(f.p.NumHashes); i++ {
		f.setBit((h1 + i*h2) % uint32(f.p.NumBits))
	}
}

// Contains reports whether item may have been added. A false result is
// definite.
func (f *Filter) Contains(item string) bool {
	h1, h2 := hashPair([]byte(item), f.p.Seed)

	for i := uint32(0); i < uint32(f.p.NumHashes); i++ {
		if !f.bit((h1 + i*h2) % uint32(f.p.NumBits)) {
			return false
		}
	}

	return true
}

func (f *Filter) NumBits() int       { return f.p.NumBits }
func (f *Filter) NumHashes() int     { return f.p.NumHashes }
func (f *Filter) NumItems() int      { return f.p.NumItems }
func (f *Filter) Tolerance() float64 { return f.p.Tolerance }
func (f *Filter) Seed() uint32       { return f.p.Seed }

// Data returns the filter's live bit buffer, ceil(NumBits/8) bytes for a
// freshly built filter. Callers must not modify it.
func (f *Filter) Data() []byte { return f.bits }
