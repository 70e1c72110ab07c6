package bloom

import (
	"hash/fnv"

	"github.com/spaolacci/murmur3"
)

// hashPair returns the two independent 32-bit hashes that index derivation
// combines: FNV (32-bit, multiply-then-xor) and MurmurHash3 (x86, 32-bit)
// with the filter's seed. Both run over the raw bytes of the item. Filter
// files are shared across implementations, so both must match their reference
// functions bit for bit.
func hashPair(data []byte, seed uint32) (uint32, uint32) {
	h := fnv.New32()
	h.Write(data)

	return h.Sum32(), murmur3.Sum32WithSeed(data, seed)
}

// Bit i lives in byte i/8 at the i%8 least significant position. setBit and
// bit tolerate indices beyond the buffer: that only happens when a
// reconstructed buffer is shorter than NumBits implies, and such bits are
// treated as permanently unset rather than as an error.

func (f *Filter) setBit(idx uint32) {
	i := int(idx / 8)
	if i >= len(f.bits) {
		return
	}

	f.bits[i] |= 1 << (idx % 8)
}

func (f *Filter) bit(idx uint32) bool {
	i := int(idx / 8)
	if i >= len(f.bits) {
		return false
	}

	return f.bits[i]&(1<<(idx%8)) != 0
}
