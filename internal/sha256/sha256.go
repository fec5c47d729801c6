// Package sha256 implements the SHA-256 hash algorithm as defined in
// RFC 6234, from scratch (no delegation to crypto/sha256).
package sha256

import "encoding/binary"

// Size is the size, in bytes, of a SHA-256 checksum.
const Size = 32

// BlockSize is the block size, in bytes, of the SHA-256 hash function.
const BlockSize = 64

var k = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

var init0 = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// Digest implements streaming SHA-256: append arbitrary bytes via Write,
// Sum finalizes and returns the 32-byte digest without mutating state.
type Digest struct {
	h   [8]uint32
	x   [BlockSize]byte
	nx  int
	len uint64
}

// New returns a new, empty Digest.
func New() *Digest {
	d := &Digest{}
	d.Reset()
	return d
}

// Reset returns d to its initial state.
func (d *Digest) Reset() {
	d.h = init0
	d.nx = 0
	d.len = 0
}

// Write appends p to the running hash. It never returns an error.
func (d *Digest) Write(p []byte) (n int, err error) {
	n = len(p)
	d.len += uint64(n)

	if d.nx > 0 {
		c := copy(d.x[d.nx:], p)
		d.nx += c
		p = p[c:]
		if d.nx == BlockSize {
			block(d, d.x[:])
			d.nx = 0
		}
	}
	for len(p) >= BlockSize {
		block(d, p[:BlockSize])
		p = p[BlockSize:]
	}
	if len(p) > 0 {
		d.nx = copy(d.x[:], p)
	}
	return
}

// Sum appends the current hash to b and returns the resulting slice. It
// does not modify d's underlying state (a copy is finalized).
func (d *Digest) Sum(b []byte) []byte {
	dd := *d
	hash := dd.checkSum()
	return append(b, hash[:]...)
}

func (d *Digest) checkSum() [Size]byte {
	length := d.len
	var tmp [72]byte
	tmp[0] = 0x80
	var pad []byte
	if length%64 < 56 {
		pad = tmp[0 : 56-length%64]
	} else {
		pad = tmp[0 : 64+56-length%64]
	}
	d.Write(pad)

	if d.nx != 56 {
		panic("sha256: internal error: invalid padding")
	}

	var lenBytes [8]byte
	binary.BigEndian.PutUint64(lenBytes[:], length<<3)
	d.Write(lenBytes[:])

	if d.nx != 0 {
		panic("sha256: internal error: d.nx != 0 after length block")
	}

	var digest [Size]byte
	for i, s := range d.h {
		binary.BigEndian.PutUint32(digest[i*4:], s)
	}
	return digest
}

func block(d *Digest, p []byte) {
	var w [64]uint32
	h0, h1, h2, h3, h4, h5, h6, h7 := d.h[0], d.h[1], d.h[2], d.h[3], d.h[4], d.h[5], d.h[6], d.h[7]

	for len(p) >= BlockSize {
		for i := 0; i < 16; i++ {
			w[i] = binary.BigEndian.Uint32(p[i*4:])
		}
		for i := 16; i < 64; i++ {
			v1 := w[i-2]
			t1 := (rotr(v1, 17)) ^ (rotr(v1, 19)) ^ (v1 >> 10)
			v2 := w[i-15]
			t2 := (rotr(v2, 7)) ^ (rotr(v2, 18)) ^ (v2 >> 3)
			w[i] = t1 + w[i-7] + t2 + w[i-16]
		}

		a, b, c, dd, e, f, g, h := h0, h1, h2, h3, h4, h5, h6, h7

		for i := 0; i < 64; i++ {
			t1 := h + ((rotr(e, 6)) ^ (rotr(e, 11)) ^ (rotr(e, 25))) + ((e & f) ^ (^e & g)) + k[i] + w[i]
			t2 := ((rotr(a, 2)) ^ (rotr(a, 13)) ^ (rotr(a, 22))) + ((a & b) ^ (a & c) ^ (b & c))
			h = g
			g = f
			f = e
			e = dd + t1
			dd = c
			c = b
			b = a
			a = t1 + t2
		}

		h0 += a
		h1 += b
		h2 += c
		h3 += dd
		h4 += e
		h5 += f
		h6 += g
		h7 += h

		p = p[BlockSize:]
	}

	d.h[0], d.h[1], d.h[2], d.h[3], d.h[4], d.h[5], d.h[6], d.h[7] = h0, h1, h2, h3, h4, h5, h6, h7
}

func rotr(x uint32, n uint) uint32 {
	return (x >> n) | (x << (32 - n))
}

// Size returns the number of bytes Sum will return (hash.Hash interface).
func (d *Digest) Size() int { return Size }

// BlockSize returns the hash's underlying block size (hash.Hash interface).
func (d *Digest) BlockSize() int { return BlockSize }

// Sum256 returns the SHA-256 checksum of data in one shot.
func Sum256(data []byte) [Size]byte {
	d := New()
	d.Write(data)
	return d.checkSum()
}
