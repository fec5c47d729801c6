// Package p256 implements scalar multiplication on the NIST P-256 curve
// (secp256r1) in Jacobian projective coordinates over math/big, from
// scratch. math/big supplies arbitrary-precision integer arithmetic only;
// no elliptic-curve or ECDH library is used (see DESIGN.md).
package p256

import (
	"crypto/subtle"
	"errors"
	"io"
	"math/big"
)

// ScalarSize is the size in bytes of a P-256 scalar.
const ScalarSize = 32

// PointSize is the size in bytes of an uncompressed P-256 point
// (0x04 || X || Y).
const PointSize = 65

var (
	p  = bigFromHex("ffffffff00000001000000000000000000000000ffffffffffffffffffffffff")
	a  = bigFromHex("ffffffff00000001000000000000000000000000fffffffffffffffffffffffc")
	b  = bigFromHex("5ac635d8aa3a93e7b3ebbd55769886bc651d06b0cc53b0f63bce3c3e27d2604b")
	gx = bigFromHex("6b17d1f2e12c4247f8bce6e563a440f277037d812deb33a0f4a13945d898c296")
	gy = bigFromHex("4fe342e2fe1a7f9b8ee7eb4a7c0f9e162bce33576b315ececbb6406837bf51f5")
	n  = bigFromHex("ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551")
)

func bigFromHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("p256: invalid constant")
	}
	return v
}

// jacobian is a point in Jacobian projective coordinates; Z == 0
// represents the point at infinity.
type jacobian struct {
	X, Y, Z *big.Int
}

func infinity() jacobian {
	return jacobian{X: big.NewInt(1), Y: big.NewInt(1), Z: big.NewInt(0)}
}

func (pt jacobian) isInfinity() bool {
	return pt.Z.Sign() == 0
}

func affineToJacobian(x, y *big.Int) jacobian {
	return jacobian{X: new(big.Int).Set(x), Y: new(big.Int).Set(y), Z: big.NewInt(1)}
}

// toAffine converts a Jacobian point back to affine (X/Z^2, Y/Z^3).
func (pt jacobian) toAffine() (x, y *big.Int) {
	if pt.isInfinity() {
		return new(big.Int), new(big.Int)
	}
	zinv := new(big.Int).ModInverse(pt.Z, p)
	zinv2 := new(big.Int).Mul(zinv, zinv)
	zinv2.Mod(zinv2, p)
	zinv3 := new(big.Int).Mul(zinv2, zinv)
	zinv3.Mod(zinv3, p)

	x = new(big.Int).Mul(pt.X, zinv2)
	x.Mod(x, p)
	y = new(big.Int).Mul(pt.Y, zinv3)
	y.Mod(y, p)
	return x, y
}

// double computes 2*pt using the standard Jacobian doubling formulas for a
// curve with a = -3.
func double(pt jacobian) jacobian {
	if pt.isInfinity() || pt.Y.Sign() == 0 {
		return infinity()
	}

	// delta = Z1^2
	delta := new(big.Int).Mul(pt.Z, pt.Z)
	delta.Mod(delta, p)
	// gamma = Y1^2
	gamma := new(big.Int).Mul(pt.Y, pt.Y)
	gamma.Mod(gamma, p)
	// beta = X1*gamma
	beta := new(big.Int).Mul(pt.X, gamma)
	beta.Mod(beta, p)

	// alpha = 3*(X1-delta)*(X1+delta)
	xMinusDelta := new(big.Int).Sub(pt.X, delta)
	xPlusDelta := new(big.Int).Add(pt.X, delta)
	alpha := new(big.Int).Mul(xMinusDelta, xPlusDelta)
	alpha.Mul(alpha, big.NewInt(3))
	alpha.Mod(alpha, p)

	// X3 = alpha^2 - 8*beta
	x3 := new(big.Int).Mul(alpha, alpha)
	eightBeta := new(big.Int).Lsh(beta, 3)
	x3.Sub(x3, eightBeta)
	x3.Mod(x3, p)

	// Z3 = (Y1+Z1)^2 - gamma - delta
	yPlusZ := new(big.Int).Add(pt.Y, pt.Z)
	z3 := new(big.Int).Mul(yPlusZ, yPlusZ)
	z3.Sub(z3, gamma)
	z3.Sub(z3, delta)
	z3.Mod(z3, p)

	// Y3 = alpha*(4*beta-X3) - 8*gamma^2
	fourBeta := new(big.Int).Lsh(beta, 2)
	fourBeta.Sub(fourBeta, x3)
	y3 := new(big.Int).Mul(alpha, fourBeta)
	gammaSq := new(big.Int).Mul(gamma, gamma)
	gammaSq.Lsh(gammaSq, 3)
	y3.Sub(y3, gammaSq)
	y3.Mod(y3, p)

	return jacobian{X: mod(x3), Y: mod(y3), Z: mod(z3)}
}

func mod(v *big.Int) *big.Int {
	v.Mod(v, p)
	return v
}

// add computes pt1+pt2 in Jacobian coordinates. If pt1 and pt2 are the same
// point it falls back to double; if they are inverses it returns infinity.
func add(pt1, pt2 jacobian) jacobian {
	if pt1.isInfinity() {
		return pt2
	}
	if pt2.isInfinity() {
		return pt1
	}

	z1z1 := new(big.Int).Mul(pt1.Z, pt1.Z)
	z1z1.Mod(z1z1, p)
	z2z2 := new(big.Int).Mul(pt2.Z, pt2.Z)
	z2z2.Mod(z2z2, p)

	u1 := new(big.Int).Mul(pt1.X, z2z2)
	u1.Mod(u1, p)
	u2 := new(big.Int).Mul(pt2.X, z1z1)
	u2.Mod(u2, p)

	s1 := new(big.Int).Mul(pt1.Y, pt2.Z)
	s1.Mul(s1, z2z2)
	s1.Mod(s1, p)
	s2 := new(big.Int).Mul(pt2.Y, pt1.Z)
	s2.Mul(s2, z1z1)
	s2.Mod(s2, p)

	if u1.Cmp(u2) == 0 {
		if s1.Cmp(s2) != 0 {
			return infinity()
		}
		return double(pt1)
	}

	h := new(big.Int).Sub(u2, u1)
	h.Mod(h, p)
	i := new(big.Int).Lsh(h, 1)
	i.Mul(i, i)
	i.Mod(i, p)
	j := new(big.Int).Mul(h, i)
	j.Mod(j, p)
	r := new(big.Int).Sub(s2, s1)
	r.Lsh(r, 1)
	r.Mod(r, p)
	v := new(big.Int).Mul(u1, i)
	v.Mod(v, p)

	x3 := new(big.Int).Mul(r, r)
	x3.Sub(x3, j)
	twoV := new(big.Int).Lsh(v, 1)
	x3.Sub(x3, twoV)
	x3.Mod(x3, p)

	y3 := new(big.Int).Sub(v, x3)
	y3.Mul(y3, r)
	s1j := new(big.Int).Mul(s1, j)
	s1j.Lsh(s1j, 1)
	y3.Sub(y3, s1j)
	y3.Mod(y3, p)

	z3 := new(big.Int).Add(pt1.Z, pt2.Z)
	z3.Mul(z3, z3)
	z3.Sub(z3, z1z1)
	z3.Sub(z3, z2z2)
	z3.Mul(z3, h)
	z3.Mod(z3, p)

	return jacobian{X: mod(x3), Y: mod(y3), Z: mod(z3)}
}

// scalarMult computes k*(x,y) for a point known to be on the curve,
// returning the resulting affine coordinates.
func scalarMult(x, y *big.Int, k []byte) (rx, ry *big.Int) {
	base := affineToJacobian(x, y)
	acc := infinity()

	for _, byteVal := range k {
		for bit := 7; bit >= 0; bit-- {
			acc = double(acc)
			if (byteVal>>uint(bit))&1 == 1 {
				acc = add(acc, base)
			}
		}
	}
	return acc.toAffine()
}

// ScalarBaseMult computes k*G and returns the 65-byte uncompressed point
// 0x04 || X || Y.
func ScalarBaseMult(k []byte) []byte {
	x, y := scalarMult(gx, gy, k)
	return marshal(x, y)
}

// ScalarMult computes k*P for the uncompressed point P (65 bytes,
// 0x04 || X || Y) and returns the 65-byte uncompressed result.
func ScalarMult(point []byte, k []byte) ([]byte, error) {
	x, y, err := unmarshal(point)
	if err != nil {
		return nil, err
	}
	if !onCurve(x, y) {
		return nil, errors.New("p256: point not on curve")
	}
	rx, ry := scalarMult(x, y, k)
	return marshal(rx, ry), nil
}

// SharedSecret computes k*P and returns the 32-byte big-endian X
// coordinate, as required by ECDHE for this suite.
func SharedSecret(peerPoint []byte, k []byte) ([]byte, error) {
	result, err := ScalarMult(peerPoint, k)
	if err != nil {
		return nil, err
	}
	x := result[1:33]
	out := make([]byte, 32)
	copy(out, x)
	return out, nil
}

func onCurve(x, y *big.Int) bool {
	if x.Sign() < 0 || x.Cmp(p) >= 0 || y.Sign() < 0 || y.Cmp(p) >= 0 {
		return false
	}
	// y^2 = x^3 + a*x + b (mod p)
	y2 := new(big.Int).Mul(y, y)
	y2.Mod(y2, p)

	x3 := new(big.Int).Mul(x, x)
	x3.Mul(x3, x)
	ax := new(big.Int).Mul(a, x)
	rhs := x3.Add(x3, ax)
	rhs.Add(rhs, b)
	rhs.Mod(rhs, p)

	return y2.Cmp(rhs) == 0
}

func marshal(x, y *big.Int) []byte {
	out := make([]byte, PointSize)
	out[0] = 0x04
	xb := x.Bytes()
	yb := y.Bytes()
	copy(out[1+32-len(xb):33], xb)
	copy(out[33+32-len(yb):65], yb)
	return out
}

func unmarshal(point []byte) (x, y *big.Int, err error) {
	if len(point) != PointSize || point[0] != 0x04 {
		return nil, nil, errors.New("p256: invalid uncompressed point encoding")
	}
	x = new(big.Int).SetBytes(point[1:33])
	y = new(big.Int).SetBytes(point[33:65])
	return x, y, nil
}

// GenerateScalar samples a uniformly random scalar in [1, n-1] from rand,
// rejecting and retrying out-of-range draws (FIPS 186-4 testing-candidates
// method).
func GenerateScalar(rand io.Reader) ([]byte, error) {
	buf := make([]byte, ScalarSize)
	for {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, err
		}
		k := new(big.Int).SetBytes(buf)
		if k.Sign() == 0 || k.Cmp(n) >= 0 {
			continue
		}
		out := make([]byte, ScalarSize)
		copy(out, buf)
		return out, nil
	}
}

// ConstantTimeEqual reports whether a and b are byte-for-byte equal,
// without leaking timing information about where they first differ.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
