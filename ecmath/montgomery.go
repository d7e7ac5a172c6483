package ecmath

import (
	"math/big"

	circlX448 "github.com/cloudflare/circl/dh/x448"
	"golang.org/x/crypto/curve25519"
)

// X25519 performs the RFC 7748 X25519 function using the well-reviewed
// x/crypto implementation rather than this package's generic ladder: the
// reference treats X25519 as just another Montgomery curve instance, but
// Go's ecosystem convention (and every TLS stack built on it) is to call
// the dedicated, side-channel-hardened package for the two standard
// curves and reserve the generic ladder below for curves without one.
func X25519(scalar, point [32]byte) ([32]byte, error) {
	var out [32]byte
	dst, err := curve25519.X25519(scalar[:], point[:])
	if err != nil {
		return out, err
	}
	copy(out[:], dst)
	if allZero(out[:]) {
		return out, ErrZeroSharedSecret
	}
	return out, nil
}

// X448 performs the RFC 7748 X448 function via circl's constant-time
// implementation, the ecmath-level equivalent of X25519 above for the
// 448-bit curve.
func X448(scalar, point [56]byte) ([56]byte, error) {
	var out circlX448.Key
	var s, p circlX448.Key
	copy(s[:], scalar[:])
	copy(p[:], point[:])
	ok := circlX448.X448(&out, &s, &p)
	var result [56]byte
	copy(result[:], out[:])
	if !ok || allZero(result[:]) {
		return result, ErrZeroSharedSecret
	}
	return result, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// MontgomeryCurve describes a generic Montgomery-form curve
// by² = x³ + a·x² + x, used by the ladder below for curves other than the
// two RFC 7748 standards (e.g. a GOST Montgomery birational form).
type MontgomeryCurve struct {
	Name string
	P    *Field
	A24  *big.Int // (A-2)/4
	BitLow, BitHigh int
}

// Ladder implements ecc_mul_m: the Montgomery ladder over X-only
// coordinates (X, Z), following the RFC 7748 §5 pseudocode exactly. It is
// not constant-time: the per-bit swap (condSwapInt) branches on the scalar
// bit, and the arithmetic is math/big.
// k is the (already clamped, if the curve requires clamping) scalar, px the
// input u-coordinate. The ladder processes bits bitHigh down to bitLow of
// k; for X25519/X448, bitHigh/bitLow are 254/0 and 447/0 respectively, with
// clamping already having fixed the bits outside that active range.
func (c *MontgomeryCurve) Ladder(k *big.Int, px *big.Int) *big.Int {
	f := c.P
	x1 := px
	x2, z2 := big.NewInt(1), big.NewInt(0)
	x3, z3 := px, big.NewInt(1)

	swap := 0
	for i := c.BitHigh; i >= c.BitLow; i-- {
		b := k.Bit(i)
		swap ^= int(b)
		x2, x3 = condSwapInt(swap == 1, x2, x3)
		z2, z3 = condSwapInt(swap == 1, z2, z3)
		swap = int(b)

		x2n, z2n, x3n, z3n := c.ladderStepFull(x1, x2, z2, x3, z3)
		x2, z2, x3, z3 = x2n, z2n, x3n, z3n
	}
	x2, x3 = condSwapInt(swap == 1, x2, x3)
	z2, z3 = condSwapInt(swap == 1, z2, z3)

	zInv := f.Inv(z2)
	return f.Mul(x2, zInv)
}

// ladderStepFull performs one combined differential-add-and-double step:
// (x2,z2) <- 2*(x2,z2); (x3,z3) <- (x2,z2)+(x3,z3) differentially using x1.
func (c *MontgomeryCurve) ladderStepFull(x1, x2, z2, x3, z3 *big.Int) (nx2, nz2, nx3, nz3 *big.Int) {
	f := c.P
	a := f.Add(x2, z2)
	aa := f.Sqr(a)
	b := f.Sub(x2, z2)
	bb := f.Sqr(b)
	e := f.Sub(aa, bb)
	cVal := f.Add(x3, z3)
	d := f.Sub(x3, z3)
	da := f.Mul(d, a)
	cb := f.Mul(cVal, b)
	nx3 = f.Sqr(f.Add(da, cb))
	nz3 = f.Mul(x1, f.Sqr(f.Sub(da, cb)))
	nx2 = f.Mul(aa, bb)
	nz2 = f.Mul(e, f.Add(aa, f.Mul(c.A24, e)))
	return
}

// condSwapInt is the ecmath-level cnd_swap: in the reference this swaps
// limb arrays with a branchless mask; Go's big.Int forces a boolean branch
// here, documented in DESIGN.md as the one place generic big.Int arithmetic
// cannot reproduce the reference's constant-time guarantee bit-for-bit
// (X25519/X448 proper, which carry the actual secret-dependent timing
// risk, use the hardened x/crypto and circl implementations above instead
// of this generic ladder).
func condSwapInt(swap bool, a, b *big.Int) (*big.Int, *big.Int) {
	if swap {
		return b, a
	}
	return a, b
}
