package pkdispatch

import (
	"fmt"
	"math/big"

	"github.com/c2FmZQ/tlscore/ecmath"
)

// GOSTDSASign signs digest (which must be exactly the curve's bit length,
// per §4.4) with GOST R 34.10-2012 over curve c. Nonce generation is always
// randomized; the reference does not offer a deterministic GOST variant.
func GOSTDSASign(c *ecmath.WeierstrassCurve, priv *big.Int, digest []byte) (*DSASignature, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	if len(digest)*8 != c.BitSize {
		return nil, fmt.Errorf("%w: GOST-DSA digest length must equal curve bit length", ErrInvalidRequest)
	}
	order := c.N.Modulus()
	e := new(big.Int).Mod(new(big.Int).SetBytes(digest), order)
	if e.Sign() == 0 {
		e = big.NewInt(1)
	}
	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})

	for {
		k, err := ecmath.RandomScalar(order)
		if err != nil {
			return nil, err
		}
		point := c.MulVarBase(k, g)
		affine, err := c.ToAffine(point)
		if err != nil {
			continue
		}
		r := new(big.Int).Mod(affine.X, order)
		if r.Sign() == 0 {
			continue
		}
		s := new(big.Int).Mul(r, priv)
		s.Add(s, new(big.Int).Mul(k, e))
		s.Mod(s, order)
		if s.Sign() == 0 {
			continue
		}
		return &DSASignature{R: r, S: s}, nil
	}
}

// GOSTDSAVerify verifies a GOST R 34.10-2012 signature over curve c.
func GOSTDSAVerify(c *ecmath.WeierstrassCurve, pub ecmath.JacobianPoint, digest []byte, sig *DSASignature) error {
	if err := checkLibState(); err != nil {
		return err
	}
	if len(digest)*8 != c.BitSize {
		return fmt.Errorf("%w: GOST-DSA digest length must equal curve bit length", ErrInvalidRequest)
	}
	order := c.N.Modulus()
	if sig.R.Sign() <= 0 || sig.R.Cmp(order) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(order) >= 0 {
		return ErrVerificationFailed
	}
	e := new(big.Int).Mod(new(big.Int).SetBytes(digest), order)
	if e.Sign() == 0 {
		e = big.NewInt(1)
	}
	v := new(big.Int).ModInverse(e, order)
	if v == nil {
		return ErrVerificationFailed
	}
	z1 := new(big.Int).Mul(sig.S, v)
	z1.Mod(z1, order)
	z2 := new(big.Int).Mul(new(big.Int).Neg(sig.R), v)
	z2.Mod(z2, order)

	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})
	p1 := c.MulVarBase(z1, g)
	p2 := c.MulVarBase(z2, pub)
	sum := c.Add(p1, p2)
	affine, err := c.ToAffine(sum)
	if err != nil {
		return ErrVerificationFailed
	}
	got := new(big.Int).Mod(affine.X, order)
	if got.Cmp(sig.R) != 0 {
		return ErrVerificationFailed
	}
	return nil
}

// SerializeFixedWidth encodes a GOST-DSA signature as the fixed-width
// big-endian concatenation s||r (not DER), each padded to byteSize bytes,
// per §6's "GOST-DSA -> fixed-width concatenation (not DER)". §4.4/§6 word
// the pair as "(r, s)", but gnutls's own wire encoder
// (_gnutls_encode_gost_rs, called as encode(sig, &sig.r, &sig.s, size) in
// nettle/pk.c) serializes s before r; this follows that, not the prose order.
func (s *DSASignature) SerializeFixedWidth(byteSize int) []byte {
	out := make([]byte, 2*byteSize)
	s.S.FillBytes(out[:byteSize])
	s.R.FillBytes(out[byteSize:])
	return out
}

// ParseFixedWidthGOSTSignature decodes SerializeFixedWidth's output.
func ParseFixedWidthGOSTSignature(blob []byte) (*DSASignature, error) {
	if len(blob)%2 != 0 {
		return nil, fmt.Errorf("%w: odd-length GOST-DSA signature", ErrInvalidRequest)
	}
	half := len(blob) / 2
	return &DSASignature{
		S: new(big.Int).SetBytes(blob[:half]),
		R: new(big.Int).SetBytes(blob[half:]),
	}, nil
}
