package pkdispatch

import (
	"fmt"
	"hash"
	"math/big"

	"github.com/c2FmZQ/tlscore/ecmath"
)

// ECDSASign signs digest over curve c with private scalar priv, either with
// a random nonce or, when reproducible is set, RFC 6979 deterministic k.
func ECDSASign(c *ecmath.WeierstrassCurve, priv *big.Int, digest []byte, reproducible bool, newHash func() hash.Hash) (*DSASignature, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	if reproducible && !deterministicAllowed(true) {
		return nil, fmt.Errorf("%w: deterministic ECDSA signing disallowed under current policy", ErrInvalidRequest)
	}
	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})
	order := c.N.Modulus()
	z := truncateDigest(digest, order.BitLen())

	for {
		var k *big.Int
		if reproducible {
			k = rfc6979Nonce(order, priv, digest, newHash)
		} else {
			var err error
			k, err = ecmath.RandomScalar(order)
			if err != nil {
				return nil, err
			}
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
		kInv := new(big.Int).ModInverse(k, order)
		if kInv == nil {
			continue
		}
		s := new(big.Int).Mul(r, priv)
		s.Add(s, z)
		s.Mul(s, kInv)
		s.Mod(s, order)
		if s.Sign() == 0 {
			continue
		}
		return &DSASignature{R: r, S: s}, nil
	}
}

// ECDSAVerify verifies an ECDSA signature over curve c against public point
// pub.
func ECDSAVerify(c *ecmath.WeierstrassCurve, pub ecmath.JacobianPoint, digest []byte, sig *DSASignature) error {
	if err := checkLibState(); err != nil {
		return err
	}
	order := c.N.Modulus()
	if sig.R.Sign() <= 0 || sig.R.Cmp(order) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(order) >= 0 {
		return fmt.Errorf("%w: r or s out of range", ErrVerificationFailed)
	}
	z := truncateDigest(digest, order.BitLen())
	w := new(big.Int).ModInverse(sig.S, order)
	if w == nil {
		return ErrVerificationFailed
	}
	u1 := new(big.Int).Mul(z, w)
	u1.Mod(u1, order)
	u2 := new(big.Int).Mul(sig.R, w)
	u2.Mod(u2, order)

	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})
	p1 := c.MulVarBase(u1, g)
	p2 := c.MulVarBase(u2, pub)
	sum := c.Add(p1, p2)
	affine, err := c.ToAffine(sum)
	if err != nil {
		return ErrVerificationFailed
	}
	v := new(big.Int).Mod(affine.X, order)
	if v.Cmp(sig.R) != 0 {
		return ErrVerificationFailed
	}
	return nil
}
