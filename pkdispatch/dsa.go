package pkdispatch

import (
	"crypto/rand"
	"errors"
	"fmt"
	"hash"
	"math/big"
)

// DSAParams is the classic discrete-log DSA key: p, q, g public domain
// parameters; y the public key; x the private key (nil for a public-only
// key).
type DSAParams struct {
	P, Q, G *big.Int
	Y       *big.Int
	X       *big.Int
}

// DSASignature is the (r, s) pair; serialization to/from DER
// SEQUENCE{r,s} lives in signature.go, shared with ECDSA.
type DSASignature struct {
	R, S *big.Int
}

// DSASign signs digest with the given parameters. reproducible requests
// RFC 6979 deterministic k; newHash must match the hash that produced
// digest. Policy: deterministic signing is refused outside self-test under
// FIPS mode (ErrInvalidRequest), matching §4.4.
func DSASign(p *DSAParams, digest []byte, reproducible bool, newHash func() hash.Hash) (*DSASignature, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	if p.X == nil {
		return nil, ErrInvalidRequest
	}
	if reproducible && !deterministicAllowed(true) {
		return nil, fmt.Errorf("%w: deterministic DSA signing disallowed under current policy", ErrInvalidRequest)
	}

	z := truncateDigest(digest, p.Q.BitLen())

	for {
		var k *big.Int
		if reproducible {
			k = rfc6979Nonce(p.Q, p.X, digest, newHash)
		} else {
			var err error
			k, err = randFieldElement(p.Q)
			if err != nil {
				return nil, err
			}
		}
		r := new(big.Int).Exp(p.G, k, p.P)
		r.Mod(r, p.Q)
		if r.Sign() == 0 {
			continue
		}
		kInv := new(big.Int).ModInverse(k, p.Q)
		if kInv == nil {
			continue
		}
		s := new(big.Int).Mul(r, p.X)
		s.Add(s, z)
		s.Mul(s, kInv)
		s.Mod(s, p.Q)
		if s.Sign() == 0 {
			continue
		}
		return &DSASignature{R: r, S: s}, nil
	}
}

// DSAVerify verifies a DSA signature.
func DSAVerify(p *DSAParams, digest []byte, sig *DSASignature) error {
	if err := checkLibState(); err != nil {
		return err
	}
	if sig.R.Sign() <= 0 || sig.R.Cmp(p.Q) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(p.Q) >= 0 {
		return fmt.Errorf("%w: r or s out of range", ErrVerificationFailed)
	}
	z := truncateDigest(digest, p.Q.BitLen())
	w := new(big.Int).ModInverse(sig.S, p.Q)
	if w == nil {
		return ErrVerificationFailed
	}
	u1 := new(big.Int).Mul(z, w)
	u1.Mod(u1, p.Q)
	u2 := new(big.Int).Mul(sig.R, w)
	u2.Mod(u2, p.Q)

	v1 := new(big.Int).Exp(p.G, u1, p.P)
	v2 := new(big.Int).Exp(p.Y, u2, p.P)
	v := new(big.Int).Mul(v1, v2)
	v.Mod(v, p.P)
	v.Mod(v, p.Q)

	if v.Cmp(sig.R) != 0 {
		return ErrVerificationFailed
	}
	return nil
}

func randFieldElement(order *big.Int) (*big.Int, error) {
	one := big.NewInt(1)
	upper := new(big.Int).Sub(order, one)
	if upper.Sign() <= 0 {
		return nil, errors.New("pkdispatch: degenerate order")
	}
	k, err := randIntN(upper)
	if err != nil {
		return nil, err
	}
	return k.Add(k, one), nil
}

func randIntN(max *big.Int) (*big.Int, error) {
	return rand.Int(rand.Reader, max)
}
