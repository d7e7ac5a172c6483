package pkdispatch

import (
	"fmt"
	"math/big"

	"github.com/c2FmZQ/tlscore/ecmath"
)

// DHParams is a classic finite-field Diffie-Hellman domain: p, g public; q
// the (optional) subgroup order used for the subgroup validation check. The
// peer's public value y and the local private exponent x are passed to
// DHDerive separately.
type DHParams struct {
	P, G, Q *big.Int
}

// DHDerive validates the peer's public value Y is in (1, p-1) and, when q
// is known and either requireSubgroupCheck is true or FIPS mode is on, that
// Y^q ≡ 1 mod p, then returns Y^x mod p. With q known but neither condition
// set, Y is only range-checked.
func DHDerive(params *DHParams, x, y *big.Int, requireSubgroupCheck bool) (*big.Int, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	one := big.NewInt(1)
	pMinus1 := new(big.Int).Sub(params.P, one)
	if y.Cmp(one) <= 0 || y.Cmp(pMinus1) >= 0 {
		return nil, fmt.Errorf("%w: peer DH public value out of range", ErrInvalidRequest)
	}
	if params.Q != nil && (requireSubgroupCheck || FIPSMode()) {
		check := new(big.Int).Exp(y, params.Q, params.P)
		if check.Cmp(one) != 0 {
			return nil, fmt.Errorf("%w: peer DH public value fails subgroup check", ErrInvalidRequest)
		}
	}
	return new(big.Int).Exp(y, x, params.P), nil
}

// ECDHDeriveX25519 derives an X25519 shared secret, rejecting the all-zero
// result per §4.4's "rejects derivation that produces the all-zero shared
// secret".
func ECDHDeriveX25519(priv, peer [32]byte) ([32]byte, error) {
	if err := checkLibState(); err != nil {
		var zero [32]byte
		return zero, err
	}
	out, err := ecmath.X25519(priv, peer)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrZeroSharedSecret, err)
	}
	return out, nil
}

// ECDHDeriveX448 derives an X448 shared secret, rejecting the all-zero
// result.
func ECDHDeriveX448(priv, peer [56]byte) ([56]byte, error) {
	if err := checkLibState(); err != nil {
		var zero [56]byte
		return zero, err
	}
	out, err := ecmath.X448(priv, peer)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrZeroSharedSecret, err)
	}
	return out, nil
}

// ECDHDeriveWeierstrass derives a shared secret over a short-Weierstrass
// curve (used by GOST key agreement and NIST-curve ECDH): priv·PeerPublic,
// returning the affine x-coordinate.
func ECDHDeriveWeierstrass(c *ecmath.WeierstrassCurve, priv *big.Int, peer ecmath.JacobianPoint) (*big.Int, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	shared := c.MulVarBase(priv, peer)
	affine, err := c.ToAffine(shared)
	if err != nil {
		return nil, fmt.Errorf("%w: shared point is the identity", ErrZeroSharedSecret)
	}
	return affine.X, nil
}
