package pkdispatch

import (
	"crypto/hmac"
	"hash"
	"math/big"
)

// rfc6979Nonce derives the deterministic per-signature nonce k from RFC 6979
// §3.2, used by both DSA and ECDSA sign when deterministic signing is
// selected. order is the group/subgroup order q; priv is the private
// scalar x; digest is the (possibly already bit-length-truncated) message
// hash; newHash constructs a fresh instance of the same hash used to
// produce digest.
func rfc6979Nonce(order, priv *big.Int, digest []byte, newHash func() hash.Hash) *big.Int {
	qlen := order.BitLen()
	rlen := (qlen + 7) / 8 * 8
	holen := newHash().Size()

	bits2int := func(b []byte) *big.Int {
		v := new(big.Int).SetBytes(b)
		blen := len(b) * 8
		if blen > qlen {
			v.Rsh(v, uint(blen-qlen))
		}
		return v
	}
	bits2octets := func(b []byte) []byte {
		z1 := bits2int(b)
		z2 := new(big.Int).Mod(z1, order)
		return int2octets(z2, rlen/8)
	}

	x := int2octets(priv, rlen/8)
	h1 := bits2octets(digest)

	v := make([]byte, holen)
	for i := range v {
		v[i] = 0x01
	}
	k := make([]byte, holen)

	mac := hmac.New(newHash, k)
	mac.Write(v)
	mac.Write([]byte{0x00})
	mac.Write(x)
	mac.Write(h1)
	k = mac.Sum(nil)

	mac = hmac.New(newHash, k)
	mac.Write(v)
	v = mac.Sum(nil)

	mac = hmac.New(newHash, k)
	mac.Write(v)
	mac.Write([]byte{0x01})
	mac.Write(x)
	mac.Write(h1)
	k = mac.Sum(nil)

	mac = hmac.New(newHash, k)
	mac.Write(v)
	v = mac.Sum(nil)

	for {
		var t []byte
		for len(t) < rlen/8 {
			mac = hmac.New(newHash, k)
			mac.Write(v)
			v = mac.Sum(nil)
			t = append(t, v...)
		}
		candidate := bits2int(t)
		if candidate.Sign() > 0 && candidate.Cmp(order) < 0 {
			return candidate
		}
		mac = hmac.New(newHash, k)
		mac.Write(v)
		mac.Write([]byte{0x00})
		k = mac.Sum(nil)

		mac = hmac.New(newHash, k)
		mac.Write(v)
		v = mac.Sum(nil)
	}
}

func int2octets(v *big.Int, size int) []byte {
	return v.FillBytes(make([]byte, size))
}

// truncateDigest left-truncates digest to the bit length of q, per the
// standard rule referenced in §4.4 ("Digest length is truncated to the bit
// length of q").
func truncateDigest(digest []byte, qBitLen int) *big.Int {
	v := new(big.Int).SetBytes(digest)
	if excess := len(digest)*8 - qBitLen; excess > 0 {
		v.Rsh(v, uint(excess))
	}
	return v
}
