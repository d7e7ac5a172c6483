package ecmath

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"
)

// S3: RFC 7748 §6.1 X25519 test vector.
func TestX25519RFC7748Vector(t *testing.T) {
	priv, _ := hex.DecodeString("77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a")
	peer, _ := hex.DecodeString("de9edb7d7b7dc1b4d35b61c2ece435373f8343c85b78674dadfc7e146f882b4f")
	want, _ := hex.DecodeString("4a5d9d5ba4ce2de1728e3bf480350f25e07e21c947d19e3376f09b3c1e161742")

	var s, p [32]byte
	copy(s[:], priv)
	copy(p[:], peer)

	got, err := X25519(s, p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[:], want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

// TestMontgomeryLadderMatchesRFC7748Vector exercises ecc_mul_m (Ladder)
// directly against the same RFC 7748 §6.1 vector TestX25519RFC7748Vector
// checks via the x/crypto oracle, confirming the generic ladder (used for
// curves x/crypto and circl don't cover, e.g. a GOST Montgomery form) agrees
// with the hardened X25519 path on the standard curve.
func TestMontgomeryLadderMatchesRFC7748Vector(t *testing.T) {
	priv, _ := hex.DecodeString("77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a")
	peer, _ := hex.DecodeString("de9edb7d7b7dc1b4d35b61c2ece435373f8343c85b78674dadfc7e146f882b4f")
	want, _ := hex.DecodeString("4a5d9d5ba4ce2de1728e3bf480350f25e07e21c947d19e3376f09b3c1e161742")

	clamped := make([]byte, 32)
	copy(clamped, priv)
	clamped[0] &= 248
	clamped[31] &= 127
	clamped[31] |= 64

	u := make([]byte, 32)
	copy(u, peer)
	u[31] &= 127 // RFC 7748 §5: the u-coordinate's top bit is ignored for X25519.

	k := leBytesToInt(clamped)
	px := leBytesToInt(u)

	p := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(19))
	curve := &MontgomeryCurve{P: NewField(p), A24: big.NewInt(121665), BitHigh: 254, BitLow: 0}

	got := curve.Ladder(k, px)
	gotBytes := intToLEBytes(got, 32)

	if !bytes.Equal(gotBytes, want) {
		t.Fatalf("Ladder result = %x, want %x", gotBytes, want)
	}

	var s, pt [32]byte
	copy(s[:], priv)
	copy(pt[:], peer)
	oracle, err := X25519(s, pt)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotBytes, oracle[:]) {
		t.Fatalf("Ladder result %x disagrees with X25519 oracle %x", gotBytes, oracle)
	}
}

func TestX25519RejectsZeroSharedSecret(t *testing.T) {
	var s, p [32]byte
	// The all-zero basepoint multiplied by anything yields the identity,
	// whose encoding is all-zero.
	if _, err := X25519(s, p); err == nil {
		t.Fatal("expected ErrZeroSharedSecret")
	}
}
