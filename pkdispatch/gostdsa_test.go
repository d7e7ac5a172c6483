package pkdispatch

import (
	"math/big"
	"testing"

	"github.com/c2FmZQ/tlscore/ecmath"
)

func gostToyCurve() *ecmath.WeierstrassCurve {
	c := toyCurve()
	c.BitSize = 8 // byte-aligned, for digests expressed as whole bytes
	return c
}

func TestGOSTDSASignVerify(t *testing.T) {
	c := gostToyCurve()
	priv := big.NewInt(7)
	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})
	pub := c.MulVarBase(priv, g)

	digest := []byte{0x2A} // 1 byte == 8 bits == c.BitSize
	sig, err := GOSTDSASign(c, priv, digest)
	if err != nil {
		t.Fatal(err)
	}
	if err := GOSTDSAVerify(c, pub, digest, sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestGOSTDSARejectsWrongDigestLength(t *testing.T) {
	c := gostToyCurve()
	if _, err := GOSTDSASign(c, big.NewInt(7), []byte{0x01, 0x02}); err == nil {
		t.Fatal("expected digest length mismatch error")
	}
}

func TestGOSTDSAFixedWidthRoundTrip(t *testing.T) {
	sig := &DSASignature{R: big.NewInt(12345), S: big.NewInt(67890)}
	blob := sig.SerializeFixedWidth(4)
	got, err := ParseFixedWidthGOSTSignature(blob)
	if err != nil {
		t.Fatal(err)
	}
	if got.R.Cmp(sig.R) != 0 || got.S.Cmp(sig.S) != 0 {
		t.Fatalf("round trip mismatch: got r=%v s=%v", got.R, got.S)
	}
}
