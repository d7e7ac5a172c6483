package pkdispatch

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/c2FmZQ/tlscore/ecmath"
)

func toyCurve() *ecmath.WeierstrassCurve {
	return &ecmath.WeierstrassCurve{
		Name:    "toy97",
		P:       ecmath.NewField(big.NewInt(97)),
		N:       ecmath.NewField(big.NewInt(50)),
		A:       big.NewInt(2),
		B:       big.NewInt(3),
		Gx:      big.NewInt(0),
		Gy:      big.NewInt(10),
		BitSize: 7,
	}
}

func TestECDSASignVerifyRandomized(t *testing.T) {
	c := toyCurve()
	priv := big.NewInt(7)
	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})
	pub := c.MulVarBase(priv, g)

	digest := sha256.Sum256([]byte("hello"))
	sig, err := ECDSASign(c, priv, digest[:], false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ECDSAVerify(c, pub, digest[:], sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestECDSASignVerifyDeterministic(t *testing.T) {
	c := toyCurve()
	priv := big.NewInt(7)
	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})
	pub := c.MulVarBase(priv, g)
	SetSelfTestMode(true)
	defer SetSelfTestMode(false)

	digest := sha256.Sum256([]byte("hello"))
	sig1, err := ECDSASign(c, priv, digest[:], true, sha256.New)
	if err != nil {
		t.Fatal(err)
	}
	sig2, err := ECDSASign(c, priv, digest[:], true, sha256.New)
	if err != nil {
		t.Fatal(err)
	}
	if sig1.R.Cmp(sig2.R) != 0 || sig1.S.Cmp(sig2.S) != 0 {
		t.Fatal("deterministic signatures should match across calls")
	}
	if err := ECDSAVerify(c, pub, digest[:], sig1); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestECDSADeterministicRefusedUnderFIPSOutsideSelfTest(t *testing.T) {
	c := toyCurve()
	priv := big.NewInt(7)
	SetFIPSMode(true)
	defer SetFIPSMode(false)

	digest := sha256.Sum256([]byte("hello"))
	if _, err := ECDSASign(c, priv, digest[:], true, sha256.New); err == nil {
		t.Fatal("expected deterministic signing to be refused under FIPS outside self-test")
	}
}

func TestECDSAVerifyRejectsTamperedSignature(t *testing.T) {
	c := toyCurve()
	priv := big.NewInt(7)
	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})
	pub := c.MulVarBase(priv, g)

	digest := sha256.Sum256([]byte("hello"))
	sig, err := ECDSASign(c, priv, digest[:], false, nil)
	if err != nil {
		t.Fatal(err)
	}
	sig.S.Add(sig.S, big.NewInt(1))
	if err := ECDSAVerify(c, pub, digest[:], sig); err == nil {
		t.Fatal("expected verification failure for tampered signature")
	}
}
