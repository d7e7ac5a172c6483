package pkdispatch

import (
	"math/big"
	"testing"

	"github.com/c2FmZQ/tlscore/ecmath"
)

func TestDHDeriveAgreesBothSides(t *testing.T) {
	p := big.NewInt(283)
	q := big.NewInt(47)
	g := big.NewInt(60)
	params := &DHParams{P: p, G: g, Q: q}

	xa := big.NewInt(5)
	xb := big.NewInt(9)
	ya := new(big.Int).Exp(g, xa, p)
	yb := new(big.Int).Exp(g, xb, p)

	secretA, err := DHDerive(params, xa, yb, true)
	if err != nil {
		t.Fatal(err)
	}
	secretB, err := DHDerive(params, xb, ya, true)
	if err != nil {
		t.Fatal(err)
	}
	if secretA.Cmp(secretB) != 0 {
		t.Fatalf("DH shared secrets disagree: %v vs %v", secretA, secretB)
	}
}

func TestDHDeriveRejectsOutOfRangePublicValue(t *testing.T) {
	p := big.NewInt(283)
	params := &DHParams{P: p, G: big.NewInt(60), Q: big.NewInt(47)}
	if _, err := DHDerive(params, big.NewInt(5), big.NewInt(1), false); err == nil {
		t.Fatal("expected error for Y=1")
	}
	if _, err := DHDerive(params, big.NewInt(5), new(big.Int).Sub(p, big.NewInt(1)), false); err == nil {
		t.Fatal("expected error for Y=p-1")
	}
}

func TestECDHDeriveWeierstrassAgreesBothSides(t *testing.T) {
	c := toyCurve()
	g := ecmath.ToJacobian(ecmath.AffinePoint{X: c.Gx, Y: c.Gy})
	dA := big.NewInt(7)
	dB := big.NewInt(11)
	qA := c.MulVarBase(dA, g)
	qB := c.MulVarBase(dB, g)

	secretA, err := ECDHDeriveWeierstrass(c, dA, qB)
	if err != nil {
		t.Fatal(err)
	}
	secretB, err := ECDHDeriveWeierstrass(c, dB, qA)
	if err != nil {
		t.Fatal(err)
	}
	if secretA.Cmp(secretB) != 0 {
		t.Fatalf("ECDH shared secrets disagree: %v vs %v", secretA, secretB)
	}
}
