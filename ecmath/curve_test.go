package ecmath

import (
	"math/big"
	"testing"
)

// toyCurve is y² = x³ + 2x + 3 over GF(97), a small curve whose point
// arithmetic was cross-checked against an independent implementation; it
// exercises the Jacobian add/double formulas without needing a production
// curve's 256-bit constants transcribed by hand.
func toyCurve() *WeierstrassCurve {
	p := big.NewInt(97)
	n := big.NewInt(50) // order of G below
	return &WeierstrassCurve{
		Name: "toy97",
		P:    NewField(p),
		N:    NewField(n),
		A:    big.NewInt(2),
		B:    big.NewInt(3),
		Gx:   big.NewInt(0),
		Gy:   big.NewInt(10),
		BitSize: 7,
	}
}

func TestWeierstrassGeneratorOnCurve(t *testing.T) {
	c := toyCurve()
	if !c.IsOnCurve(AffinePoint{X: c.Gx, Y: c.Gy}) {
		t.Fatal("generator not on curve")
	}
}

func TestWeierstrassAddMatchesDoubleAndAdd(t *testing.T) {
	c := toyCurve()
	g := ToJacobian(AffinePoint{X: c.Gx, Y: c.Gy})

	seven := c.MulVarBase(big.NewInt(7), g)
	eleven := c.MulVarBase(big.NewInt(11), g)
	sum := c.Add(seven, eleven)
	eighteen := c.MulVarBase(big.NewInt(18), g)

	sumAff, err := c.ToAffine(sum)
	if err != nil {
		t.Fatal(err)
	}
	wantAff, err := c.ToAffine(eighteen)
	if err != nil {
		t.Fatal(err)
	}
	if sumAff.X.Cmp(wantAff.X) != 0 || sumAff.Y.Cmp(wantAff.Y) != 0 {
		t.Fatalf("7G+11G = (%v,%v), want 18G = (%v,%v)", sumAff.X, sumAff.Y, wantAff.X, wantAff.Y)
	}

	if sumAff.X.Int64() != 21 || sumAff.Y.Int64() != 73 {
		t.Fatalf("got (%v,%v), want (21,73)", sumAff.X, sumAff.Y)
	}
	if !c.IsOnCurve(sumAff) {
		t.Fatal("result not on curve")
	}
}

func TestWeierstrassDoubleMatchesAddToSelf(t *testing.T) {
	c := toyCurve()
	g := ToJacobian(AffinePoint{X: c.Gx, Y: c.Gy})
	doubled := c.Double(g)
	added := c.Add(g, g)
	da, _ := c.ToAffine(doubled)
	aa, _ := c.ToAffine(added)
	if da.X.Cmp(aa.X) != 0 || da.Y.Cmp(aa.Y) != 0 {
		t.Fatalf("Double != Add(g,g): %v vs %v", da, aa)
	}
}

func TestWeierstrassOrderReturnsInfinity(t *testing.T) {
	c := toyCurve()
	g := ToJacobian(AffinePoint{X: c.Gx, Y: c.Gy})
	result := c.MulVarBase(big.NewInt(50), g)
	if !result.IsInfinity() {
		t.Fatal("50G should be the point at infinity for this toy curve's order")
	}
}

func TestPippengerMatchesVarBase(t *testing.T) {
	c := toyCurve()
	g := ToJacobian(AffinePoint{X: c.Gx, Y: c.Gy})
	table := c.BuildPippengerTable(g, 7, 1)

	for _, k := range []int64{1, 2, 5, 18, 49} {
		got := c.MulFixedBase(table, big.NewInt(k))
		want := c.MulVarBase(big.NewInt(k), g)
		ga, errG := c.ToAffine(got)
		wa, errW := c.ToAffine(want)
		if (errG == nil) != (errW == nil) {
			t.Fatalf("k=%d: infinity mismatch", k)
		}
		if errG == nil && (ga.X.Cmp(wa.X) != 0 || ga.Y.Cmp(wa.Y) != 0) {
			t.Fatalf("k=%d: Pippenger (%v,%v) != windowed (%v,%v)", k, ga.X, ga.Y, wa.X, wa.Y)
		}
	}
}
