package ecmath

import (
	"math/big"
	"testing"
)

// toyEdwards is a·x²+y² = 1+d·x²·y² over GF(101) with a=-1, d=2, a small
// curve whose arithmetic was cross-checked against an independent
// implementation of the textbook (non-projective) twisted-Edwards
// addition law.
func toyEdwards() *EdwardsCurve {
	p := big.NewInt(101)
	return &EdwardsCurve{
		Name: "toyEd101",
		P:    NewField(p),
		N:    NewField(big.NewInt(101)), // order unused by these tests
		A:    big.NewInt(100),           // -1 mod 101
		D:    big.NewInt(2),
		Gx:   big.NewInt(4),
		Gy:   big.NewInt(25),
	}
}

func TestEdwardsDoubleMatchesKnownVector(t *testing.T) {
	c := toyEdwards()
	g := ToEdwards(AffinePoint{X: c.Gx, Y: c.Gy})
	d2 := c.DupTH(g)
	aff, err := c.ToAffine(d2)
	if err != nil {
		t.Fatal(err)
	}
	if aff.X.Int64() != 33 || aff.Y.Int64() != 66 {
		t.Fatalf("2G = (%v,%v), want (33,66)", aff.X, aff.Y)
	}
}

func TestEdwardsAddMatchesKnownVector(t *testing.T) {
	c := toyEdwards()
	g := ToEdwards(AffinePoint{X: c.Gx, Y: c.Gy})
	two := c.ScalarMul(big.NewInt(2), g)
	three := c.ScalarMul(big.NewInt(3), g)
	sum := c.AddTH(two, three)
	aff, err := c.ToAffine(sum)
	if err != nil {
		t.Fatal(err)
	}
	if aff.X.Int64() != 14 || aff.Y.Int64() != 85 {
		t.Fatalf("2G+3G = (%v,%v), want (14,85)", aff.X, aff.Y)
	}
}

func TestEdwardsScalarMulMatchesAddChain(t *testing.T) {
	c := toyEdwards()
	g := ToEdwards(AffinePoint{X: c.Gx, Y: c.Gy})
	five := c.ScalarMul(big.NewInt(5), g)
	aff, err := c.ToAffine(five)
	if err != nil {
		t.Fatal(err)
	}
	if aff.X.Int64() != 14 || aff.Y.Int64() != 85 {
		t.Fatalf("5G = (%v,%v), want (14,85)", aff.X, aff.Y)
	}
}

// toySqrtRatioEdwards is a·x²+y² = 1+d·x²·y² over GF(23), a=-1, d=5: unlike
// toyEdwards (modulus 101 ≡ 1 mod 4), 23 ≡ 3 mod 4, the case SqrtRatio (and
// so RecoverX) actually implements.
func toySqrtRatioEdwards() *EdwardsCurve {
	p := big.NewInt(23)
	return &EdwardsCurve{
		Name: "toySqrtRatio23",
		P:    NewField(p),
		N:    NewField(big.NewInt(23)),
		A:    big.NewInt(22), // -1 mod 23
		D:    big.NewInt(5),
		Gx:   big.NewInt(6),
		Gy:   big.NewInt(9),
	}
}

func TestRecoverXMatchesGenerator(t *testing.T) {
	c := toySqrtRatioEdwards()
	x, err := c.RecoverX(c.Gy, false)
	if err != nil {
		t.Fatal(err)
	}
	if x.Cmp(c.Gx) != 0 {
		t.Fatalf("RecoverX(Gy, false) = %v, want %v", x, c.Gx)
	}
	negX, err := c.RecoverX(c.Gy, true)
	if err != nil {
		t.Fatal(err)
	}
	want := c.P.Neg(c.Gx)
	if negX.Cmp(want) != 0 {
		t.Fatalf("RecoverX(Gy, true) = %v, want %v", negX, want)
	}
}

func TestRecoverXRejectsNonResidue(t *testing.T) {
	c := toySqrtRatioEdwards()
	// y=2 gives (1-y²)/(a-d·y²) a non-residue on this toy curve.
	if _, err := c.RecoverX(big.NewInt(2), false); err == nil {
		t.Fatal("expected ErrNotOnCurve")
	}
}

// toyUntwistedEdwards is x²+y² = 1+d·x²·y² over GF(101) with a=1 (the
// Curve448-style untwisted homogeneous form), d=2, cross-checked against an
// independent textbook affine implementation of the same addition law.
func toyUntwistedEdwards() *EdwardsCurve {
	p := big.NewInt(101)
	return &EdwardsCurve{
		Name: "toyEH101",
		P:    NewField(p),
		N:    NewField(big.NewInt(101)), // order unused by these tests
		A:    big.NewInt(1),
		D:    big.NewInt(2),
		Gx:   big.NewInt(2),
		Gy:   big.NewInt(17),
	}
}

func TestDupEHMatchesKnownVector(t *testing.T) {
	c := toyUntwistedEdwards()
	g := ToEdwards(AffinePoint{X: c.Gx, Y: c.Gy})
	d2 := c.DupEH(g)
	aff, err := c.ToAffine(d2)
	if err != nil {
		t.Fatal(err)
	}
	if aff.X.Int64() != 74 || aff.Y.Int64() != 49 {
		t.Fatalf("2G = (%v,%v), want (74,49)", aff.X, aff.Y)
	}
}

// TestScalarMulDispatchesDupEHForUntwistedCurve exercises ScalarMul's a=1
// branch (DupEH), the untwisted form Curve448 uses; DupTH would give a
// different, wrong answer for this curve since its F=-C+D step assumes a=-1.
func TestScalarMulDispatchesDupEHForUntwistedCurve(t *testing.T) {
	c := toyUntwistedEdwards()
	g := ToEdwards(AffinePoint{X: c.Gx, Y: c.Gy})
	for _, tc := range []struct {
		k    int64
		x, y int64
	}{
		{2, 74, 49},
		{3, 34, 63},
		{5, 36, 93},
		{7, 91, 13},
	} {
		got := c.ScalarMul(big.NewInt(tc.k), g)
		aff, err := c.ToAffine(got)
		if err != nil {
			t.Fatalf("k=%d: %v", tc.k, err)
		}
		if aff.X.Int64() != tc.x || aff.Y.Int64() != tc.y {
			t.Fatalf("%dG = (%v,%v), want (%d,%d)", tc.k, aff.X, aff.Y, tc.x, tc.y)
		}
	}
}
