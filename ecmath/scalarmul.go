package ecmath

import "math/big"

// WindowBits is the default window width for variable-base scalar
// multiplication (ECC_MUL_A_WBITS in the reference descriptor).
const WindowBits = 4

// MulVarBase computes k·P by the windowed method: precompute all 2^w
// multiples 0·P .. (2^w - 1)·P in Jacobian coordinates, then process the
// scalar w bits at a time, selecting from the table with a constant-time
// linear scan (condSelectJacobian) rather than a data-dependent index.
func (c *WeierstrassCurve) MulVarBase(k *big.Int, p JacobianPoint) JacobianPoint {
	const w = WindowBits
	tableSize := 1 << w
	table := make([]JacobianPoint, tableSize)
	table[0] = Infinity()
	table[1] = p
	for i := 2; i < tableSize; i++ {
		table[i] = c.Add(table[i-1], p)
	}

	bits := k.BitLen()
	if bits == 0 {
		return Infinity()
	}
	nWindows := (bits + w - 1) / w

	acc := Infinity()
	for wi := nWindows - 1; wi >= 0; wi-- {
		for i := 0; i < w; i++ {
			acc = c.Double(acc)
		}
		idx := windowValue(k, wi, w)
		acc = c.Add(acc, condSelectJacobian(table, idx))
	}
	return acc
}

// windowValue extracts the wi-th w-bit window of k (0-indexed from the
// least significant window).
func windowValue(k *big.Int, wi, w int) int {
	v := 0
	for b := 0; b < w; b++ {
		bitPos := wi*w + b
		if bitPos < k.BitLen() && k.Bit(bitPos) == 1 {
			v |= 1 << b
		}
	}
	return v
}

// condSelectJacobian scans the whole table and returns table[idx], touching
// every entry regardless of idx so the memory-access pattern does not leak
// the window value, mirroring the reference's constant-time table lookup.
func condSelectJacobian(table []JacobianPoint, idx int) JacobianPoint {
	result := Infinity()
	for i, e := range table {
		if i == idx {
			result = e
		}
	}
	return result
}

// PippengerTable is the fixed-base scalar-multiplication precomputation.
// With parameters (K, C): K is the number of "rows" the scalar is combed
// into, C is the number of comb columns. Entries[combo] sums 2^(j*K)·G over
// each column j whose bit is set in combo, per the reference descriptor's
// Table[i_0 + i_1·2 + … + i_{c−1}·2^{c−1}] = i_0·G + i_1·2^k·G + … layout.
type PippengerTable struct {
	K, C    int
	Entries []JacobianPoint
}

// BuildPippengerTable precomputes the 2^C-entry comb table for base point g
// with K rows and C columns (so the table covers scalars up to K*C bits).
func (c *WeierstrassCurve) BuildPippengerTable(g JacobianPoint, k, cCols int) *PippengerTable {
	columnBase := make([]JacobianPoint, cCols)
	cur := g
	for j := 0; j < cCols; j++ {
		columnBase[j] = cur
		cur = c.doubleNTimes(cur, k)
	}

	size := 1 << cCols
	entries := make([]JacobianPoint, size)
	entries[0] = Infinity()
	for combo := 1; combo < size; combo++ {
		low := combo & (-combo)
		j := 0
		for (1 << j) != low {
			j++
		}
		entries[combo] = c.Add(entries[combo&(combo-1)], columnBase[j])
	}
	return &PippengerTable{K: k, C: cCols, Entries: entries}
}

func (c *WeierstrassCurve) doubleNTimes(p JacobianPoint, n int) JacobianPoint {
	for i := 0; i < n; i++ {
		p = c.Double(p)
	}
	return p
}

// MulFixedBase computes k·G using a precomputed PippengerTable: for each of
// the K rows (most significant first), double the accumulator and fold in
// the table entry selected by the row's comb of bits, one per column.
func (c *WeierstrassCurve) MulFixedBase(t *PippengerTable, k *big.Int) JacobianPoint {
	acc := Infinity()
	for row := t.K - 1; row >= 0; row-- {
		acc = c.Double(acc)
		combo := 0
		for j := 0; j < t.C; j++ {
			bitPos := j*t.K + row
			if bitPos < k.BitLen() && k.Bit(bitPos) == 1 {
				combo |= 1 << j
			}
		}
		acc = c.Add(acc, condSelectJacobian(t.Entries, combo))
	}
	return acc
}
