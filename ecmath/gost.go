package ecmath

import "math/big"

// VKOSharedSecret computes the GOST R 34.10-2012 VKO key-agreement value:
// [d·ukm mod q]·Q, returned as (x_le || y_le) each padded to ceil(bit_size/8)
// bytes, little-endian, per RFC 7836. ukm is consumed as a little-endian
// integer; a blob whose little-endian value would be zero is treated as 1,
// per the reference's "padded with a trailing 1 if zero" rule.
func VKOSharedSecret(c *WeierstrassCurve, d *big.Int, q JacobianPoint, ukm []byte) ([]byte, error) {
	ukmInt := leBytesToInt(ukm)
	if ukmInt.Sign() == 0 {
		ukmInt = big.NewInt(1)
	}
	scalar := c.N.Mul(d, ukmInt)
	shared := c.MulVarBase(scalar, q)
	affine, err := c.ToAffine(shared)
	if err != nil {
		return nil, err
	}
	byteSize := (c.BitSize + 7) / 8
	out := make([]byte, 2*byteSize)
	copy(out[:byteSize], intToLEBytes(affine.X, byteSize))
	copy(out[byteSize:], intToLEBytes(affine.Y, byteSize))
	return out, nil
}

// UnmaskKey reverses the GOST masked-private-key blinding scheme: the
// masked blob is K_0 || M_1 || M_2 || ... (each chunk byteSize bytes,
// little-endian), and the true key is K_0·M_1·M_2·… mod q, computed here by
// iteratively multiplying and reducing leftmost to rightmost exactly as the
// reference's in-place mpz routine does.
func UnmaskKey(q *Field, masked []byte, byteSize int) (*big.Int, error) {
	if len(masked) == 0 || len(masked)%byteSize != 0 {
		return nil, ErrInvalidScalar
	}
	chunks := len(masked) / byteSize
	key := leBytesToInt(masked[:byteSize])
	for i := 1; i < chunks; i++ {
		m := leBytesToInt(masked[i*byteSize : (i+1)*byteSize])
		key = q.Mul(key, m)
	}
	return key, nil
}

func leBytesToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

func intToLEBytes(v *big.Int, size int) []byte {
	be := v.FillBytes(make([]byte, size))
	out := make([]byte, size)
	for i, b := range be {
		out[size-1-i] = b
	}
	return out
}
