package pkdispatch

import (
	"math/big"

	"github.com/c2FmZQ/tlscore/asn1tree"
)

// EncodeDSASignature serialises an (r, s) pair as DER SEQUENCE { r INTEGER,
// s INTEGER }, the wire form shared by DSA and ECDSA per §6.
func EncodeDSASignature(sig *DSASignature) ([]byte, error) {
	t := asn1tree.NewTree()
	seq := t.New("", asn1tree.TagSequence, 0)
	r := t.New("r", asn1tree.TagInteger, 0)
	t.Node(r).Value = twosComplement(sig.R)
	s := t.New("s", asn1tree.TagInteger, 0)
	t.Node(s).Value = twosComplement(sig.S)
	t.AppendChild(seq, r)
	t.AppendChild(seq, s)
	t.SetRoot(seq)
	return asn1tree.Encode(t, seq)
}

// DecodeDSASignature parses a DER SEQUENCE { r INTEGER, s INTEGER }.
func DecodeDSASignature(der []byte) (*DSASignature, error) {
	tpl := asn1tree.NewTree()
	seq := tpl.New("", asn1tree.TagSequence, 0)
	r := tpl.New("r", asn1tree.TagInteger, 0)
	s := tpl.New("s", asn1tree.TagInteger, 0)
	tpl.AppendChild(seq, r)
	tpl.AppendChild(seq, s)
	tpl.SetRoot(seq)

	out, _, err := asn1tree.Decode(tpl, seq, der)
	if err != nil {
		return nil, err
	}
	children := out.Children(out.Root())
	return &DSASignature{
		R: new(big.Int).SetBytes(out.Node(children[0]).Value),
		S: new(big.Int).SetBytes(out.Node(children[1]).Value),
	}, nil
}

// twosComplement returns v's minimal two's complement encoding, assuming v
// is non-negative (the DSA/ECDSA/GOST r, s values this package produces
// always are, since they are already reduced mod a positive order) but
// still prepending a 0x00 pad byte when the high bit would otherwise flip
// the sign.
func twosComplement(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) == 0 {
		return []byte{0}
	}
	if b[0]&0x80 != 0 {
		out := make([]byte, len(b)+1)
		copy(out[1:], b)
		return out
	}
	return b
}
