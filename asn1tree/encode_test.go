package asn1tree

import (
	"bytes"
	"testing"
)

// S2: SEQUENCE { INTEGER 1, INTEGER -1 } must encode to 30 06 02 01 01 02 01 FF.
func TestEncodeSequenceOfIntegers(t *testing.T) {
	tr := NewTree()
	seq := tr.New("seq", TagSequence, 0)
	a := tr.New("a", TagInteger, 0)
	tr.Node(a).Value = []byte{0x01}
	b := tr.New("b", TagInteger, 0)
	tr.Node(b).Value = []byte{0xFF}
	tr.AppendChild(seq, a)
	tr.AppendChild(seq, b)
	tr.SetRoot(seq)

	got, err := Encode(tr, seq)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0xFF}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

// S5: SET OF with children 04 01 05 / 04 01 02 / 04 01 09 must serialize in
// ascending order: 04 01 02, 04 01 05, 04 01 09.
func TestEncodeSetOfCanonicalOrder(t *testing.T) {
	tr := NewTree()
	setOf := tr.New("items", TagSetOf, 0)
	for _, v := range []byte{0x05, 0x02, 0x09} {
		e := tr.New("", TagOctetString, 0)
		tr.Node(e).Value = []byte{v}
		tr.AppendChild(setOf, e)
	}
	tr.SetRoot(setOf)

	got, err := Encode(tr, setOf)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x31, 0x09,
		0x04, 0x01, 0x02,
		0x04, 0x01, 0x05,
		0x04, 0x01, 0x09,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestEncodeSetCanonicalOrderByTag(t *testing.T) {
	tr := NewTree()
	set := tr.New("s", TagSet, 0)
	oct := tr.New("o", TagOctetString, 0)
	tr.Node(oct).Value = []byte{0x01}
	boolean := tr.New("b", TagBoolean, 0)
	tr.Node(boolean).Value = []byte{0x00}
	tr.AppendChild(set, oct)
	tr.AppendChild(set, boolean)
	tr.SetRoot(set)

	got, err := Encode(tr, set)
	if err != nil {
		t.Fatal(err)
	}
	// BOOLEAN (universal tag 1) sorts before OCTET STRING (tag 4).
	want := []byte{0x31, 0x06, 0x01, 0x01, 0x00, 0x04, 0x01, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestEncodeExplicitTag(t *testing.T) {
	tr := NewTree()
	n := tr.New("x", TagInteger, FlagExplicit|FlagTag)
	tr.Node(n).TagNumber = 3
	tr.Node(n).Value = []byte{0x05}
	tr.SetRoot(n)

	got, err := Encode(tr, n)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xA3, 0x03, 0x02, 0x01, 0x05}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestEncodeImplicitTag(t *testing.T) {
	tr := NewTree()
	n := tr.New("x", TagInteger, FlagImplicit|FlagTag)
	tr.Node(n).TagNumber = 2
	tr.Node(n).Value = []byte{0x05}
	tr.SetRoot(n)

	got, err := Encode(tr, n)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x82, 0x01, 0x05}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestEncodeAnyPassthrough(t *testing.T) {
	tr := NewTree()
	n := tr.New("x", TagAny, 0)
	tr.Node(n).Value = []byte{0x04, 0x02, 0xAB, 0xCD}
	tr.SetRoot(n)

	got, err := Encode(tr, n)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, tr.Node(n).Value) {
		t.Fatalf("ANY passthrough mismatch: got % X", got)
	}
}

func TestEncodeChoiceSelectedAlternative(t *testing.T) {
	tr := NewTree()
	ch := tr.New("c", TagChoice, 0)
	alt1 := tr.New("i", TagInteger, 0)
	tr.Node(alt1).Value = []byte{0x07}
	tr.AppendChild(ch, alt1)
	tr.Node(ch).Down = alt1
	tr.SetRoot(ch)

	got, err := Encode(tr, ch)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x02, 0x01, 0x07}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}
