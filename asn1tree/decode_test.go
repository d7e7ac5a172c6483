package asn1tree

import (
	"bytes"
	"testing"
)

func buildSequenceTemplate() (*Tree, NodeID) {
	tr := NewTree()
	seq := tr.New("seq", TagSequence, 0)
	a := tr.New("a", TagInteger, 0)
	b := tr.New("b", TagInteger, 0)
	tr.AppendChild(seq, a)
	tr.AppendChild(seq, b)
	tr.SetRoot(seq)
	return tr, seq
}

func TestDecodeSequenceOfIntegers(t *testing.T) {
	tpl, root := buildSequenceTemplate()
	der := []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0xFF}

	out, n, err := Decode(tpl, root, der)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(der) {
		t.Fatalf("consumed %d, want %d", n, len(der))
	}
	children := out.Children(out.Root())
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	if !bytes.Equal(out.Node(children[0]).Value, []byte{0x01}) {
		t.Fatalf("child 0 = % X", out.Node(children[0]).Value)
	}
	if !bytes.Equal(out.Node(children[1]).Value, []byte{0xFF}) {
		t.Fatalf("child 1 = % X", out.Node(children[1]).Value)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tr := NewTree()
	seq := tr.New("seq", TagSequence, 0)
	a := tr.New("a", TagInteger, 0)
	tr.Node(a).Value = []byte{0x2A}
	oct := tr.New("o", TagOctetString, 0)
	tr.Node(oct).Value = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	tr.AppendChild(seq, a)
	tr.AppendChild(seq, oct)
	tr.SetRoot(seq)

	der, err := Encode(tr, seq)
	if err != nil {
		t.Fatal(err)
	}

	tpl := NewTree()
	tseq := tpl.New("seq", TagSequence, 0)
	ta := tpl.New("a", TagInteger, 0)
	toct := tpl.New("o", TagOctetString, 0)
	tpl.AppendChild(tseq, ta)
	tpl.AppendChild(tseq, toct)
	tpl.SetRoot(tseq)

	out, n, err := Decode(tpl, tseq, der)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(der) {
		t.Fatalf("consumed %d of %d bytes", n, len(der))
	}
	redone, err := Encode(out, out.Root())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(redone, der) {
		t.Fatalf("round trip mismatch: got % X, want % X", redone, der)
	}
}

func TestDecodeRejectsNonMinimalLength(t *testing.T) {
	tpl, root := buildSequenceTemplate()
	// Length 0x81 0x06 is a non-minimal encoding of 6.
	der := []byte{0x30, 0x81, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0xFF}
	if _, _, err := Decode(tpl, root, der); err == nil {
		t.Fatal("expected error for non-minimal length")
	}
}

func TestDecodeOptionalSequenceMember(t *testing.T) {
	tpl := NewTree()
	seq := tpl.New("seq", TagSequence, 0)
	a := tpl.New("a", TagInteger, 0)
	opt := tpl.New("opt", TagOctetString, FlagOption)
	tpl.AppendChild(seq, a)
	tpl.AppendChild(seq, opt)
	tpl.SetRoot(seq)

	der := []byte{0x30, 0x03, 0x02, 0x01, 0x09}
	out, n, err := Decode(tpl, seq, der)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(der) {
		t.Fatalf("consumed %d of %d", n, len(der))
	}
	if len(out.Children(out.Root())) != 1 {
		t.Fatalf("expected optional member to be skipped")
	}
}

// TestDecodeExplicitSequence decodes an EXPLICIT-tagged SEQUENCE, the
// constructed-inner-type case that used to dereference a nil node from a
// mismatched template arena.
func TestDecodeExplicitSequence(t *testing.T) {
	tpl := NewTree()
	outer := tpl.New("outer", TagSequence, FlagExplicit|FlagTag)
	tpl.Node(outer).TagNumber = 3
	a := tpl.New("a", TagInteger, 0)
	b := tpl.New("b", TagInteger, 0)
	tpl.AppendChild(outer, a)
	tpl.AppendChild(outer, b)
	tpl.SetRoot(outer)

	der := []byte{0xA3, 0x08, 0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0xFF}

	out, n, err := Decode(tpl, outer, der)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(der) {
		t.Fatalf("consumed %d of %d", n, len(der))
	}
	children := out.Children(out.Root())
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	if !bytes.Equal(out.Node(children[0]).Value, []byte{0x01}) {
		t.Fatalf("child 0 = % X", out.Node(children[0]).Value)
	}
	if !bytes.Equal(out.Node(children[1]).Value, []byte{0xFF}) {
		t.Fatalf("child 1 = % X", out.Node(children[1]).Value)
	}

	// tpl's own EXPLICIT flag must be restored for reuse by a later Decode.
	if tpl.Node(outer).Flags&FlagExplicit == 0 {
		t.Fatal("decodeExplicitInner left the template's EXPLICIT flag cleared")
	}
}

func TestParentReconstructionMatchesUp(t *testing.T) {
	tr := NewTree()
	seq := tr.New("seq", TagSequence, 0)
	a := tr.New("a", TagInteger, 0)
	b := tr.New("b", TagInteger, 0)
	c := tr.New("c", TagInteger, 0)
	tr.AppendChild(seq, a)
	tr.AppendChild(seq, b)
	tr.AppendChild(seq, c)
	tr.SetRoot(seq)

	for _, id := range []NodeID{a, b, c} {
		if got, want := tr.Parent(id), tr.Node(id).Up; got != want {
			t.Fatalf("Parent(%d) = %d, want %d (Up)", id, got, want)
		}
	}
}
