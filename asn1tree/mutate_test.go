package asn1tree

import "testing"

func TestWriteValueInteger(t *testing.T) {
	tr := NewTree()
	n := tr.New("x", TagInteger, 0)
	tr.SetRoot(n)
	if err := WriteValue(tr, n, "", []byte("-1")); err != nil {
		t.Fatal(err)
	}
	if tr.Node(n).Value[0] != 0xFF {
		t.Fatalf("got % X", tr.Node(n).Value)
	}
}

func TestWriteValueAppendsNewSequenceOfElement(t *testing.T) {
	tr := NewTree()
	seqOf := tr.New("items", TagSequenceOf, 0)
	elem := tr.New("item", TagInteger, 0)
	tr.Node(elem).Value = []byte{0x00}
	tr.AppendChild(seqOf, elem)
	tr.SetRoot(seqOf)

	if err := WriteValue(tr, seqOf, "", []byte("NEW")); err != nil {
		t.Fatal(err)
	}
	if len(tr.Children(seqOf)) != 2 {
		t.Fatalf("expected 2 children after NEW, got %d", len(tr.Children(seqOf)))
	}
}

func TestWriteValueDeletesOptional(t *testing.T) {
	tr := NewTree()
	seq := tr.New("seq", TagSequence, 0)
	a := tr.New("a", TagInteger, 0)
	opt := tr.New("opt", TagOctetString, FlagOption)
	tr.AppendChild(seq, a)
	tr.AppendChild(seq, opt)
	tr.SetRoot(seq)

	optID, err := tr.Find(seq, "opt")
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteValue(tr, optID, "", nil); err != nil {
		t.Fatal(err)
	}
	if len(tr.Children(seq)) != 1 {
		t.Fatalf("expected optional member removed, got %d children", len(tr.Children(seq)))
	}
}

func TestWriteValueChoiceSelection(t *testing.T) {
	tr := NewTree()
	ch := tr.New("c", TagChoice, 0)
	alt1 := tr.New("int-choice", TagInteger, 0)
	alt2 := tr.New("str-choice", TagUTF8String, 0)
	tr.AppendChild(ch, alt1)
	tr.AppendChild(ch, alt2)
	tr.SetRoot(ch)

	if err := selectChoice(tr, ch, "str-choice"); err != nil {
		t.Fatal(err)
	}
	if tr.Node(ch).Down != alt2 {
		t.Fatalf("expected str-choice selected")
	}
}
