package asn1tree

import (
	"fmt"
	"strconv"
)

// WriteValue implements the path-based mutation contract: resolve path from
// root with Find, then apply value to the resolved node the way the
// reference implementation's asn1_write_value dispatches on the node's tag.
//
// The special value "NEW" appends a deep copy of the template element
// already present under a SEQUENCE_OF/SET_OF node (or, on a bare
// SEQUENCE_OF/SET_OF node with no children yet, is a no-op error since there
// is no element to copy); the special value "" on an OPTIONAL node deletes
// it and its subtree.
func WriteValue(t *Tree, root NodeID, path string, value []byte) error {
	id, err := t.Find(root, path)
	if err != nil {
		return err
	}
	n := t.Node(id)

	switch {
	case string(value) == "NEW" && (n.Tag == TagSequenceOf || n.Tag == TagSetOf):
		return appendNewElement(t, id)

	case len(value) == 0 && n.Flags&FlagOption != 0:
		deleteNode(t, id)
		return nil
	}

	switch n.Tag {
	case TagBoolean:
		return writeBoolean(n, value)
	case TagInteger, TagEnumerated:
		return writeInteger(n, value)
	case TagUTCTime, TagGeneralizedTime:
		n.Value = append([]byte(nil), value...)
		return nil
	case TagChoice:
		return selectChoice(t, id, string(value))
	case TagOctetString, TagBitString, TagObjectID,
		TagUTF8String, TagNumericString, TagPrintableString, TagTeletexString,
		TagVisibleString, TagGeneralString, TagUniversalString, TagBMPString:
		n.Value = append([]byte(nil), value...)
		return nil
	default:
		return fmt.Errorf("%w: %s cannot take a direct value", ErrDerError, n.Name)
	}
}

func writeBoolean(n *Node, value []byte) error {
	switch string(value) {
	case "TRUE", "1":
		n.Value = []byte{0xFF}
	case "FALSE", "0":
		n.Value = []byte{0x00}
	default:
		return fmt.Errorf("%w: invalid BOOLEAN literal %q", ErrDerError, value)
	}
	return nil
}

func writeInteger(n *Node, value []byte) error {
	v, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid INTEGER literal %q", ErrDerError, value)
	}
	n.Value = encodeInt64(v)
	return nil
}

// selectChoice replaces a CHOICE node's current alternative (if any) with
// the named one, deleting any sibling alternatives already materialized
// under it — only one CHOICE alternative may be present at a time.
func selectChoice(t *Tree, choiceID NodeID, name string) error {
	n := t.Node(choiceID)
	for _, c := range t.Children(choiceID) {
		if t.Node(c).Name == name {
			n.Down = c
			t.Node(c).Right = NoNode
			t.Node(c).Left = NoNode
			t.Node(c).Up = choiceID
			return nil
		}
	}
	return fmt.Errorf("%w: CHOICE alternative %s", ErrIdentifierNotFound, name)
}

// appendNewElement deep-copies id's first child (the repeated element
// template) and appends the copy as a new last child of id.
func appendNewElement(t *Tree, id NodeID) error {
	first := t.Node(id).Down
	if first == NoNode {
		return fmt.Errorf("%w: no template element to copy under %s", ErrElementNotFound, t.Node(id).Name)
	}
	clone := deepCopy(t, first)
	t.AppendChild(id, clone)
	return nil
}

func deepCopy(t *Tree, id NodeID) NodeID {
	n := t.Node(id)
	nid := t.New(n.Name, n.Tag, n.Flags)
	cp := t.Node(nid)
	cp.TagNumber = n.TagNumber
	cp.Value = append([]byte(nil), n.Value...)
	for _, c := range t.Children(id) {
		childCopy := deepCopy(t, c)
		t.AppendChild(nid, childCopy)
	}
	return nid
}

// deleteNode unlinks id from its parent's child chain, leaving its subtree
// unreferenced for the garbage collector.
func deleteNode(t *Tree, id NodeID) {
	n := t.Node(id)
	left, right, up := n.Left, n.Right, n.Up
	if left != NoNode {
		t.Node(left).Right = right
	} else if up != NoNode {
		t.Node(up).Down = right
	}
	if right != NoNode {
		t.Node(right).Left = left
	}
}
