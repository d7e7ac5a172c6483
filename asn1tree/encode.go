package asn1tree

import (
	"bytes"
	"fmt"
	"sort"
)

// universalTag maps a Tag to its DER universal class tag number and
// whether it is constructed.
func universalTag(tag Tag) (num uint32, constructed bool, ok bool) {
	switch tag {
	case TagSequence, TagSequenceOf:
		return 16, true, true
	case TagSet, TagSetOf:
		return 17, true, true
	case TagInteger:
		return 2, false, true
	case TagEnumerated:
		return 10, false, true
	case TagBoolean:
		return 1, false, true
	case TagNull:
		return 5, false, true
	case TagOctetString:
		return 4, false, true
	case TagBitString:
		return 3, false, true
	case TagObjectID:
		return 6, false, true
	case TagUTF8String:
		return 12, false, true
	case TagNumericString:
		return 18, false, true
	case TagPrintableString:
		return 19, false, true
	case TagTeletexString:
		return 20, false, true
	case TagVisibleString:
		return 26, false, true
	case TagGeneralString:
		return 27, false, true
	case TagUniversalString:
		return 28, false, true
	case TagBMPString:
		return 30, false, true
	case TagUTCTime:
		return 23, false, true
	case TagGeneralizedTime:
		return 24, false, true
	default:
		return 0, false, false
	}
}

// Encode performs a depth-first DER encoding of the subtree rooted at id.
// CHOICE nodes encode their single selected alternative with no additional
// framing; ANY nodes pass their stored raw DER through verbatim.
func Encode(t *Tree, id NodeID) ([]byte, error) {
	return encodeNode(t, id)
}

func encodeNode(t *Tree, id NodeID) ([]byte, error) {
	n := t.Node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrElementNotFound)
	}

	switch n.Tag {
	case TagAny:
		return append([]byte(nil), n.Value...), nil

	case TagChoice:
		sel := n.Down
		if sel == NoNode {
			return nil, fmt.Errorf("%w: CHOICE %s has no selected alternative", ErrValueNotFound, n.Name)
		}
		return encodeNode(t, sel)

	case TagSequence, TagSequenceOf:
		var content []byte
		for _, c := range t.Children(id) {
			enc, err := encodeNode(t, c)
			if err != nil {
				return nil, err
			}
			content = append(content, enc...)
		}
		return wrap(n, content, 16, true)

	case TagSet:
		blobs, err := encodeAll(t, t.Children(id))
		if err != nil {
			return nil, err
		}
		sort.SliceStable(blobs, func(i, j int) bool {
			return tagKey(blobs[i]) < tagKey(blobs[j])
		})
		return wrap(n, bytes.Join(blobs, nil), 17, true)

	case TagSetOf:
		blobs, err := encodeAll(t, t.Children(id))
		if err != nil {
			return nil, err
		}
		sort.SliceStable(blobs, func(i, j int) bool {
			return bytes.Compare(blobs[i], blobs[j]) < 0
		})
		return wrap(n, bytes.Join(blobs, nil), 17, true)

	case TagInteger, TagEnumerated:
		num, _, _ := universalTag(n.Tag)
		return wrap(n, minimalTwosComplement(n.Value), num, false)

	case TagBoolean:
		num, _, _ := universalTag(n.Tag)
		return wrap(n, n.Value, num, false)

	case TagNull:
		return wrap(n, nil, 5, false)

	case TagOctetString:
		return wrap(n, n.Value, 4, false)

	case TagBitString:
		return wrap(n, n.Value, 3, false)

	case TagObjectID:
		return wrap(n, n.Value, 6, false)

	case TagUTF8String, TagNumericString, TagPrintableString, TagTeletexString,
		TagVisibleString, TagGeneralString, TagUniversalString, TagBMPString,
		TagUTCTime, TagGeneralizedTime:
		num, _, _ := universalTag(n.Tag)
		return wrap(n, n.Value, num, false)

	default:
		return nil, fmt.Errorf("%w: unsupported tag %v on %s", ErrDerError, n.Tag, n.Name)
	}
}

func encodeAll(t *Tree, ids []NodeID) ([][]byte, error) {
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		b, err := encodeNode(t, id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// tagKey returns the (class<<24 | tag) sort key used for SET ordering,
// computed from the already-encoded child's leading identifier octet(s).
func tagKey(der []byte) uint32 {
	class, tag, _, _, err := decodeTag(der)
	if err != nil {
		return 0
	}
	return uint32(class)<<24 | tag
}

// wrap applies any EXPLICIT/IMPLICIT/APPLICATION/PRIVATE tag override to
// content and prepends the resulting tag+length header. univNum/constructed
// describe the node's base universal type, used both as the innermost tag
// when EXPLICIT wraps it and as the fallback when no override applies.
func wrap(n *Node, content []byte, univNum uint32, constructed bool) ([]byte, error) {
	if len(content) > (1<<56)-1 {
		return nil, fmt.Errorf("%w: content too large", ErrMemError)
	}

	switch {
	case n.Flags&FlagExplicit != 0:
		inner := encodeTag(nil, ClassUniversal, univNum, constructed)
		inner = encodeLength(inner, len(content))
		inner = append(inner, content...)
		out := encodeTag(nil, ClassContextSpecific, uint32(n.TagNumber), true)
		out = encodeLength(out, len(inner))
		return append(out, inner...), nil

	case n.Flags&FlagImplicit != 0:
		out := encodeTag(nil, ClassContextSpecific, uint32(n.TagNumber), constructed)
		out = encodeLength(out, len(content))
		return append(out, content...), nil

	case n.Flags&FlagApplication != 0:
		out := encodeTag(nil, ClassApplication, uint32(n.TagNumber), constructed)
		out = encodeLength(out, len(content))
		return append(out, content...), nil

	case n.Flags&FlagPrivate != 0:
		out := encodeTag(nil, ClassPrivate, uint32(n.TagNumber), constructed)
		out = encodeLength(out, len(content))
		return append(out, content...), nil

	default:
		out := encodeTag(nil, ClassUniversal, univNum, constructed)
		out = encodeLength(out, len(content))
		return append(out, content...), nil
	}
}
