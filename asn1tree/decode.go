package asn1tree

import "fmt"

// expectedIdentifier computes the DER identifier octet (class, tag number,
// constructed) a template node's encoded form must start with, accounting
// for EXPLICIT/IMPLICIT/APPLICATION/PRIVATE overrides the same way Encode's
// wrap() applies them.
func expectedIdentifier(n *Node) (class Class, tagNum uint32, constructed bool, ok bool) {
	univNum, univConstructed, baseOK := universalTag(n.Tag)
	switch {
	case n.Flags&FlagExplicit != 0:
		return ClassContextSpecific, uint32(n.TagNumber), true, true
	case n.Flags&FlagImplicit != 0:
		if !baseOK {
			return 0, 0, false, false
		}
		return ClassContextSpecific, uint32(n.TagNumber), univConstructed, true
	case n.Flags&FlagApplication != 0:
		if !baseOK {
			return 0, 0, false, false
		}
		return ClassApplication, uint32(n.TagNumber), univConstructed, true
	case n.Flags&FlagPrivate != 0:
		if !baseOK {
			return 0, 0, false, false
		}
		return ClassPrivate, uint32(n.TagNumber), univConstructed, true
	default:
		if !baseOK {
			return 0, 0, false, false
		}
		return ClassUniversal, univNum, univConstructed, true
	}
}

// peekIdentifier reads the leading identifier octets of der without
// consuming, for the purpose of matching against a candidate template node.
func peekIdentifier(der []byte) (class Class, tagNum uint32, constructed bool, hdrLen int, err error) {
	class, tagNum, constructed, hdrLen, err = decodeTag(der)
	return
}

// Decode parses der against template, starting at templateRoot, producing a
// fresh Tree whose structure mirrors the template and whose leaf nodes carry
// the decoded values. It returns the number of bytes of der consumed.
func Decode(template *Tree, templateRoot NodeID, der []byte) (*Tree, int, error) {
	out := NewTree()
	id, n, err := decodeNode(template, templateRoot, out, der)
	if err != nil {
		return nil, 0, err
	}
	out.SetRoot(id)
	return out, n, nil
}

func decodeNode(tpl *Tree, tid NodeID, out *Tree, der []byte) (NodeID, int, error) {
	tn := tpl.Node(tid)
	if tn == nil {
		return NoNode, 0, fmt.Errorf("%w: nil template node", ErrElementNotFound)
	}

	if tn.Tag == TagAny {
		_, _, _, hdrLen, err := decodeTag(der)
		if err != nil {
			return NoNode, 0, err
		}
		length, lenLen, err := decodeLength(der[hdrLen:])
		if err != nil {
			return NoNode, 0, err
		}
		total := hdrLen + lenLen + length
		if total > len(der) {
			return NoNode, 0, fmt.Errorf("%w: ANY overruns buffer", ErrDerError)
		}
		id := out.New(tn.Name, TagAny, tn.Flags)
		out.Node(id).Value = append([]byte(nil), der[:total]...)
		return id, total, nil
	}

	if tn.Tag == TagChoice {
		for _, alt := range tpl.Children(tid) {
			aClass, aTag, aConstructed, ok := expectedIdentifier(tpl.Node(alt))
			if !ok {
				continue
			}
			pClass, pTag, pConstructed, _, err := peekIdentifier(der)
			if err != nil {
				return NoNode, 0, err
			}
			if pClass != aClass || pTag != aTag || pConstructed != aConstructed {
				continue
			}
			altID, consumed, err := decodeNode(tpl, alt, out, der)
			if err != nil {
				return NoNode, 0, err
			}
			id := out.New(tn.Name, TagChoice, tn.Flags)
			out.AppendChild(id, altID)
			return id, consumed, nil
		}
		return NoNode, 0, fmt.Errorf("%w: no CHOICE alternative of %s matches input", ErrDerError, tn.Name)
	}

	class, tagNum, constructed, hdrLen, err := expectTagMatch(tn, der)
	if err != nil {
		return NoNode, 0, err
	}
	_ = class
	_ = tagNum
	_ = constructed

	length, lenLen, err := decodeLength(der[hdrLen:])
	if err != nil {
		return NoNode, 0, err
	}
	start := hdrLen + lenLen
	if start+length > len(der) {
		return NoNode, 0, fmt.Errorf("%w: %s content overruns buffer", ErrDerError, tn.Name)
	}
	content := der[start : start+length]
	total := start + length

	if tn.Flags&FlagExplicit != 0 {
		innerID, consumed, err := decodeExplicitInner(tpl, tid, out, content)
		if err != nil {
			return NoNode, 0, err
		}
		if consumed != len(content) {
			return NoNode, 0, fmt.Errorf("%w: %s EXPLICIT trailing bytes", ErrDerError, tn.Name)
		}
		return innerID, total, nil
	}

	switch tn.Tag {
	case TagSequence:
		id := out.New(tn.Name, TagSequence, tn.Flags)
		pos := 0
		for _, c := range tpl.Children(tid) {
			cn := tpl.Node(c)
			if pos >= len(content) {
				if cn.Flags&(FlagOption|FlagDefault) != 0 {
					continue
				}
				return NoNode, 0, fmt.Errorf("%w: %s missing mandatory field %s", ErrDerError, tn.Name, cn.Name)
			}
			if cn.Flags&(FlagOption|FlagDefault) != 0 && !identifierMatches(cn, content[pos:]) {
				continue
			}
			childID, consumed, err := decodeNode(tpl, c, out, content[pos:])
			if err != nil {
				return NoNode, 0, err
			}
			out.AppendChild(id, childID)
			pos += consumed
		}
		if pos != len(content) {
			return NoNode, 0, fmt.Errorf("%w: %s trailing bytes", ErrDerError, tn.Name)
		}
		return id, total, nil

	case TagSequenceOf:
		id := out.New(tn.Name, TagSequenceOf, tn.Flags)
		elemTpl := tpl.Node(tid).Down
		pos := 0
		for pos < len(content) {
			childID, consumed, err := decodeNode(tpl, elemTpl, out, content[pos:])
			if err != nil {
				return NoNode, 0, err
			}
			out.AppendChild(id, childID)
			pos += consumed
		}
		return id, total, nil

	case TagSet:
		id := out.New(tn.Name, TagSet, tn.Flags)
		remaining := tpl.Children(tid)
		pos := 0
		for pos < len(content) && len(remaining) > 0 {
			matched := -1
			for i, c := range remaining {
				if identifierMatches(tpl.Node(c), content[pos:]) {
					matched = i
					break
				}
			}
			if matched < 0 {
				// No remaining mandatory field matches; stop if all
				// that's left is OPTIONAL/DEFAULT.
				allOptional := true
				for _, c := range remaining {
					if tpl.Node(c).Flags&(FlagOption|FlagDefault) == 0 {
						allOptional = false
						break
					}
				}
				if allOptional {
					break
				}
				return NoNode, 0, fmt.Errorf("%w: %s unmatched member", ErrDerError, tn.Name)
			}
			childID, consumed, err := decodeNode(tpl, remaining[matched], out, content[pos:])
			if err != nil {
				return NoNode, 0, err
			}
			out.AppendChild(id, childID)
			pos += consumed
			remaining = append(remaining[:matched], remaining[matched+1:]...)
		}
		for _, c := range remaining {
			if tpl.Node(c).Flags&(FlagOption|FlagDefault) == 0 {
				return NoNode, 0, fmt.Errorf("%w: %s missing mandatory field %s", ErrDerError, tn.Name, tpl.Node(c).Name)
			}
		}
		if pos != len(content) {
			return NoNode, 0, fmt.Errorf("%w: %s trailing bytes", ErrDerError, tn.Name)
		}
		return id, total, nil

	case TagSetOf:
		id := out.New(tn.Name, TagSetOf, tn.Flags)
		elemTpl := tpl.Node(tid).Down
		pos := 0
		for pos < len(content) {
			childID, consumed, err := decodeNode(tpl, elemTpl, out, content[pos:])
			if err != nil {
				return NoNode, 0, err
			}
			out.AppendChild(id, childID)
			pos += consumed
		}
		return id, total, nil

	case TagInteger, TagEnumerated:
		id := out.New(tn.Name, tn.Tag, tn.Flags)
		out.Node(id).Value = append([]byte(nil), content...)
		return id, total, nil

	case TagBoolean:
		if len(content) != 1 {
			return NoNode, 0, fmt.Errorf("%w: BOOLEAN content must be 1 byte", ErrDerError)
		}
		id := out.New(tn.Name, TagBoolean, tn.Flags)
		out.Node(id).Value = append([]byte(nil), content...)
		return id, total, nil

	case TagNull:
		if len(content) != 0 {
			return NoNode, 0, fmt.Errorf("%w: NULL must be empty", ErrDerError)
		}
		id := out.New(tn.Name, TagNull, tn.Flags)
		return id, total, nil

	case TagOctetString, TagBitString:
		id := out.New(tn.Name, tn.Tag, tn.Flags)
		out.Node(id).Value = append([]byte(nil), content...)
		return id, total, nil

	case TagObjectID:
		if _, err := oidDecode(content); err != nil {
			return NoNode, 0, err
		}
		id := out.New(tn.Name, TagObjectID, tn.Flags)
		out.Node(id).Value = append([]byte(nil), content...)
		return id, total, nil

	case TagUTF8String, TagNumericString, TagPrintableString, TagTeletexString,
		TagVisibleString, TagGeneralString, TagUniversalString, TagBMPString:
		id := out.New(tn.Name, tn.Tag, tn.Flags)
		out.Node(id).Value = append([]byte(nil), content...)
		return id, total, nil

	case TagUTCTime:
		if err := validateUTCTime(content); err != nil {
			return NoNode, 0, err
		}
		id := out.New(tn.Name, TagUTCTime, tn.Flags)
		out.Node(id).Value = append([]byte(nil), content...)
		return id, total, nil

	case TagGeneralizedTime:
		id := out.New(tn.Name, TagGeneralizedTime, tn.Flags)
		out.Node(id).Value = append([]byte(nil), content...)
		return id, total, nil

	default:
		return NoNode, 0, fmt.Errorf("%w: unsupported template tag %v", ErrDerError, tn.Tag)
	}
}

// decodeExplicitInner decodes the single base-type element wrapped by an
// EXPLICIT tag, reusing decodeNode on a scratch copy of tpl in which tid has
// the EXPLICIT flag cleared, so the universal tag is matched instead of the
// context tag already consumed by the caller. The caller's template is
// never modified. The copy keeps every node id, so this works for any base
// type, including constructed ones (SEQUENCE/SET) whose children decodeNode
// looks up via Children.
func decodeExplicitInner(tpl *Tree, tid NodeID, out *Tree, content []byte) (NodeID, int, error) {
	scratch := &Tree{nodes: append([]Node(nil), tpl.nodes...), root: tpl.root}
	scratch.Node(tid).Flags &^= FlagExplicit
	return decodeNode(scratch, tid, out, content)
}

// identifierMatches reports whether der's leading identifier octet matches
// what template node n expects, without consuming.
func identifierMatches(n *Node, der []byte) bool {
	eClass, eTag, eConstructed, ok := expectedIdentifier(n)
	if !ok {
		if n.Tag == TagAny {
			return true
		}
		return false
	}
	pClass, pTag, pConstructed, _, err := peekIdentifier(der)
	if err != nil {
		return false
	}
	return pClass == eClass && pTag == eTag && pConstructed == eConstructed
}

// expectTagMatch reads der's identifier octets and verifies they match what
// template node tn expects (after override), returning the decoded fields.
func expectTagMatch(tn *Node, der []byte) (class Class, tagNum uint32, constructed bool, hdrLen int, err error) {
	eClass, eTag, eConstructed, ok := expectedIdentifier(tn)
	class, tagNum, constructed, hdrLen, err = decodeTag(der)
	if err != nil {
		return
	}
	if !ok {
		return
	}
	if class != eClass || tagNum != eTag || constructed != eConstructed {
		return 0, 0, false, 0, fmt.Errorf("%w: %s unexpected tag (class %x tag %d)", ErrDerError, tn.Name, class, tagNum)
	}
	return
}

// validateUTCTime enforces the fixed UTCTime suffix shapes (11, 13, 15, or
// 17 bytes, per spec §4.2's write_value coercion rules).
func validateUTCTime(content []byte) error {
	switch len(content) {
	case 11, 13, 15, 17:
		return nil
	default:
		return fmt.Errorf("%w: invalid UTCTime length %d", ErrDerError, len(content))
	}
}
