// Package codec implements the bidirectional mapping between graph-native
// identities (label + id columns) and the string/integer forms external
// protocols use. The string format is
// ported idiom-for-idiom from the source format
// element_id.rs: splitn-on-first-separator, never a regex, so that ids
// containing the separator characters round-trip exactly as the Rust
// implementation's own tests pin down.
package codec

import "strings"

// GenerateNodeElementID formats a node's element id: "Label:id" for a
// single id column, "Label:id1|id2|id3" for a composite id.
func GenerateNodeElementID(label string, ids []string) string {
	return label + ":" + strings.Join(ids, "|")
}

// ParseNodeElementID reverses GenerateNodeElementID.
func ParseNodeElementID(elementID string) (label string, ids []string, err error) {
	parts := strings.SplitN(elementID, ":", 2)
	if len(parts) != 2 {
		return "", nil, ErrInvalidFormat.New("expected 'Label:id' or 'Label:id1|id2'", elementID)
	}
	lbl := strings.TrimSpace(parts[0])
	idPortion := strings.TrimSpace(parts[1])
	if lbl == "" {
		return "", nil, ErrMissingLabel.New()
	}
	if idPortion == "" {
		return "", nil, ErrMissingID.New()
	}
	return lbl, strings.Split(idPortion, "|"), nil
}

// GenerateRelationshipElementID formats a relationship's element id:
// "Type:from_id->to_id". from/to may already contain "|"-joined composite
// id segments.
func GenerateRelationshipElementID(relType, fromID, toID string) string {
	return relType + ":" + fromID + "->" + toID
}

// ParseRelationshipElementID reverses GenerateRelationshipElementID.
func ParseRelationshipElementID(elementID string) (relType, fromID, toID string, err error) {
	parts := strings.SplitN(elementID, ":", 2)
	if len(parts) != 2 {
		return "", "", "", ErrInvalidFormat.New("expected 'Type:from_id->to_id'", elementID)
	}
	rt := strings.TrimSpace(parts[0])
	idPortion := strings.TrimSpace(parts[1])
	if rt == "" {
		return "", "", "", ErrMissingRelType.New()
	}

	idParts := strings.Split(idPortion, "->")
	if len(idParts) != 2 {
		return "", "", "", ErrInvalidFormat.New("expected 'from_id->to_id' in relationship element id", elementID)
	}
	from := strings.TrimSpace(idParts[0])
	to := strings.TrimSpace(idParts[1])
	if from == "" {
		return "", "", "", ErrMissingFromID.New()
	}
	if to == "" {
		return "", "", "", ErrMissingToID.New()
	}
	return rt, from, to, nil
}
