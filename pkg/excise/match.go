package excise

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// MatchMode selects how a fingerprint anchors an element.
type MatchMode int

const (
	// MatchLiteral requires "<tag " + fingerprint to appear verbatim. Attribute
	// order, whitespace and quoting must match the source byte for byte.
	MatchLiteral MatchMode = iota
	// MatchAttributes parses the fingerprint and every candidate opening tag
	// into attribute sets and anchors on the first tag whose attributes
	// contain all of the fingerprint's.
	MatchAttributes
)

// ParseMatchMode converts "literal" or "attributes" to a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "literal":
		return MatchLiteral, nil
	case "attributes", "attrs":
		return MatchAttributes, nil
	}
	return MatchLiteral, fmt.Errorf("unknown match mode %q", s)
}

func (m MatchMode) String() string {
	switch m {
	case MatchLiteral:
		return "literal"
	case MatchAttributes:
		return "attributes"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

func (e *Exciser) anchorByAttributes(text, fingerprint string) (int, error) {
	want := parseAttrs(e.prefix() + fingerprint + ">")
	prefix := e.prefix()

	for off := 0; off < len(text); {
		i := strings.Index(text[off:], prefix)
		if i < 0 {
			break
		}
		at := off + i
		end := strings.IndexByte(text[at:], '>')
		if end < 0 {
			break
		}
		if containsAttrs(parseAttrs(text[at:at+end+1]), want) {
			return at, nil
		}
		off = at + len(prefix)
	}
	return -1, fmt.Errorf("%w: <%s> with attributes %s", ErrNotFound, e.tag, fingerprint)
}

// parseAttrs reads the attributes of a single opening tag.
func parseAttrs(tag string) []html.Attribute {
	z := html.NewTokenizer(strings.NewReader(tag))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
		return z.Token().Attr
	}
	return nil
}

func containsAttrs(have, want []html.Attribute) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h.Namespace == w.Namespace && h.Key == w.Key && h.Val == w.Val {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
