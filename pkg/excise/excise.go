// Package excise removes a single fingerprinted element, including every nested
// element of the same tag name, from raw markup without building a parse tree.
//
// An element is anchored by the literal text "<tag " followed by the
// fingerprint, e.g. `<div class="ad-slot"`. From there a small tokenizer counts
// opening and closing tags of the same name until the nesting depth returns to
// zero. Everything that is not "<tag" or "</tag" is ignored, so look-alike tags
// inside script or style payloads are counted as well.
package excise

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultScanLimit bounds how far past the anchor the tokenizer may read.
const DefaultScanLimit = 20_000

// DefaultTag is the container tag fingerprints refer to.
const DefaultTag = "div"

var (
	// ErrNotFound is returned when the anchor for a fingerprint is absent.
	ErrNotFound = errors.New("element not found")
	// ErrUnbalanced is returned when the anchor's closing tag does not appear
	// within the scan limit.
	ErrUnbalanced = errors.New("element not closed")
)

// Range is a half-open byte interval [Start, End) over a document.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Exciser locates fingerprinted elements. The zero value is not usable; create
// one with New.
type Exciser struct {
	tag       string
	scanLimit int
	mode      MatchMode
}

// Option configures an Exciser.
type Option func(*Exciser)

// WithTag sets the container tag name. Defaults to DefaultTag.
func WithTag(tag string) Option {
	return func(e *Exciser) {
		e.tag = tag
	}
}

// WithScanLimit sets the maximum number of bytes, counted from the anchor,
// that Locate reads while looking for the closing tag. An element whose close
// lies beyond the limit is reported as ErrUnbalanced.
func WithScanLimit(n int) Option {
	return func(e *Exciser) {
		e.scanLimit = n
	}
}

// WithMatchMode selects how fingerprints anchor an element.
func WithMatchMode(m MatchMode) Option {
	return func(e *Exciser) {
		e.mode = m
	}
}

// New creates an Exciser.
func New(opts ...Option) (*Exciser, error) {
	e := &Exciser{
		tag:       DefaultTag,
		scanLimit: DefaultScanLimit,
		mode:      MatchLiteral,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.tag == "" || strings.ContainsAny(e.tag, "<> \t\r\n") {
		return nil, fmt.Errorf("invalid tag name %q", e.tag)
	}
	if e.scanLimit <= 0 {
		return nil, fmt.Errorf("scan limit must be positive, got %d", e.scanLimit)
	}
	if e.mode != MatchLiteral && e.mode != MatchAttributes {
		return nil, fmt.Errorf("unknown match mode %d", e.mode)
	}
	return e, nil
}

// Tag returns the container tag name.
func (e *Exciser) Tag() string { return e.tag }

// ScanLimit returns the configured scan limit.
func (e *Exciser) ScanLimit() int { return e.scanLimit }

// Locate returns the range of the first element matching fingerprint,
// including all nested elements of the same tag and the closing tag itself.
func (e *Exciser) Locate(text, fingerprint string) (Range, error) {
	var (
		at  int
		err error
	)
	switch e.mode {
	case MatchAttributes:
		at, err = e.anchorByAttributes(text, fingerprint)
	default:
		at, err = e.anchorLiteral(text, fingerprint)
	}
	if err != nil {
		return Range{}, err
	}

	limit := at + e.scanLimit
	if limit > len(text) {
		limit = len(text)
	}

	open, closing := "<"+e.tag, "</"+e.tag
	tz := newTokenizer(text, at+1, limit)
	depth := 1
	for depth > 0 {
		tok, ok := tz.next()
		if !ok {
			break
		}
		switch tok {
		case open:
			depth++
		case closing:
			depth--
		}
	}
	if depth != 0 {
		return Range{}, fmt.Errorf("%w: <%s %s> has %d unclosed <%s> within %d bytes",
			ErrUnbalanced, e.tag, fingerprint, depth, e.tag, e.scanLimit)
	}

	return Range{Start: at, End: tz.cursor}, nil
}

// Remove deletes the element matching fingerprint from text. On error text is
// returned unchanged.
func (e *Exciser) Remove(text, fingerprint string) (string, Range, error) {
	r, err := e.Locate(text, fingerprint)
	if err != nil {
		return text, Range{}, err
	}
	return text[:r.Start] + text[r.End:], r, nil
}

func (e *Exciser) anchorLiteral(text, fingerprint string) (int, error) {
	at := strings.Index(text, e.prefix()+fingerprint)
	if at < 0 {
		return -1, fmt.Errorf("%w: <%s %s", ErrNotFound, e.tag, fingerprint)
	}
	return at, nil
}

func (e *Exciser) prefix() string {
	return "<" + e.tag + " "
}

// tokenizer yields "<name" style tokens: a token starts at '<' and ends at the
// next '>' or space. A second '<' before a terminator restarts the token.
type tokenizer struct {
	src    string
	cursor int
	limit  int
	start  int
}

func newTokenizer(src string, from, limit int) *tokenizer {
	return &tokenizer{src: src, cursor: from, limit: limit, start: -1}
}

// next returns the next token. After a token is returned cursor points one
// byte past its terminator.
func (t *tokenizer) next() (string, bool) {
	for ; t.cursor < t.limit; t.cursor++ {
		switch t.src[t.cursor] {
		case '<':
			t.start = t.cursor
		case '>', ' ':
			if t.start < 0 {
				continue
			}
			tok := t.src[t.start:t.cursor]
			t.start = -1
			t.cursor++
			return tok, true
		}
	}
	return "", false
}
