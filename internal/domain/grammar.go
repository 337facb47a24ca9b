package domain

import "strings"

// cursor walks a field value left to right for the micro-grammars below.
// Every production is greedy and never backtracks; for these grammars a
// greedy walk accepts exactly what the anchored patterns
//
//	frequency:  ([KMGT])([0-9]{1,6}[.]?[0-9]{0,4})(-?)([KMGT]?)([0-9]{0,6}[.]?[0-9]{0,4})([(]?)([0-9]{0,6}[.]?[0-9]{0,4})([)]?)
//	designator: ([0-9]{1,3})([HKMG])([0-9]{0,2})([A-Z])([0-9])([A-Z])
//
// accept. Trailing text after a successful match is ignored.
type cursor struct {
	s   string
	pos int
}

// oneOf consumes a single byte from set.
func (c *cursor) oneOf(set string) (byte, bool) {
	if c.pos >= len(c.s) || strings.IndexByte(set, c.s[c.pos]) < 0 {
		return 0, false
	}
	b := c.s[c.pos]
	c.pos++
	return b, true
}

// digits consumes up to max ASCII digits.
func (c *cursor) digits(max int) string {
	start := c.pos
	for c.pos < len(c.s) && c.pos-start < max && isDigit(c.s[c.pos]) {
		c.pos++
	}
	return c.s[start:c.pos]
}

// upper consumes one ASCII upper-case letter.
func (c *cursor) upper() (byte, bool) {
	if c.pos >= len(c.s) || c.s[c.pos] < 'A' || c.s[c.pos] > 'Z' {
		return 0, false
	}
	b := c.s[c.pos]
	c.pos++
	return b, true
}

// number consumes [0-9]{minInt,maxInt}[.]?[0-9]{0,maxFrac}.
func (c *cursor) number(minInt, maxInt, maxFrac int) (string, bool) {
	start := c.pos
	if len(c.digits(maxInt)) < minInt {
		c.pos = start
		return "", false
	}
	c.oneOf(".")
	c.digits(maxFrac)
	return c.s[start:c.pos], true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// frequencyTokens are the named captures of a frequency value.
type frequencyTokens struct {
	Unit       byte
	Value      string
	RangeDash  bool
	Unit2      byte
	Value2     string
	OpenParen  bool
	Reference  string
	CloseParen bool
}

func tokenizeFrequency(s string) (frequencyTokens, bool) {
	c := cursor{s: s}
	var t frequencyTokens
	var ok bool

	if t.Unit, ok = c.oneOf("KMGT"); !ok {
		return t, false
	}
	if t.Value, ok = c.number(1, 6, 4); !ok {
		return t, false
	}
	_, t.RangeDash = c.oneOf("-")
	t.Unit2, _ = c.oneOf("KMGT")
	t.Value2, _ = c.number(0, 6, 4)
	_, t.OpenParen = c.oneOf("(")
	t.Reference, _ = c.number(0, 6, 4)
	_, t.CloseParen = c.oneOf(")")
	return t, true
}

// designatorTokens are the named captures of an emission designator.
type designatorTokens struct {
	Whole      string
	Unit       byte
	Fraction   string
	Modulation byte
	Nature     byte
	Info       byte
}

func tokenizeDesignator(s string) (designatorTokens, bool) {
	c := cursor{s: s}
	var t designatorTokens
	var ok bool

	if t.Whole = c.digits(3); t.Whole == "" {
		return t, false
	}
	if t.Unit, ok = c.oneOf("HKMG"); !ok {
		return t, false
	}
	t.Fraction = c.digits(2)
	if t.Modulation, ok = c.upper(); !ok {
		return t, false
	}
	if t.Nature, ok = c.oneOf("0123456789"); !ok {
		return t, false
	}
	if t.Info, ok = c.upper(); !ok {
		return t, false
	}
	return t, true
}
