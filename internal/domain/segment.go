package domain

// MalformedLine describes a value-bearing line the lexer could not split.
type MalformedLine struct {
	Line int
	Tag  string
	Err  error
}

// SegmentStats counts what a Segmenter has seen so far.
type SegmentStats struct {
	Lines     int // lines fed
	Opened    int // 005 lines encountered
	Emitted   int // raw records emitted
	Malformed int // value-bearing lines skipped by the lexer
	Implicit  int // records emitted without a 924 line
	Discarded int // empty records dropped at reopen or end of input
}

// Segmenter is the record segmentation state machine. It is fed one line at
// a time and emits a RawRecord whenever a record region is closed. The zero
// value is not usable; create one with NewSegmenter.
type Segmenter struct {
	// OnMalformed, when set, is called for each skipped malformed line.
	OnMalformed func(MalformedLine)

	inRecord bool
	current  RawFieldRecord
	openLine int
	counters map[string]int
	line     int
	stats    SegmentStats
}

// NewSegmenter returns a Segmenter in the Idle state.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Feed advances the state machine by one line. It returns a record when the
// line closes one, either explicitly (924) or by reopening (005).
func (s *Segmenter) Feed(line string) (RawRecord, bool) {
	s.line++
	s.stats.Lines++

	tag, ok := LineTag(line)
	if !ok {
		return RawRecord{}, false
	}

	switch {
	case tag == TagRecordOpen:
		var (
			flushed RawRecord
			emitted bool
		)
		if s.inRecord {
			flushed, emitted = s.flush(TerminatedReopened)
		}
		s.open()
		return flushed, emitted

	case !s.inRecord:
		return RawRecord{}, false

	case tag == TagRecordClose:
		rec := s.emit(TerminatedExplicit)
		s.inRecord = false
		return rec, true
	}

	s.store(tag, line)
	return RawRecord{}, false
}

// FeedTruncated advances the state machine by a line whose tail was cut
// off. Sentinels keep their meaning; a value-bearing line inside a record is
// skipped as malformed with ErrLineTooLong.
func (s *Segmenter) FeedTruncated(prefix string) (RawRecord, bool) {
	tag, ok := LineTag(prefix)
	if !ok || !s.inRecord || tag == TagRecordOpen || tag == TagRecordClose {
		return s.Feed(prefix)
	}
	s.line++
	s.stats.Lines++
	s.reject(tag, ErrLineTooLong)
	return RawRecord{}, false
}

// Finish signals end of input. A still-open record with at least one field
// is emitted; an empty one is discarded.
func (s *Segmenter) Finish() (RawRecord, bool) {
	if !s.inRecord {
		return RawRecord{}, false
	}
	rec, ok := s.flush(TerminatedEOF)
	s.inRecord = false
	return rec, ok
}

// Stats returns the counters accumulated so far.
func (s *Segmenter) Stats() SegmentStats { return s.stats }

func (s *Segmenter) open() {
	s.inRecord = true
	s.current = RawFieldRecord{}
	s.counters = make(map[string]int)
	s.openLine = s.line
	s.stats.Opened++
}

// flush emits the current record if it holds any field.
func (s *Segmenter) flush(t Termination) (RawRecord, bool) {
	if len(s.current) == 0 {
		s.stats.Discarded++
		return RawRecord{}, false
	}
	return s.emit(t), true
}

func (s *Segmenter) emit(t Termination) RawRecord {
	s.stats.Emitted++
	if t.Implicit() {
		s.stats.Implicit++
	}
	rec := RawRecord{
		Ordinal:     s.stats.Emitted,
		Line:        s.openLine,
		Fields:      s.current,
		Termination: t,
	}
	s.current = RawFieldRecord{}
	return rec
}

func (s *Segmenter) store(tag, line string) {
	_, value, err := LexLine(line)
	if err != nil {
		s.reject(tag, err)
		return
	}

	label, repeated, _ := TagLabel(tag)
	if !repeated {
		s.current[label] = value
		return
	}
	s.counters[label]++
	s.current[IndexedKey(label, s.counters[label])] = value
}

func (s *Segmenter) reject(tag string, err error) {
	s.stats.Malformed++
	if s.OnMalformed != nil {
		s.OnMalformed(MalformedLine{Line: s.line, Tag: tag, Err: err})
	}
}

// Segment runs lines through a fresh Segmenter and returns every emitted
// record in encounter order.
func Segment(lines []string) []RawRecord {
	s := NewSegmenter()
	var out []RawRecord
	for _, line := range lines {
		if rec, ok := s.Feed(line); ok {
			out = append(out, rec)
		}
	}
	if rec, ok := s.Finish(); ok {
		out = append(out, rec)
	}
	return out
}
