package dnsmsg

// Invariant: every Name, Record, RecordList, and RecordSet below is linked
// into exactly one list at a time — a section's Name list, a Name's
// RecordSet list, a RecordList's Record list, the owning slab's free-list,
// or (for a checked-out temporary) none at all. The next/prev fields are the
// sole membership record; there is no separate "which list am I in" tag.

// RData is a decoded record payload living in scratchpad storage.
type RData struct {
	Class uint16
	Type  uint16
	Data  []byte // scratchpad-owned; length is the wire rdlength
}

// Record is one wire resource record's payload, slab-allocated and linked
// into its RecordList's intrusive list.
type Record struct {
	rdata RData
	next  *Record
}

// RData returns the Record's decoded payload.
func (r *Record) RData() RData { return r.rdata }

// SetRData sets the Record's payload; used when constructing a Record as a
// temporary before it is appended to a RecordList.
func (r *Record) SetRData(rd RData) { r.rdata = rd }

// RecordList is the internal aggregation backing a RecordSet: its type,
// covered-type (for signature records), class, TTL, and ordered Records.
type RecordList struct {
	rtype  uint16
	covers uint16
	class  uint16
	ttl    uint32
	head   *Record
	tail   *Record
	count  int
}

// append links an already-allocated Record onto the tail of l's list.
func (l *RecordList) append(n *Record) {
	n.next = nil
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		l.tail.next = n
		l.tail = n
	}
	l.count++
}

// Records returns the RecordList's payloads in insertion order.
func (l *RecordList) Records() []RData {
	out := make([]RData, 0, l.count)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.rdata)
	}
	return out
}

// Len is the number of Records aggregated into this RecordList.
func (l *RecordList) Len() int { return l.count }

// Type is the RR type this RecordList aggregates.
func (l *RecordList) Type() uint16 { return l.rtype }

// Covers is the covered-type for signature records (RRSIG/SIG), else 0.
func (l *RecordList) Covers() uint16 { return l.covers }

// Class is the RecordList's class.
func (l *RecordList) Class() uint16 { return l.class }

// TTL is the RecordList's TTL.
func (l *RecordList) TTL() uint32 { return l.ttl }

// RecordSet is the public view of a RecordList: attributes plus a hidden,
// typed back-reference used to append Records after the set is created.
type RecordSet struct {
	list       *RecordList
	question   bool
	rendered   bool
	next, prev *RecordSet // membership in a Name's RecordSet list
}

// List returns the RecordSet's backing RecordList.
func (rs *RecordSet) List() *RecordList { return rs.list }

// IsQuestion reports whether this RecordSet represents a question entry
// rather than a resource record.
func (rs *RecordSet) IsQuestion() bool { return rs.question }

// Rendered reports whether this RecordSet has already been written to the
// render buffer in the current rendering pass (idempotency flag, spec.md
// §4.5).
func (rs *RecordSet) Rendered() bool { return rs.rendered }

// Name is a decoded domain name held in scratchpad storage, linkable into
// exactly one section list at a time, carrying its own ordered list of
// RecordSet handles.
type Name struct {
	wire []byte // decoded wire-form labels, scratchpad-owned, no compression

	setHead, setTail *RecordSet

	sect       section
	inSection  bool
	next, prev *Name // membership in a section's Name list
}

// Wire returns the decoded, uncompressed wire-form label sequence.
func (n *Name) Wire() []byte { return n.wire }

// Equal reports whether two names are the same (case-insensitive, per DNS
// name comparison rules) at the wire-label level.
func (n *Name) Equal(other *Name) bool {
	return namesEqual(n.wire, other.wire)
}

// IsRoot reports whether this Name is the zero-length root name.
func (n *Name) IsRoot() bool { return len(n.wire) == 1 && n.wire[0] == 0 }

func (n *Name) appendSet(rs *RecordSet) {
	if n.setTail == nil {
		n.setHead, n.setTail = rs, rs
	} else {
		rs.prev = n.setTail
		n.setTail.next = rs
		n.setTail = rs
	}
}

// FindSet searches this Name's RecordSet list for a (type, covers) match.
func (n *Name) FindSet(rtype, covers uint16) *RecordSet {
	for rs := n.setHead; rs != nil; rs = rs.next {
		if rs.list.rtype == rtype && rs.list.covers == covers {
			return rs
		}
	}
	return nil
}

// Sets returns this Name's RecordSets in insertion order.
func (n *Name) Sets() []*RecordSet {
	out := []*RecordSet{}
	for rs := n.setHead; rs != nil; rs = rs.next {
		out = append(out, rs)
	}
	return out
}

// namesEqual compares two decoded wire-form names label-by-label, ASCII
// case-insensitively, per RFC 1035 §3.1 name comparison.
func namesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
