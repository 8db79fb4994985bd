package dnsmsg

// PeekHeader reports the id and flag word of src's first 12 bytes without
// consuming anything or touching m (spec.md §4.6).
func PeekHeader(src []byte) (id uint16, flags uint16, ok bool) {
	if len(src) < HeaderLen {
		return 0, 0, false
	}
	wh, err := decodeHeader(src)
	if err != nil {
		return 0, 0, false
	}
	return wh.id, wh.flags, true
}

// Reply turns a parsed request Message into an in-place reply skeleton:
// QR is set, non-preserved flags are cleared, records from Answer onward
// (or from Question onward, if wantQuestion is false or the opcode is not
// Query) are dropped, and the parsed TSIG state is moved to the query-side
// fields exactly once (spec.md §4.6).
func (m *Message) Reply(wantQuestion bool) error {
	if m.QR() {
		return errFormat("reply requires a request (QR=0)")
	}
	if !m.headerOK {
		return errFormat("reply requires a successfully parsed header")
	}
	if m.opcode != OpcodeQuery {
		wantQuestion = false
	}
	if wantQuestion && !m.questionOK {
		return errFormat("reply with question requires a successfully parsed question")
	}

	m.intent = IntentRender

	first := sectionQuestion
	if wantQuestion {
		first = sectionAnswer
	}
	for sec := first; sec < sectionTSIG; sec++ {
		for _, n := range m.sections.clear(sec) {
			m.releaseName(n)
		}
		m.counts[sec] = 0
		m.cursors[sec] = nil
	}

	m.flags &= rdBit
	m.SetQR(true)

	if m.tsig != nil {
		m.querytsig = m.tsig
		m.tsig = nil
		m.querytsigstatus = m.tsigstatus
		m.tsigstatus = TSIGNone
	}

	return nil
}

// FirstName positions and returns sec's cursor at its first Name.
func (m *Message) FirstName(sec section) (*Name, error) {
	n, err := m.sections.first(sec)
	if err != nil {
		return nil, err
	}
	m.cursors[sec] = n
	return n, nil
}

// NextName advances sec's cursor to the next Name.
func (m *Message) NextName(sec section) (*Name, error) {
	cur := m.cursors[sec]
	if cur == nil {
		return nil, errNoMore("cursor not positioned")
	}
	n, err := m.sections.next(cur)
	if err != nil {
		return nil, err
	}
	m.cursors[sec] = n
	return n, nil
}

// CurrentName returns sec's cursor position without advancing it.
func (m *Message) CurrentName(sec section) (*Name, error) {
	if m.cursors[sec] == nil {
		return nil, errNoMore("cursor not positioned")
	}
	return m.cursors[sec], nil
}

// FindName searches sec for a Name equal to target carrying a RecordSet of
// (rtype, covers), distinguishing name-not-found from no-record-for-type.
func (m *Message) FindName(sec section, target *Name, rtype, covers uint16) (*Name, *RecordSet, error) {
	return m.sections.findByType(sec, target, rtype, covers)
}

// FindType searches sec for a RecordSet of (rtype, covers) directly,
// without requiring the caller to already hold the owning Name handle
// (supplemented feature, SPEC_FULL.md §C.1, mirroring BIND9's
// dns_message_findtype). It walks sec's Names tail-to-head and does not call
// FindName.
func (m *Message) FindType(sec section, rtype, covers uint16) (*RecordSet, error) {
	return m.sections.findType(sec, rtype, covers)
}

// MoveName relocates n from its current section into dst.
func (m *Message) MoveName(n *Name, dst section) {
	m.sections.move(n, dst)
}

// AddName appends a caller-constructed Name to sec.
func (m *Message) AddName(sec section, n *Name) {
	m.sections.append(sec, n)
}

// GetTemporaryName checks out a blank Name the caller owns until it either
// returns it via PutTemporaryName or links it into a section with AddName.
func (m *Message) GetTemporaryName() *Name { return m.names.acquire() }

// PutTemporaryName returns a Name not linked into any section back to the
// allocator.
func (m *Message) PutTemporaryName(n *Name) { m.names.release(n) }

// GetTemporaryRecord checks out a blank Record.
func (m *Message) GetTemporaryRecord() *Record { return m.records.acquire() }

// PutTemporaryRecord returns a Record not linked into any RecordList back to
// the allocator.
func (m *Message) PutTemporaryRecord(r *Record) { m.records.release(r) }

// GetTemporaryRecordList checks out a blank RecordList.
func (m *Message) GetTemporaryRecordList() *RecordList { return m.lists.acquire() }

// PutTemporaryRecordList returns an unattached RecordList to the allocator.
func (m *Message) PutTemporaryRecordList(l *RecordList) { m.lists.release(l) }

// GetTemporaryRecordSet checks out a blank RecordSet.
func (m *Message) GetTemporaryRecordSet() *RecordSet { return m.sets.acquire() }

// PutTemporaryRecordSet returns an unattached RecordSet to the allocator.
func (m *Message) PutTemporaryRecordSet(rs *RecordSet) { m.sets.release(rs) }

// GetOPT returns the message's OPT RecordSet, if any.
func (m *Message) GetOPT() (*RecordSet, bool) { return m.opt, m.opt != nil }

// SetOPT installs rs as the message's OPT record. It is legal only before
// any section record has established the message's class (spec.md §4.6),
// and reserves 11 bytes plus rs's rdata length at the buffer's tail,
// releasing any prior OPT's reservation first.
func (m *Message) SetOPT(rs *RecordSet) error {
	if m.st != stateNone {
		return errFormat("set_opt is only legal before any record establishes message state")
	}
	if !m.rendering {
		return errFormat("set_opt requires an active render")
	}
	if m.opt != nil {
		if err := m.Release(m.optReserved); err != nil {
			return err
		}
		m.optReserved = 0
	}

	rdlen := int32(0)
	if rs.list != nil && rs.list.head != nil {
		rdlen = int32(len(rs.list.head.rdata.Data))
	}
	need := 11 + rdlen
	if err := m.Reserve(need); err != nil {
		return err
	}
	m.optReserved = need
	m.opt = rs
	return nil
}
