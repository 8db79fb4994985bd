package dnsmsg

// ParseOptions controls parse-time behavior: whether records merge into
// shared RecordSets or retain distinct wire occurrences, how strict the
// decompression discipline is, and which Verifier checks a TSIG (spec.md
// §4.4, §9).
type ParseOptions struct {
	// PreserveOrder, when true, keeps every record as a distinct occurrence
	// in its section instead of merging same-owner records into one
	// RecordSet's RecordList.
	PreserveOrder bool

	// StrictMode governs the pre-EDNS decompression discipline; disabling
	// it (or an EDNS version above 1) allows global compression.
	StrictMode bool

	// Verifier checks a parsed TSIG's MAC. May be nil if the caller does
	// not intend to verify signed messages.
	Verifier Verifier
}

// Parse decodes src into m, which must have been created or reset with
// IntentParse. It implements the header, question, and record-section
// stages of spec.md §4.4 in order, aborting on the first error.
func (m *Message) Parse(src []byte, opts ParseOptions) error {
	if m.intent != IntentParse {
		return errFormat("message is not a parse-intent message")
	}

	wh, err := decodeHeader(src)
	if err != nil {
		return err
	}
	m.id = wh.id
	opcode, rcode, preserved := splitFlags(wh.flags)
	m.opcode = opcode
	m.rcode = uint16(rcode)
	m.flags = preserved
	m.counts[sectionQuestion] = wh.qdcount
	m.counts[sectionAnswer] = wh.ancount
	m.counts[sectionAuthority] = wh.nscount
	m.counts[sectionAdditional] = wh.arcount
	m.headerOK = true

	m.dctx.setMethods(-1, opts.StrictMode)

	pos := HeaderLen
	for i := uint16(0); i < wh.qdcount; i++ {
		pos, err = m.parseQuestion(src, pos)
		if err != nil {
			return err
		}
	}
	m.questionOK = true

	plan := []struct {
		sec   section
		count uint16
	}{
		{sectionAnswer, wh.ancount},
		{sectionAuthority, wh.nscount},
		{sectionAdditional, wh.arcount},
	}

	sawOPT := false
	for _, p := range plan {
		for i := uint16(0); i < p.count; i++ {
			pos, err = m.parseRecord(src, pos, p.sec, i == p.count-1, opts, &sawOPT)
			if err != nil {
				return err
			}
		}
	}

	if pos != len(src) {
		return errFormat("trailing bytes after final section")
	}

	if m.tsig != nil && opts.Verifier != nil {
		if err := m.verifyTSIG(src, opts.Verifier); err != nil {
			return err
		}
	}

	return nil
}

// parseQuestion implements one iteration of spec.md §4.4's question stage.
func (m *Message) parseQuestion(src []byte, pos int) (int, error) {
	n := m.newName(nil)
	wire, consumed, err := decodeName(src, pos, m.dctx, m.scratch)
	if err != nil {
		m.releaseName(n)
		return 0, err
	}
	n.wire = wire
	pos += consumed

	qsec := m.sections.list(sectionQuestion)
	if existing := qsec.findTailToHead(n); existing != nil {
		m.releaseName(n)
		n = existing
	} else if qsec.count == 0 {
		m.sections.append(sectionQuestion, n)
	} else {
		m.releaseName(n)
		return 0, errFormat("question section admits only a single owner name")
	}

	if len(src)-pos < 4 {
		return 0, errUnexpectedEnd("short question record")
	}
	qtype := be16(src, pos)
	qclass := be16(src, pos+2)
	pos += 4

	if err := m.latchClass(qclass); err != nil {
		return 0, err
	}

	if n.FindSet(qtype, 0) != nil {
		return 0, errFormat("duplicate question")
	}

	rs := m.newRecordSet(qtype, 0, qclass, 0)
	rs.question = true
	n.appendSet(rs)

	return pos, nil
}

// parseRecord implements one iteration of spec.md §4.4's record-section
// stage. isLast indicates this is the final record of sec's header count,
// the position TSIG is required to occupy.
func (m *Message) parseRecord(src []byte, pos int, sec section, isLast bool, opts ParseOptions, sawOPT *bool) (int, error) {
	start := pos

	n := m.newName(nil)
	wire, consumed, err := decodeName(src, pos, m.dctx, m.scratch)
	if err != nil {
		m.releaseName(n)
		return 0, err
	}
	n.wire = wire
	pos += consumed

	if len(src)-pos < 10 {
		m.releaseName(n)
		return 0, errUnexpectedEnd("short record header")
	}
	rtype := be16(src, pos)
	class := be16(src, pos+2)
	pos += 4

	if m.st == stateNone {
		if class == 0 || class == ClassANY {
			m.releaseName(n)
			return 0, errFormat("first record's class may not be 0 or ANY")
		}
		m.rdclass, m.hasRD, m.st = class, true, stateQuestionEstablished
	}

	isTSIG := rtype == TypeTSIG
	isOPT := rtype == TypeOPT
	if !isTSIG && !isOPT && m.opcode != OpcodeUpdate {
		if class != m.rdclass {
			m.releaseName(n)
			return 0, errFormat("record class does not match message class")
		}
	}

	if isTSIG {
		if sec != sectionAdditional || !isLast || class != ClassANY {
			m.releaseName(n)
			return 0, errFormat("TSIG must be the last record in Additional with class ANY")
		}
	}
	if isOPT {
		if !n.IsRoot() {
			m.releaseName(n)
			return 0, errFormat("OPT owner name must be root")
		}
		if sec != sectionAdditional {
			m.releaseName(n)
			return 0, errFormat("OPT must be in Additional")
		}
		if *sawOPT {
			m.releaseName(n)
			return 0, errFormat("second OPT record")
		}
	}

	if len(src)-pos < 6 {
		m.releaseName(n)
		return 0, errUnexpectedEnd("short record trailer")
	}
	ttl := be32(src, pos)
	rdlength := int(be16(src, pos+4))
	pos += 6
	if len(src)-pos < rdlength {
		m.releaseName(n)
		return 0, errUnexpectedEnd("rdata runs past end of message")
	}

	if isTSIG {
		rdata, err := decodeRData(src, pos, rdlength, m.scratch)
		if err != nil {
			m.releaseName(n)
			return 0, err
		}
		pos += rdlength
		m.releaseName(n)
		m.tsig = rdata
		m.tsigstart = start
		m.counts[sectionAdditional]--
		m.counts[sectionTSIG] = 1
		return pos, nil
	}

	specialSkip := isOPT
	distinct := opts.PreserveOrder || m.opcode == OpcodeUpdate || specialSkip

	var target *Name
	if isOPT {
		m.releaseName(n) // OPT keeps no owner name; only m.opt references it
	} else if distinct {
		m.sections.append(sec, n)
		target = n
	} else if existing := m.sections.list(sec).findTailToHead(n); existing != nil {
		m.releaseName(n)
		target = existing
	} else {
		m.sections.append(sec, n)
		target = n
	}

	rdata, err := decodeRData(src, pos, rdlength, m.scratch)
	if err != nil {
		return 0, err
	}
	pos += rdlength

	covers := coversOf(rtype, rdata)

	var rs *RecordSet
	if !isOPT {
		if rs = target.FindSet(rtype, covers); rs == nil {
			rs = m.newRecordSet(rtype, covers, class, ttl)
			target.appendSet(rs)
		}
	} else {
		rs = m.newRecordSet(rtype, covers, class, ttl)
	}
	rs.list.append(m.newRecord(RData{Class: class, Type: rtype, Data: rdata}))

	if isOPT {
		*sawOPT = true
		m.opt = rs
		extRcode, version, _ := decodeOPTTTL(ttl)
		m.rcode = (uint16(extRcode) << 4) | (m.rcode & 0x000f)
		m.dctx.setMethods(int(version), opts.StrictMode)
	}

	return pos, nil
}

// verifyTSIG invokes v over the whole original source, TSIG record included;
// that record starts at tsigstart and its MAC covers the bytes before it.
func (m *Message) verifyTSIG(src []byte, v Verifier) error {
	key, ok := m.TSIGKeySet()
	if !ok {
		m.tsigstatus = TSIGBadKey
		return nil
	}
	status, err := v.Verify(src, key, "")
	m.tsigstatus = status
	if status == TSIGOk {
		m.signerName, m.signerKnown = key.Name, true
	}
	return err
}

func be16(src []byte, pos int) uint16 {
	return uint16(src[pos])<<8 | uint16(src[pos+1])
}

func be32(src []byte, pos int) uint32 {
	return uint32(src[pos])<<24 | uint32(src[pos+1])<<16 | uint32(src[pos+2])<<8 | uint32(src[pos+3])
}
