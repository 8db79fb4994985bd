package dnsmsg

import "github.com/jengyic/bind-utils/common/buf"

// Intent fixes whether a Message is a parse target or a render source for
// its entire lifetime between resets (spec.md §3, §9).
type Intent int

const (
	IntentParse Intent = iota
	IntentRender
)

// state is the class-latching progress marker (spec.md §3).
type state int

const (
	stateNone state = iota
	stateQuestionEstablished
)

// Message is the root entity of the engine: an in-memory DNS message plus
// the allocator and scratch storage backing every Name/Record/RecordList/
// RecordSet it owns.
//
// A Message is not safe for concurrent use.
type Message struct {
	intent Intent

	id      uint16
	opcode  uint8
	rcode   uint16 // up to 12 bits once an OPT is present
	flags   uint16 // preserved bits only (masked by flagMaskPreserve)
	rdclass uint16
	hasRD   bool
	st      state

	counts        [numSections]uint16 // header-reported on parse; rendered/parsed tally otherwise
	namesRendered [numSections]uint16 // distinct Names with >=1 RecordSet rendered this render (SPEC_FULL.md §C.4)

	sections sectionStore
	cursors  [numSections]*Name
	opt      *RecordSet

	tsig            []byte
	querytsig       []byte
	tsigkey         *TSIGKey
	tsigKeyOwned    bool
	tsigstart       int
	tsigstatus      TSIGStatus
	querytsigstatus TSIGStatus
	signerName      string
	signerKnown     bool

	reserved    int32
	optReserved int32
	buffer      *buf.Buffer
	rendering   bool

	headerOK   bool
	questionOK bool

	scratch *scratchpad
	names   *slab[Name]
	records *slab[Record]
	lists   *slab[RecordList]
	sets    *slab[RecordSet]

	cctx *compressContext
	dctx *decompressContext
}

// New creates a Message for the given intent, with fresh allocators.
func New(intent Intent) *Message {
	m := &Message{intent: intent}
	m.initAllocators()
	return m
}

func (m *Message) initAllocators() {
	m.scratch = newScratchpad()
	m.names = newSlab[Name](defaultSlabCapacity)
	m.records = newSlab[Record](defaultSlabCapacity)
	m.lists = newSlab[RecordList](defaultSlabCapacity)
	m.sets = newSlab[RecordSet](defaultSlabCapacity)
	m.cctx = newCompressContext()
	m.dctx = newDecompressContext()
}

// Reset returns the Message to a freshly created state for intent, keeping
// one slab block per family and the scratchpad's first buffer as a
// fast-path cache (spec.md §4.1, §8 "no additional allocation below default
// capacities").
func (m *Message) Reset(intent Intent) {
	m.detachBuffer()

	m.intent = intent
	m.id = 0
	m.opcode = 0
	m.rcode = 0
	m.flags = 0
	m.rdclass = 0
	m.hasRD = false
	m.st = stateNone
	m.counts = [numSections]uint16{}
	m.namesRendered = [numSections]uint16{}
	m.sections = sectionStore{}
	m.cursors = [numSections]*Name{}
	m.opt = nil

	m.tsig = nil
	m.querytsig = nil
	// A message-owned key is detached on reset; a caller-owned key (set
	// with owned=false) survives, so the next parse/render can reuse it
	// without the caller calling SetTSIGKey again (SPEC_FULL.md §C.2b).
	if m.tsigKeyOwned {
		m.tsigkey = nil
		m.tsigKeyOwned = false
	}
	m.tsigstart = -1
	m.tsigstatus = TSIGNone
	m.querytsigstatus = TSIGNone
	m.signerName = ""
	m.signerKnown = false

	m.reserved = 0
	m.optReserved = 0
	m.headerOK = false
	m.questionOK = false

	m.scratch.reset(true)
	m.names.resetKeepOne()
	m.records.resetKeepOne()
	m.lists.resetKeepOne()
	m.sets.resetKeepOne()
	m.cctx.invalidate()
	m.dctx = newDecompressContext()
}

// Destroy releases every resource the Message owns. The Message must not be
// used afterward.
func (m *Message) Destroy() {
	m.detachBuffer()
	m.scratch.destroy()
	m.names.destroy()
	m.records.destroy()
	m.lists.destroy()
	m.sets.destroy()
}

func (m *Message) detachBuffer() {
	if m.buffer != nil && !m.rendering {
		m.buffer = nil
	}
}

// Intent returns the Message's fixed parse/render intent.
func (m *Message) Intent() Intent { return m.intent }

// ID returns the message identifier.
func (m *Message) ID() uint16 { return m.id }

// SetID sets the message identifier (used when constructing a render-intent
// Message from scratch).
func (m *Message) SetID(id uint16) { m.id = id }

// Opcode returns the message opcode.
func (m *Message) Opcode() uint8 { return m.opcode }

// SetOpcode sets the message opcode.
func (m *Message) SetOpcode(op uint8) { m.opcode = op }

// Rcode returns the full response code (up to 12 bits when OPT is present).
func (m *Message) Rcode() uint16 { return m.rcode }

// SetRcode sets the full response code.
func (m *Message) SetRcode(rc uint16) { m.rcode = rc }

// Flags returns the preserved (non-opcode, non-rcode) flag bits.
func (m *Message) Flags() uint16 { return m.flags }

// SetFlags sets the preserved flag bits (masked to flagMaskPreserve).
func (m *Message) SetFlags(f uint16) { m.flags = f & flagMaskPreserve }

// QR reports whether the response flag is set.
func (m *Message) QR() bool { return m.flags&qrBit != 0 }

// SetQR sets or clears the response flag.
func (m *Message) SetQR(v bool) {
	if v {
		m.flags |= qrBit
	} else {
		m.flags &^= qrBit
	}
}

// Class returns the message-wide record class, and whether it has been
// established yet.
func (m *Message) Class() (uint16, bool) { return m.rdclass, m.hasRD }

// Count returns the in-memory record count for a wire section.
func (m *Message) Count(sec section) uint16 { return m.counts[sec] }

// RenderStats is informational render telemetry finer than the per-section
// record count: how many distinct Names had at least one RecordSet rendered,
// irrespective of how many RecordSets or Records each carried (supplemented
// feature, SPEC_FULL.md §C.4, mirroring BIND9's "want good name" counter).
type RenderStats struct {
	NamesRendered int
}

// RenderStats reports sec's render telemetry accumulated across every
// Section(sec) call so far in the current (or most recent) render.
func (m *Message) RenderStats(sec section) RenderStats {
	return RenderStats{NamesRendered: int(m.namesRendered[sec])}
}

// HeaderOK reports whether the header stage completed successfully.
func (m *Message) HeaderOK() bool { return m.headerOK }

// QuestionOK reports whether the question stage completed successfully.
func (m *Message) QuestionOK() bool { return m.questionOK }

// TSIG returns the parsed TSIG payload, if any.
func (m *Message) TSIG() ([]byte, bool) { return m.tsig, m.tsig != nil }

// QueryTSIG returns the query-side TSIG payload stashed by Reply.
func (m *Message) QueryTSIG() ([]byte, bool) { return m.querytsig, m.querytsig != nil }

// TSIGStart returns the byte offset where the TSIG record begins in the
// parsed source, or -1 if there was none.
func (m *Message) TSIGStart() int { return m.tsigstart }

// TSIGStatus returns the result of verifying this message's TSIG.
func (m *Message) TSIGStatus() TSIGStatus { return m.tsigstatus }

// Signer returns the name of the key that produced a verified TSIG, if any
// (supplemented feature, SPEC_FULL.md §C.5).
func (m *Message) Signer() (string, bool) { return m.signerName, m.signerKnown }

// SetTSIGKey sets the key a subsequent parse's TSIG verification, or a
// render's TSIG signing, is evaluated against. owned governs whether Reset
// detaches the key along with the rest of the message's owned TSIG state
// (owned=true, the usual case) or leaves it in place for reuse across resets
// (owned=false), mirroring BIND9's usecounter distinction between a
// message-owned key and a caller-owned reference merely held by the message
// (supplemented feature, SPEC_FULL.md §C.2/§C.2b).
func (m *Message) SetTSIGKey(key TSIGKey, owned bool) {
	k := key
	m.tsigkey = &k
	m.tsigKeyOwned = owned
}

// TSIGKeySet reports whether a signing/verification key has been set.
func (m *Message) TSIGKeySet() (TSIGKey, bool) {
	if m.tsigkey == nil {
		return TSIGKey{}, false
	}
	return *m.tsigkey, true
}

// SlabStats reports allocator occupancy for each of the four record
// families, in Name/Record/RecordList/RecordSet order.
func (m *Message) SlabStats() [4]SlabStats {
	var out [4]SlabStats
	b, u, f := m.names.stats()
	out[0] = SlabStats{b, u, f}
	b, u, f = m.records.stats()
	out[1] = SlabStats{b, u, f}
	b, u, f = m.lists.stats()
	out[2] = SlabStats{b, u, f}
	b, u, f = m.sets.stats()
	out[3] = SlabStats{b, u, f}
	return out
}

// latchClass establishes the message-wide class on first sight, else
// requires agreement.
func (m *Message) latchClass(class uint16) error {
	if m.st == stateNone {
		m.rdclass = class
		m.hasRD = true
		m.st = stateQuestionEstablished
		return nil
	}
	if class != m.rdclass {
		return errFormat("record class does not match message class")
	}
	return nil
}

func (m *Message) newName(wire []byte) *Name {
	n := m.names.acquire()
	n.wire = wire
	return n
}

func (m *Message) newRecordSet(rtype, covers, class uint16, ttl uint32) *RecordSet {
	list := m.lists.acquire()
	list.rtype, list.covers, list.class, list.ttl = rtype, covers, class, ttl
	rs := m.sets.acquire()
	rs.list = list
	return rs
}

func (m *Message) releaseName(n *Name) {
	m.names.release(n)
}

func (m *Message) newRecord(rd RData) *Record {
	r := m.records.acquire()
	r.SetRData(rd)
	return r
}
