package dnsmsg

import (
	"encoding/base64"
	"testing"

	"github.com/jengyic/bind-utils/common/buf"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderSections(t *testing.T, m *Message, buffer *buf.Buffer) {
	t.Helper()
	require.NoError(t, m.Begin(buffer))
	require.NoError(t, m.Section(sectionQuestion))
	require.NoError(t, m.Section(sectionAnswer))
	require.NoError(t, m.Section(sectionAuthority))
	require.NoError(t, m.Section(sectionAdditional))
}

func TestRenderParseRoundTrip(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()
	m.SetID(0x1234)
	m.SetOpcode(OpcodeQuery)

	qname := m.newName(wireName("example", "com"))
	m.AddName(sectionQuestion, qname)
	qrs := m.newRecordSet(TypeA, 0, ClassINET, 0)
	qrs.question = true
	qname.appendSet(qrs)

	aname := m.newName(wireName("example", "com"))
	m.AddName(sectionAnswer, aname)
	ars := m.newRecordSet(TypeA, 0, ClassINET, 300)
	aname.appendSet(ars)
	ars.list.append(m.newRecord(RData{Class: ClassINET, Type: TypeA, Data: []byte{192, 0, 2, 1}}))

	buffer := buf.New()
	defer buffer.Release()
	renderSections(t, m, buffer)
	require.NoError(t, m.End(EndOptions{}))

	wire := append([]byte(nil), buffer.Bytes()...)

	p := New(IntentParse)
	defer p.Destroy()
	require.NoError(t, p.Parse(wire, ParseOptions{}))

	assert.Equal(t, uint16(0x1234), p.ID())
	assert.Equal(t, OpcodeQuery, p.Opcode())
	assert.False(t, p.QR())
	assert.Equal(t, uint16(1), p.Count(sectionQuestion))
	assert.Equal(t, uint16(1), p.Count(sectionAnswer))

	name, err := p.FirstName(sectionAnswer)
	require.NoError(t, err)
	rs := name.FindSet(TypeA, 0)
	require.NotNil(t, rs)
	recs := rs.List().Records()
	require.Len(t, recs, 1)
	assert.Equal(t, []byte{192, 0, 2, 1}, recs[0].Data)
}

func TestRenderStatsCountsDistinctNamesNotRecordSets(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()

	aname := m.newName(wireName("multi"))
	m.AddName(sectionAnswer, aname)
	ars1 := m.newRecordSet(TypeA, 0, ClassINET, 0)
	aname.appendSet(ars1)
	ars1.list.append(m.newRecord(RData{Class: ClassINET, Type: TypeA, Data: []byte{1, 2, 3, 4}}))
	ars2 := m.newRecordSet(TypeAAAA, 0, ClassINET, 0)
	aname.appendSet(ars2)
	ars2.list.append(m.newRecord(RData{Class: ClassINET, Type: TypeAAAA, Data: make([]byte, 16)}))

	other := m.newName(wireName("single"))
	m.AddName(sectionAnswer, other)
	ors := m.newRecordSet(TypeA, 0, ClassINET, 0)
	other.appendSet(ors)
	ors.list.append(m.newRecord(RData{Class: ClassINET, Type: TypeA, Data: []byte{5, 6, 7, 8}}))

	buffer := buf.New()
	defer buffer.Release()
	require.NoError(t, m.Begin(buffer))
	require.NoError(t, m.Section(sectionAnswer))

	assert.Equal(t, uint16(3), m.Count(sectionAnswer))
	assert.Equal(t, 2, m.RenderStats(sectionAnswer).NamesRendered)
}

func TestSectionRollsBackOnOversizedRecord(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()

	qname := m.newName(wireName("q"))
	m.AddName(sectionQuestion, qname)
	qrs := m.newRecordSet(TypeA, 0, ClassINET, 0)
	qrs.question = true
	qname.appendSet(qrs)

	fits := m.newName(wireName("a"))
	m.AddName(sectionAnswer, fits)
	fitsRS := m.newRecordSet(TypeA, 0, ClassINET, 0)
	fits.appendSet(fitsRS)
	fitsRS.list.append(m.newRecord(RData{Class: ClassINET, Type: TypeA, Data: make([]byte, 400)}))

	overflow := m.newName(wireName("b"))
	m.AddName(sectionAnswer, overflow)
	overflowRS := m.newRecordSet(TypeAAAA, 0, ClassINET, 0)
	overflow.appendSet(overflowRS)
	overflowRS.list.append(m.newRecord(RData{Class: ClassINET, Type: TypeAAAA, Data: make([]byte, 100)}))

	buffer := buf.New()
	defer buffer.Release()
	require.NoError(t, m.Begin(buffer))
	require.NoError(t, m.Section(sectionQuestion))

	lenBefore := buffer.Len()
	err := m.Section(sectionAnswer)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNoSpace))

	assert.Equal(t, uint16(1), m.Count(sectionAnswer), "the record that fit must still be counted")
	assert.True(t, fitsRS.Rendered())
	assert.False(t, overflowRS.Rendered())
	assert.Greater(t, buffer.Len(), lenBefore, "the first record's bytes must remain committed")
}

func TestReserveReleaseAreInverses(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()
	buffer := buf.New()
	defer buffer.Release()
	require.NoError(t, m.Begin(buffer))

	before := buffer.Available()
	require.NoError(t, m.Reserve(20))
	assert.Equal(t, before-20, buffer.Available())
	require.NoError(t, m.Release(20))
	assert.Equal(t, before, buffer.Available())
}

func TestEndSignsTSIGOverAHeaderCarryingRealCounts(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()
	m.SetID(0x4242)
	m.SetOpcode(OpcodeQuery)

	qname := m.newName(wireName("example", "com"))
	m.AddName(sectionQuestion, qname)
	qrs := m.newRecordSet(TypeA, 0, ClassINET, 0)
	qrs.question = true
	qname.appendSet(qrs)

	buffer := buf.New()
	defer buffer.Release()
	renderSections(t, m, buffer)

	key := TSIGKey{
		Name:      "key.",
		Algorithm: dns.HmacSHA256,
		Secret:    base64.StdEncoding.EncodeToString([]byte("0123456789abcdef")),
	}
	require.NoError(t, m.End(EndOptions{Key: &key, Signer: MiekgTSIG{}}))

	wire := buffer.Bytes()
	id, flags, ok := PeekHeader(wire)
	require.True(t, ok)
	assert.Equal(t, uint16(0x4242), id)
	assert.False(t, flags&qrBit != 0)

	// arcount must count the signed TSIG record even though it was
	// rendered after the header's first (pre-TSIG) write.
	arcount := uint16(wire[10])<<8 | uint16(wire[11])
	assert.Equal(t, uint16(1), arcount)

	// A dns.Msg must be able to unpack the fully-finalized wire bytes:
	// this would fail (or read zeroed counts) if the TSIG had been signed
	// against a header still holding Begin's reserved zero bytes.
	var parsed dns.Msg
	require.NoError(t, parsed.Unpack(wire))
	require.Len(t, parsed.Extra, 1)
	assert.Equal(t, dns.TypeTSIG, parsed.Extra[0].Header().Rrtype)
}

func TestExtendedRcodeWithoutOPTIsRejectedAtEnd(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()
	m.SetRcode(0x0100) // extended rcode bits set, no OPT
	buffer := buf.New()
	defer buffer.Release()
	require.NoError(t, m.Begin(buffer))

	err := m.End(EndOptions{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindFormatError))
}
