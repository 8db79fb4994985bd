package dnsmsg

import (
	"testing"

	"github.com/jengyic/bind-utils/common/buf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildParsedQuery(t *testing.T) *Message {
	t.Helper()
	src := New(IntentRender)
	src.SetID(42)
	src.SetOpcode(OpcodeQuery)
	src.SetFlags(rdBit)

	qname := src.newName(wireName("example", "com"))
	src.AddName(sectionQuestion, qname)
	qrs := src.newRecordSet(TypeA, 0, ClassINET, 0)
	qrs.question = true
	qname.appendSet(qrs)

	buffer := buf.New()
	require.NoError(t, src.Begin(buffer))
	require.NoError(t, src.Section(sectionQuestion))
	require.NoError(t, src.End(EndOptions{}))
	wire := append([]byte(nil), buffer.Bytes()...)
	buffer.Release()
	src.Destroy()

	m := New(IntentParse)
	require.NoError(t, m.Parse(wire, ParseOptions{}))
	return m
}

func TestReplyFlipsIntentAndPreservesOnlyRD(t *testing.T) {
	m := buildParsedQuery(t)
	defer m.Destroy()

	require.NoError(t, m.Reply(true))
	assert.Equal(t, IntentRender, m.Intent())
	assert.True(t, m.QR())
	assert.Equal(t, uint16(rdBit), m.Flags()&flagMaskPreserve&^qrBit)
	assert.Equal(t, uint16(1), m.Count(sectionQuestion))
	assert.Equal(t, uint16(0), m.Count(sectionAnswer))
}

func TestReplyRejectsAlreadyAReply(t *testing.T) {
	m := buildParsedQuery(t)
	defer m.Destroy()
	require.NoError(t, m.Reply(true))

	err := m.Reply(true)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindFormatError))
}

func TestFindNameDistinguishesNotFoundFromNoRecordForType(t *testing.T) {
	m := buildParsedQuery(t)
	defer m.Destroy()

	qname, err := m.FirstName(sectionQuestion)
	require.NoError(t, err)

	_, _, err = m.FindName(sectionQuestion, qname, TypeAAAA, 0)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNoRecordForType))

	other := m.GetTemporaryName()
	other.wire = wireName("nowhere")
	_, _, err = m.FindName(sectionQuestion, other, TypeA, 0)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	m.PutTemporaryName(other)
}

func TestFindTypeLocatesARecordSetWithoutANameHandle(t *testing.T) {
	m := buildParsedQuery(t)
	defer m.Destroy()

	rs, err := m.FindType(sectionQuestion, TypeA, 0)
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, TypeA, rs.List().Type())

	_, err = m.FindType(sectionQuestion, TypeAAAA, 0)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestTemporaryRecordSetCheckoutRoundTrip(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()

	rs := m.GetTemporaryRecordSet()
	require.NotNil(t, rs)
	m.PutTemporaryRecordSet(rs)
}

func TestSetOPTReservesAndGetOPTReportsIt(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()
	buffer := buf.New()
	defer buffer.Release()
	require.NoError(t, m.Begin(buffer))

	before := buffer.Available()
	rs, err := m.BuildOPT(OPTInfo{UDPSize: 4096, ExtendedRcode: 0, Version: 0, Flags: 0})
	require.NoError(t, err)
	require.NoError(t, m.SetOPT(rs))

	assert.Equal(t, before-11, buffer.Available())
	got, ok := m.GetOPT()
	assert.True(t, ok)
	assert.Same(t, rs, got)
}

func TestSetOPTRejectedOnceClassIsEstablished(t *testing.T) {
	m := New(IntentRender)
	defer m.Destroy()
	buffer := buf.New()
	defer buffer.Release()
	require.NoError(t, m.Begin(buffer))
	require.NoError(t, m.latchClass(ClassINET))

	rs, err := m.BuildOPT(OPTInfo{UDPSize: 4096})
	require.NoError(t, err)
	err = m.SetOPT(rs)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindFormatError))
}
