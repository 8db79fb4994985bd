package dnsmsg

import (
	"encoding/binary"

	"golang.org/x/net/dns/dnsmessage"
)

// EDNSOption is one EDNS0 option (code, opaque data), the same shape the
// teacher's genEDNS0Options builds (app/dns/dnscommon.go) when attaching
// client-subnet/padding options to outgoing queries.
type EDNSOption = dnsmessage.Option

// OPTInfo is the decoded form of an OPT pseudo-record's TTL-encoded fields
// plus its rdata-encoded option list (spec.md §6 "EDNS OPT").
type OPTInfo struct {
	UDPSize       uint16
	ExtendedRcode uint8
	Version       uint8
	Flags         uint16
	Options       []EDNSOption
}

// decodeOPTTTL splits an OPT record's TTL into extended-rcode, version, and
// flag bits (spec.md §6).
func decodeOPTTTL(ttl uint32) (extRcode uint8, version uint8, flags uint16) {
	return uint8(ttl >> 24), uint8(ttl >> 16), uint16(ttl)
}

// encodeOPTTTL reassembles an OPT record's TTL from its component fields.
func encodeOPTTTL(extRcode uint8, version uint8, flags uint16) uint32 {
	return uint32(extRcode)<<24 | uint32(version)<<16 | uint32(flags)
}

// decodeOPTOptions parses an OPT record's rdata into its (code, length,
// data) option list.
func decodeOPTOptions(rdata []byte) ([]EDNSOption, error) {
	var opts []EDNSOption
	i := 0
	for i+4 <= len(rdata) {
		code := binary.BigEndian.Uint16(rdata[i:])
		length := int(binary.BigEndian.Uint16(rdata[i+2:]))
		i += 4
		if i+length > len(rdata) {
			return nil, errFormat("truncated EDNS option")
		}
		opts = append(opts, EDNSOption{Code: dnsmessage.OptionCode(code), Data: rdata[i : i+length]})
		i += length
	}
	if i != len(rdata) {
		return nil, errFormat("trailing bytes in OPT rdata")
	}
	return opts, nil
}

// OPTInfo decodes m's OPT record, if any, into its component fields.
func (m *Message) OPTInfo() (OPTInfo, bool) {
	if m.opt == nil || m.opt.list == nil || m.opt.list.head == nil {
		return OPTInfo{}, false
	}
	extRcode, version, flags := decodeOPTTTL(m.opt.list.ttl)
	opts, err := decodeOPTOptions(m.opt.list.head.rdata.Data)
	if err != nil {
		return OPTInfo{}, false
	}
	return OPTInfo{
		UDPSize:       m.opt.list.class,
		ExtendedRcode: extRcode,
		Version:       version,
		Flags:         flags,
		Options:       opts,
	}, true
}

// BuildOPT constructs a temporary OPT RecordSet from info, ready to pass to
// SetOPT. It does not link the RecordSet anywhere; SetOPT does that.
func (m *Message) BuildOPT(info OPTInfo) (*RecordSet, error) {
	data, err := encodeOPTOptions(info.Options, m.scratch)
	if err != nil {
		return nil, err
	}
	ttl := encodeOPTTTL(info.ExtendedRcode, info.Version, info.Flags)
	rs := m.newRecordSet(TypeOPT, 0, info.UDPSize, ttl)
	rs.list.append(m.newRecord(RData{Class: info.UDPSize, Type: TypeOPT, Data: data}))
	return rs, nil
}

// encodeOPTOptions serializes an option list into scratchpad-owned rdata
// bytes suitable for storing on an OPT RecordSet's sole Record.
func encodeOPTOptions(opts []EDNSOption, scratch *scratchpad) ([]byte, error) {
	total := 0
	for _, o := range opts {
		total += 4 + len(o.Data)
	}
	if total == 0 {
		return nil, nil
	}
	dst, err := scratch.allocRData(int32(total), int32(total))
	if err != nil {
		return nil, err
	}
	off := 0
	for _, o := range opts {
		binary.BigEndian.PutUint16(dst[off:], uint16(o.Code))
		binary.BigEndian.PutUint16(dst[off+2:], uint16(len(o.Data)))
		copy(dst[off+4:], o.Data)
		off += 4 + len(o.Data)
	}
	return dst, nil
}
