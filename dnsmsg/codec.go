package dnsmsg

import (
	"encoding/binary"

	"github.com/jengyic/bind-utils/common/buf"
	"golang.org/x/net/dns/dnsmessage"
)

// Wire-format type and class constants. These are the same values
// golang.org/x/net/dns/dnsmessage defines; re-exporting dnsmessage's own
// constants keeps the engine's vocabulary identical to the teacher's own
// DNS-facing code (app/dns/dnscommon.go uses this package directly for the
// same purpose) instead of re-declaring a parallel set of bare uint16s.
const (
	TypeA     = uint16(dnsmessage.TypeA)
	TypeNS    = uint16(dnsmessage.TypeNS)
	TypeCNAME = uint16(dnsmessage.TypeCNAME)
	TypeSOA   = uint16(dnsmessage.TypeSOA)
	TypePTR   = uint16(dnsmessage.TypePTR)
	TypeMX    = uint16(dnsmessage.TypeMX)
	TypeTXT   = uint16(dnsmessage.TypeTXT)
	TypeAAAA  = uint16(dnsmessage.TypeAAAA)
	TypeSRV   = uint16(dnsmessage.TypeSRV)
	TypeOPT   = uint16(dnsmessage.TypeOPT)
	TypeAXFR  = uint16(dnsmessage.TypeAXFR)
	TypeALL   = uint16(dnsmessage.TypeALL)

	// Not carried by dnsmessage (it predates these RR types in the subset it
	// implements); declared directly from their IANA-assigned values.
	TypeRRSIG = uint16(46)
	TypeSIG   = uint16(24)
	TypeTSIG  = uint16(250)

	ClassINET   = uint16(dnsmessage.ClassINET)
	ClassNONE   = uint16(dnsmessage.ClassNONE)
	ClassANY    = uint16(dnsmessage.ClassANY)
	ClassCSNET  = uint16(dnsmessage.ClassCSNET)
	ClassCHAOS  = uint16(dnsmessage.ClassCHAOS)
	ClassHESIOD = uint16(dnsmessage.ClassHESIOD)
)

// --- name codec -------------------------------------------------------

// decodeName reads a (possibly compressed) domain name starting at pos in
// src, expands it to its canonical uncompressed wire form in scratchpad
// storage, and returns the number of bytes consumed from src at the
// original position (i.e. not counting bytes reached via a pointer jump).
func decodeName(src []byte, pos int, dctx *decompressContext, scratch *scratchpad) (wire []byte, consumed int, err error) {
	var labels [][]byte
	total := 0
	cur := pos
	jumped := false
	realConsumed := -1

loop:
	for {
		if cur >= len(src) {
			return nil, 0, errUnexpectedEnd("name runs past end of message")
		}
		b := src[cur]
		switch {
		case b == 0:
			cur++
			if !jumped {
				realConsumed = cur - pos
			}
			labels = append(labels, nil)
			break loop
		case b&0xc0 == 0xc0:
			if cur+1 >= len(src) {
				return nil, 0, errUnexpectedEnd("truncated compression pointer")
			}
			ptr := (int(b&0x3f) << 8) | int(src[cur+1])
			if !jumped {
				realConsumed = cur + 2 - pos
			}
			if !dctx.pointerAllowed(ptr, cur) {
				return nil, 0, errFormat("compression pointer does not precede its reference")
			}
			jumped = true
			cur = ptr
		case b&0xc0 != 0:
			return nil, 0, errFormat("reserved label length bits set")
		default:
			length := int(b)
			if cur+1+length > len(src) {
				return nil, 0, errUnexpectedEnd("label runs past end of message")
			}
			total += length + 1
			if total > 254 {
				return nil, 0, errFormat("name exceeds 255 octets")
			}
			labels = append(labels, src[cur+1:cur+1+length])
			cur += 1 + length
		}
	}

	size := int32(total + 1)
	dst := scratch.alloc(size)
	off := 0
	for _, l := range labels {
		if l == nil {
			dst[off] = 0
			off++
			continue
		}
		dst[off] = byte(len(l))
		copy(dst[off+1:], l)
		off += 1 + len(l)
	}
	return dst, realConsumed, nil
}

// encodeName writes wire (a canonical, uncompressed label sequence) into
// dst, using cctx to emit a compression pointer for the longest previously
// written suffix, and recording every newly written suffix as a future
// compression target.
func encodeName(wire []byte, cctx *compressContext, dst *buf.Buffer) error {
	rest := wire
	offset := uint16(dst.Len())
	overflowed := dst.Len() > maxPointerOffset

	for len(rest) > 1 {
		if !overflowed {
			if ptr, ok := cctx.offsetFor(rest); ok {
				if dst.Available() < 2 {
					return errNoSpace("no room for compression pointer")
				}
				b := dst.Extend(2)
				binary.BigEndian.PutUint16(b, 0xc000|ptr)
				return nil
			}
			cctx.recordAt(rest, offset)
		}
		labelLen := int32(rest[0]) + 1
		if dst.Available() < labelLen {
			return errNoSpace("no room for name label")
		}
		copy(dst.Extend(labelLen), rest[:labelLen])
		offset += uint16(labelLen)
		rest = rest[labelLen:]
	}
	if dst.Available() < 1 {
		return errNoSpace("no room for root label")
	}
	dst.Extend(1)[0] = 0
	return nil
}

// --- record-data codec --------------------------------------------------

// decodeRData copies rdlength bytes of record data into scratchpad storage
// verbatim. Per spec.md §1/§9, per-type rdata semantics (and compressed
// names embedded within rdata, e.g. in NS/CNAME/SOA/MX) are an external
// collaborator's concern; this engine treats rdata as an opaque payload,
// which the round-trip law explicitly tolerates differing on "compression
// pointer choices" (spec.md §8).
func decodeRData(src []byte, pos int, rdlength int, scratch *scratchpad) ([]byte, error) {
	if pos+rdlength > len(src) {
		return nil, errUnexpectedEnd("rdata runs past end of message")
	}
	dst, err := scratch.allocRData(int32(rdlength), int32(rdlength))
	if err != nil {
		return nil, err
	}
	copy(dst, src[pos:pos+rdlength])
	return dst, nil
}

// encodeRData copies rdata verbatim into dst.
func encodeRData(rdata []byte, dst *buf.Buffer) error {
	if dst.Available() < int32(len(rdata)) {
		return errNoSpace("no room for rdata")
	}
	copy(dst.Extend(int32(len(rdata))), rdata)
	return nil
}

// coversOf extracts the type-covered field from a SIG/RRSIG record's rdata
// (its first two octets), per spec.md §4.4 step 10.
func coversOf(rtype uint16, rdata []byte) uint16 {
	if (rtype == TypeRRSIG || rtype == TypeSIG) && len(rdata) >= 2 {
		return binary.BigEndian.Uint16(rdata[0:2])
	}
	return 0
}
