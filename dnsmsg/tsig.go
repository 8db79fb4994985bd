package dnsmsg

import (
	"time"

	ierrors "github.com/jengyic/bind-utils/common/errors"
	"github.com/miekg/dns"
)

// tsigFudge is the signature validity window BIND9 defaults to (300s).
const tsigFudge = 300

// TSIGStatus mirrors the per-side result codes the engine tracks
// (tsigstatus/querytsigstatus, spec.md §3).
type TSIGStatus int

const (
	TSIGNone TSIGStatus = iota
	TSIGOk
	TSIGBadSig
	TSIGBadKey
	TSIGBadTime
	TSIGBadTrunc
)

// TSIGKey names the signing key the engine uses: its owner name, algorithm,
// and base64 secret, in the form github.com/miekg/dns expects.
type TSIGKey struct {
	Name      string
	Algorithm string
	Secret    string
}

// Verifier verifies a parsed TSIG record's MAC. source is the whole received
// message in wire form, with the TSIG record as its last Additional record;
// the MAC covers the bytes that precede that record.
type Verifier interface {
	Verify(source []byte, key TSIGKey, requestMAC string) (TSIGStatus, error)
}

// Signer produces the wire bytes of an outgoing TSIG resource record, ready
// to append directly after rendered.
type Signer interface {
	Sign(rendered []byte, key TSIGKey, requestMAC string, timersOnly bool) (tsigRR []byte, mac string, err error)
}

// MiekgTSIG backs Verifier and Signer with github.com/miekg/dns's TSIG
// primitive, the de facto standard TSIG implementation in the Go DNS
// ecosystem and already a teacher dependency (go.mod: github.com/miekg/dns).
type MiekgTSIG struct{}

// Verify delegates to dns.TsigVerify, which operates directly on the raw wire
// bytes of the whole message and strips the TSIG record itself.
func (MiekgTSIG) Verify(source []byte, key TSIGKey, requestMAC string) (TSIGStatus, error) {
	if err := dns.TsigVerify(source, key.Secret, requestMAC, false); err != nil {
		return tsigStatusFor(err), err
	}
	return TSIGOk, nil
}

// Sign computes a TSIG record over rendered (the wire bytes rendered so far,
// ending where the TSIG record belongs) by round-tripping them through a
// dns.Msg, the shape dns.TsigGenerate requires. dns.TsigGenerate returns the
// whole signed message with the TSIG record already appended; Sign slices
// off just that appended suffix, since this engine's own renderer owns
// placing those bytes on the wire.
func (MiekgTSIG) Sign(rendered []byte, key TSIGKey, requestMAC string, timersOnly bool) ([]byte, string, error) {
	m := new(dns.Msg)
	if err := m.Unpack(rendered); err != nil {
		return nil, "", ierrors.New("cannot reconstruct message for signing").Base(err).WithKind(ierrors.KindFormatError)
	}
	m.SetTsig(key.Name, key.Algorithm, tsigFudge, time.Now().Unix())

	out, mac, err := dns.TsigGenerate(m, key.Secret, requestMAC, timersOnly)
	if err != nil {
		return nil, "", err
	}
	if len(out) < len(rendered) {
		return nil, "", ierrors.New("signed message shorter than its input").WithKind(ierrors.KindFormatError)
	}
	return out[len(rendered):], mac, nil
}

func tsigStatusFor(err error) TSIGStatus {
	switch err {
	case dns.ErrKeyAlg, dns.ErrSecret:
		return TSIGBadKey
	case dns.ErrTime:
		return TSIGBadTime
	case dns.ErrSig:
		return TSIGBadSig
	default:
		return TSIGBadSig
	}
}
