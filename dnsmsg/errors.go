package dnsmsg

import "github.com/jengyic/bind-utils/common/errors"

// Error kinds surfaced by the engine, re-exported from common/errors so
// callers never need to import that package directly.
const (
	KindUnexpectedEnd   = errors.KindUnexpectedEnd
	KindFormatError     = errors.KindFormatError
	KindNoSpace         = errors.KindNoSpace
	KindNoMemory        = errors.KindNoMemory
	KindNotFound        = errors.KindNotFound
	KindNoRecordForType = errors.KindNoRecordForType
	KindNoMore          = errors.KindNoMore
)

func errUnexpectedEnd(msg string) error {
	return errors.New(msg).WithKind(errors.KindUnexpectedEnd)
}

func errFormat(msg string) error {
	return errors.New(msg).WithKind(errors.KindFormatError)
}

func errNoSpace(msg string) error {
	return errors.New(msg).WithKind(errors.KindNoSpace)
}

func errNotFound(msg string) error {
	return errors.New(msg).WithKind(errors.KindNotFound)
}

func errNoRecordForType(msg string) error {
	return errors.New(msg).WithKind(errors.KindNoRecordForType)
}

func errNoMore(msg string) error {
	return errors.New(msg).WithKind(errors.KindNoMore)
}

// IsKind reports whether err (or its wrapped chain) carries the given Kind.
func IsKind(err error, k errors.Kind) bool {
	return errors.Is(err, k)
}
