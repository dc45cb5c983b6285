package kv

import "errors"

// Sentinel errors for store operations. Errors returned by a Store wrap
// exactly one of these.
var (
	ErrIO       = errors.New("i/o error")
	ErrEncoding = errors.New("encoding error")
)

// Kind classifies a store error for adapters that translate errors into
// another convention (HTTP status, gRPC code, exit code).
type Kind int

const (
	KindUnknown Kind = iota
	KindIO
	KindEncoding
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of err. A nil error is KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrEncoding):
		return KindEncoding
	case errors.Is(err, ErrIO):
		return KindIO
	default:
		return KindUnknown
	}
}
