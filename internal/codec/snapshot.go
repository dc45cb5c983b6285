package codec

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/heysubinoy/rpkv/internal/schema"
	"github.com/heysubinoy/rpkv/pkg/kv"
)

// Magic prefixes every encoded snapshot. An empty or foreign file fails
// to decode instead of reading as an empty snapshot.
var Magic = []byte("RPKV")

var (
	ErrEmpty      = errors.New("empty snapshot")
	ErrBadMagic   = errors.New("missing snapshot header")
	ErrUnknownTag = errors.New("unknown fields in snapshot")
)

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// EncodeSnapshot serializes a snapshot. Keys and values must be valid
// UTF-8; anything else is reported as kv.ErrEncoding.
func EncodeSnapshot(snap kv.Snapshot) ([]byte, error) {
	msg := schema.New(schema.Snapshot)
	entries := msg.Mutable(schema.SnapshotEntries).Map()

	for k, v := range snap {
		if !utf8.ValidString(k) {
			return nil, fmt.Errorf("%w: key %q is not valid UTF-8", kv.ErrEncoding, k)
		}
		if !utf8.ValidString(v) {
			return nil, fmt.Errorf("%w: value for key %q is not valid UTF-8", kv.ErrEncoding, k)
		}
		entries.Set(protoreflect.ValueOfString(k).MapKey(), protoreflect.ValueOfString(v))
	}

	body, err := marshalOptions.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kv.ErrEncoding, err)
	}

	data := make([]byte, 0, len(Magic)+len(body))
	data = append(data, Magic...)
	return append(data, body...), nil
}

// DecodeSnapshot parses bytes produced by EncodeSnapshot. It never panics
// on arbitrary input.
func DecodeSnapshot(data []byte) (kv.Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if !bytes.HasPrefix(data, Magic) {
		return nil, ErrBadMagic
	}

	msg := schema.New(schema.Snapshot)
	if err := proto.Unmarshal(data[len(Magic):], msg); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(msg.GetUnknown()) > 0 {
		return nil, ErrUnknownTag
	}

	entries := msg.Get(schema.SnapshotEntries).Map()
	snap := make(kv.Snapshot, entries.Len())
	entries.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		snap[k.String()] = v.String()
		return true
	})

	return snap, nil
}
