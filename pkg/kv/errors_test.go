package kv_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/heysubinoy/rpkv/pkg/kv"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want kv.Kind
	}{
		{"nil", nil, kv.KindUnknown},
		{"plain", errors.New("boom"), kv.KindUnknown},
		{"io", fmt.Errorf("%w: open: %w", kv.ErrIO, fs.ErrPermission), kv.KindIO},
		{"encoding", fmt.Errorf("%w: bad utf-8", kv.ErrEncoding), kv.KindEncoding},
		{"nested", fmt.Errorf("put: %w", fmt.Errorf("%w: write", kv.ErrIO)), kv.KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kv.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf_KeepsCause(t *testing.T) {
	err := fmt.Errorf("%w: open: %w", kv.ErrIO, fs.ErrPermission)
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("expected wrapped cause to remain visible to errors.Is")
	}
}

func TestKind_String(t *testing.T) {
	if kv.KindIO.String() != "io" || kv.KindEncoding.String() != "encoding" || kv.KindUnknown.String() != "unknown" {
		t.Error("unexpected Kind string values")
	}
}
